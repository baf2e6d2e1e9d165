package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/logger"

	"kalyana/internal/models"
	"kalyana/internal/repositories"
)

type EventService struct {
	repo     repositories.EventRepository
	notifier Notifier
}

func NewEventService(repo repositories.EventRepository, notifier Notifier) *EventService {
	return &EventService{repo: repo, notifier: orNoop(notifier)}
}

func (s *EventService) ListForProvider(ctx context.Context, actor Actor) ([]models.Event, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}
	return s.repo.ListByProvider(ctx, actor.UserID)
}

func (s *EventService) Create(ctx context.Context, actor Actor, req models.CreateEventRequest) (*models.Event, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.EventName)
	if name == "" {
		return nil, invalid("event name is required")
	}
	if req.GuestCount < 0 {
		return nil, invalid("guest count cannot be negative")
	}

	date := time.Now().UTC()
	if raw := strings.TrimSpace(req.EventDate); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, invalid("event date must be YYYY-MM-DD")
		}
		date = d
	}

	e := &models.Event{ProviderID: actor.UserID, EventName: name, EventDate: date, GuestCount: req.GuestCount}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	logger.Infof("[event][create] ok id=%d provider_id=%d", e.ID, actor.UserID)
	s.notifier.Publish("event", "created", models.RoleProvider)
	return e, nil
}
