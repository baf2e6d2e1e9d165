package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/logger"

	"kalyana/internal/models"
	"kalyana/internal/repositories"
	"kalyana/internal/storage"
)

// PhotoStore persists food photos and returns their path relative to the media root.
type PhotoStore interface {
	Save(r io.Reader, filename string) (string, error)
	Remove(relPath string) error
}

// PhotoUpload is an uploaded image as received from the client.
type PhotoUpload struct {
	Filename string
	Body     io.Reader
}

const recentSurplusLimit = 8

type SurplusService struct {
	repo     repositories.SurplusRepository
	users    repositories.UserRepository
	geo      Geocoder
	photos   PhotoStore
	notifier Notifier
}

func NewSurplusService(repo repositories.SurplusRepository, users repositories.UserRepository, geo Geocoder, photos PhotoStore, notifier Notifier) *SurplusService {
	return &SurplusService{repo: repo, users: users, geo: geo, photos: photos, notifier: orNoop(notifier)}
}

// Create validates the form, geocodes the venue and stores a pending batch.
// Nothing is written when any check fails.
func (s *SurplusService) Create(ctx context.Context, actor Actor, in models.CreateSurplusInput, photo *PhotoUpload) (*models.Surplus, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}

	eventName := strings.TrimSpace(in.EventName)
	venueName := strings.TrimSpace(in.VenueName)
	foodType := strings.TrimSpace(in.FoodType)
	quantityText := strings.TrimSpace(in.QuantityKg)
	venueLocation := strings.TrimSpace(in.VenueLocation)
	if eventName == "" || venueName == "" || foodType == "" || quantityText == "" || venueLocation == "" {
		return nil, invalid("event name, venue name, food type, quantity and venue location are required")
	}

	quantity, err := strconv.ParseFloat(quantityText, 64)
	if err != nil || !finite(quantity) || quantity < 0 {
		return nil, invalid("quantity must be a valid non-negative number")
	}

	var statedDistance *float64
	if d := strings.TrimSpace(in.DistanceKm); d != "" {
		v, err := strconv.ParseFloat(d, 64)
		if err != nil || !finite(v) {
			return nil, invalid("distance must be a valid number")
		}
		statedDistance = &v
	}

	if photo != nil && photo.Filename != "" {
		if _, ok := storage.ImageExtension(photo.Filename); !ok {
			return nil, invalid("%s", storage.ErrUnsupportedImage.Error())
		}
	}

	point, ok := s.geo.Resolve(ctx, venueLocation)
	if !ok {
		return nil, ErrLocationNotFound
	}

	providerName := strings.TrimSpace(in.ProviderName)
	if providerName == "" {
		providerName = "Provider"
		if u, err := s.users.GetByID(ctx, actor.UserID); err == nil && u.FullName != "" {
			providerName = u.FullName
		}
	}

	rec := &models.Surplus{
		ProviderID:       actor.UserID,
		EventName:        eventName,
		VenueName:        venueName,
		ProviderName:     providerName,
		FoodType:         foodType,
		QuantityKg:       quantity,
		EstimatedExpiry:  strings.TrimSpace(in.EstimatedExpiry),
		StatedDistanceKm: statedDistance,
		ProviderLocation: point.DisplayName,
		Latitude:         &point.Lat,
		Longitude:        &point.Lon,
		Status:           models.SurplusPending,
	}

	if photo != nil && photo.Filename != "" {
		path, err := s.photos.Save(photo.Body, photo.Filename)
		if err != nil {
			return nil, photoError(err)
		}
		rec.PhotoPath = path
	}

	if err := s.repo.CreateWithEvent(ctx, rec); err != nil {
		if rec.PhotoPath != "" {
			_ = s.photos.Remove(rec.PhotoPath)
		}
		return nil, fmt.Errorf("create surplus: %w", err)
	}

	logger.Infof("[surplus][create] ok id=%d provider_id=%d qty=%.1f", rec.ID, rec.ProviderID, rec.QuantityKg)
	s.notifier.Publish("surplus", "created", models.RoleProvider)
	return rec, nil
}

// AttachPhoto stores or replaces the photo of a batch that is pending or available.
func (s *SurplusService) AttachPhoto(ctx context.Context, actor Actor, surplusID int, photo PhotoUpload) (*models.Surplus, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}
	if photo.Filename == "" || photo.Body == nil {
		return nil, invalid("photo file is required")
	}
	if _, ok := storage.ImageExtension(photo.Filename); !ok {
		return nil, invalid("%s", storage.ErrUnsupportedImage.Error())
	}

	rec, err := s.owned(ctx, actor, surplusID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.SurplusPending && rec.Status != models.SurplusAvailable {
		return nil, invalid("photo can only be changed before pickup is requested")
	}

	path, err := s.photos.Save(photo.Body, photo.Filename)
	if err != nil {
		return nil, photoError(err)
	}
	ok, err := s.repo.UpdatePhoto(ctx, surplusID, path, models.SurplusPending, models.SurplusAvailable)
	if err != nil || !ok {
		_ = s.photos.Remove(path)
		if err != nil {
			return nil, err
		}
		return nil, invalid("photo can only be changed before pickup is requested")
	}
	if rec.PhotoPath != "" && rec.PhotoPath != path {
		if err := s.photos.Remove(rec.PhotoPath); err != nil {
			logger.Warningf("[surplus][photo] remove old photo id=%d: %v", surplusID, err)
		}
	}
	rec.PhotoPath = path

	s.notifier.Publish("surplus", "photo-updated", models.RoleProvider)
	return rec, nil
}

// MarkReady opens a pending batch for pickup requests.
// It reports changed=false when the batch is already past pending.
func (s *SurplusService) MarkReady(ctx context.Context, actor Actor, surplusID int) (bool, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return false, err
	}
	rec, err := s.owned(ctx, actor, surplusID)
	if err != nil {
		return false, err
	}
	if !canTransition(rec.Status, models.SurplusAvailable, SurplusTransitions) {
		return false, nil
	}
	changed, err := s.repo.TransitionStatus(ctx, surplusID, models.SurplusPending, models.SurplusAvailable)
	if err != nil {
		return false, err
	}
	if changed {
		logger.Infof("[surplus][ready] id=%d provider_id=%d", surplusID, actor.UserID)
		s.notifier.Publish("surplus", "ready", models.RoleProvider)
	}
	return changed, nil
}

func (s *SurplusService) ListForProvider(ctx context.Context, actor Actor) ([]models.Surplus, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}
	return s.repo.ListByProvider(ctx, actor.UserID, recentSurplusLimit)
}

func (s *SurplusService) owned(ctx context.Context, actor Actor, surplusID int) (*models.Surplus, error) {
	rec, err := s.repo.GetByID(ctx, surplusID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.ProviderID != actor.UserID {
		return nil, ErrUnauthorized
	}
	return rec, nil
}

func photoError(err error) error {
	if storage.IsBadImage(err) {
		return invalid("%s", err.Error())
	}
	return fmt.Errorf("save photo: %w", err)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
