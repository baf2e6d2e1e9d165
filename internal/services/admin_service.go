package services

import (
	"context"
	"strings"

	"github.com/google/logger"

	"kalyana/internal/models"
	"kalyana/internal/repositories"
)

const (
	adminEventsLimit      = 50
	adminAllocationsLimit = 60
	adminComplaintsLimit  = 60
)

type AdminService struct {
	users       repositories.UserRepository
	reviews     repositories.ReviewRepository
	events      repositories.EventRepository
	allocations repositories.AllocationRepository
	complaints  repositories.ComplaintRepository
	notifier    Notifier
}

func NewAdminService(
	users repositories.UserRepository,
	reviews repositories.ReviewRepository,
	events repositories.EventRepository,
	allocations repositories.AllocationRepository,
	complaints repositories.ComplaintRepository,
	notifier Notifier,
) *AdminService {
	return &AdminService{
		users:       users,
		reviews:     reviews,
		events:      events,
		allocations: allocations,
		complaints:  complaints,
		notifier:    orNoop(notifier),
	}
}

// ListUsers filters by role (ignored unless known) and a case-insensitive name/email search.
func (s *AdminService) ListUsers(ctx context.Context, actor Actor, filter models.UserFilter) (*models.UserListing, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	filter.Role = strings.ToLower(strings.TrimSpace(filter.Role))
	switch filter.Role {
	case models.RoleProvider, models.RoleNGO, models.RoleAdmin:
	default:
		filter.Role = ""
	}
	filter.Search = strings.ToLower(strings.TrimSpace(filter.Search))

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ratings, err := s.reviews.AveragesByProvider(ctx)
	if err != nil {
		return nil, err
	}
	for id, avg := range ratings {
		ratings[id] = round(avg, 2)
	}
	summary, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	return &models.UserListing{Users: users, ProviderRatings: ratings, RoleSummary: summary, UsersCount: len(users)}, nil
}

// DeleteUser removes a user and everything attached to it. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actor Actor, userID int) error {
	if err := actor.require(models.RoleAdmin); err != nil {
		return err
	}
	if userID == actor.UserID {
		return invalid("you cannot delete your own admin account while logged in")
	}
	if err := s.users.DeleteCascade(ctx, userID); err != nil {
		if repositories.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	logger.Infof("[admin][user][delete] ok user_id=%d by=%d", userID, actor.UserID)
	s.notifier.Publish("user", "deleted", models.RoleAdmin)
	return nil
}

func (s *AdminService) Events(ctx context.Context, actor Actor) (*models.EventOverview, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	events, err := s.events.ListRecent(ctx, adminEventsLimit)
	if err != nil {
		return nil, err
	}
	res := &models.EventOverview{Events: events, TotalEvents: len(events)}
	for _, e := range events {
		res.TotalExpectedGuests += e.GuestCount
		if e.SurplusCount > 0 {
			res.EventsWithSurplus++
		}
	}
	return res, nil
}

func (s *AdminService) Allocations(ctx context.Context, actor Actor) (*models.AllocationOverview, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := s.allocations.ListRecent(ctx, adminAllocationsLimit)
	if err != nil {
		return nil, err
	}
	res := &models.AllocationOverview{
		Allocations: list,
		Total:       len(list),
		ByStatus: map[string]int{
			string(models.AllocationRequested): 0,
			string(models.AllocationAllocated): 0,
			string(models.AllocationCompleted): 0,
		},
	}
	for _, a := range list {
		res.ByStatus[statusKey(string(a.Status))]++
	}
	return res, nil
}

func (s *AdminService) Complaints(ctx context.Context, actor Actor) (*models.ComplaintOverview, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	list, err := s.complaints.ListRecent(ctx, adminComplaintsLimit)
	if err != nil {
		return nil, err
	}
	res := &models.ComplaintOverview{Complaints: list, Total: len(list), ByStatus: map[string]int{}}
	for status := range models.ComplaintStatuses {
		res.ByStatus[statusKey(status)] = 0
	}
	for _, c := range list {
		res.ByStatus[statusKey(c.Status)]++
	}
	return res, nil
}

func (s *AdminService) SetComplaintStatus(ctx context.Context, actor Actor, complaintID int, status string) error {
	if err := actor.require(models.RoleAdmin); err != nil {
		return err
	}
	status = strings.TrimSpace(status)
	if !models.ComplaintStatuses[status] {
		return invalid("invalid complaint status selected")
	}
	if err := s.complaints.UpdateStatus(ctx, complaintID, status); err != nil {
		if repositories.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	logger.Infof("[admin][complaint][status] id=%d status=%q", complaintID, status)
	s.notifier.Publish("complaint", "status-updated", models.RoleAdmin)
	return nil
}

// statusKey maps "Under Review" to "under_review".
func statusKey(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(s, " ", "_")
}
