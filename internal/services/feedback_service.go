package services

import (
	"context"
	"strings"

	"github.com/google/logger"

	"kalyana/internal/models"
	"kalyana/internal/repositories"
)

const recentComplaintsLimit = 10

// FeedbackService handles reviews and complaints exchanged between NGOs and providers.
type FeedbackService struct {
	reviews     repositories.ReviewRepository
	complaints  repositories.ComplaintRepository
	allocations repositories.AllocationRepository
	users       repositories.UserRepository
	notifier    Notifier
}

func NewFeedbackService(
	reviews repositories.ReviewRepository,
	complaints repositories.ComplaintRepository,
	allocations repositories.AllocationRepository,
	users repositories.UserRepository,
	notifier Notifier,
) *FeedbackService {
	return &FeedbackService{
		reviews:     reviews,
		complaints:  complaints,
		allocations: allocations,
		users:       users,
		notifier:    orNoop(notifier),
	}
}

func (s *FeedbackService) ProviderFeedback(ctx context.Context, actor Actor) (*models.ProviderFeedback, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByProvider(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	complaints, err := s.complaints.ListByProvider(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	avg, err := s.reviews.AverageForProvider(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &models.ProviderFeedback{Reviews: reviews, Complaints: complaints, AvgRating: round(avg, 2)}, nil
}

func (s *FeedbackService) NGOFeedback(ctx context.Context, actor Actor) (*models.NGOFeedback, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, err
	}
	ids, err := s.allocations.ProviderIDsForNGO(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	providers, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByNGO(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	complaints, err := s.complaints.ListByNGO(ctx, actor.UserID, recentComplaintsLimit)
	if err != nil {
		return nil, err
	}
	return &models.NGOFeedback{Providers: providers, Reviews: reviews, RecentComplaints: complaints}, nil
}

// CreateReview lets an NGO rate a provider it has received food from.
func (s *FeedbackService) CreateReview(ctx context.Context, actor Actor, providerID, rating int, comment string) (*models.Review, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, err
	}
	if providerID <= 0 {
		return nil, invalid("provider and rating are required")
	}
	ids, err := s.allocations.ProviderIDsForNGO(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	eligible := false
	for _, id := range ids {
		if id == providerID {
			eligible = true
			break
		}
	}
	if !eligible {
		return nil, ErrUnauthorized
	}
	comment = strings.TrimSpace(comment)
	if rating < 1 || rating > 5 || comment == "" {
		return nil, invalid("please provide a rating from 1 to 5 and a comment")
	}

	rv := &models.Review{NGOID: actor.UserID, ProviderID: providerID, Rating: rating, Comment: comment}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	logger.Infof("[review][create] ok id=%d ngo_id=%d provider_id=%d rating=%d", rv.ID, actor.UserID, providerID, rating)
	s.notifier.Publish("review", "created", models.RoleNGO)
	return rv, nil
}

func (s *FeedbackService) CreateComplaint(ctx context.Context, actor Actor, providerID *int, issueType, description string) (*models.Complaint, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, err
	}
	issueType = strings.TrimSpace(issueType)
	description = strings.TrimSpace(description)
	if issueType == "" || description == "" {
		return nil, invalid("issue type and description are required")
	}
	if providerID != nil && *providerID <= 0 {
		providerID = nil
	}

	c := &models.Complaint{
		NGOID:       actor.UserID,
		ProviderID:  providerID,
		IssueType:   issueType,
		Description: description,
		Status:      models.ComplaintUnderReview,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Infof("[complaint][create] ok id=%d ngo_id=%d", c.ID, actor.UserID)
	s.notifier.Publish("complaint", "created", models.RoleNGO)
	return c, nil
}
