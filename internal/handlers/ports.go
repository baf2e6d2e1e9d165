package handlers

import (
	"context"

	"kalyana/internal/models"
	"kalyana/internal/services"
)

// Service views the handlers depend on; *services.X satisfy them.

type AuthFlows interface {
	Register(ctx context.Context, req models.RegisterRequest) (*services.OTPStart, error)
	VerifyRegistration(ctx context.Context, token, code string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	ForgotPassword(ctx context.Context, email string) (*services.OTPStart, error)
	VerifyPasswordReset(ctx context.Context, token, code string) (string, error)
	ResetPassword(ctx context.Context, ticket, newPassword, confirm string) error
	Resend(ctx context.Context, purpose models.OTPPurpose, token string) (*services.OTPStart, error)
}

type SurplusManager interface {
	Create(ctx context.Context, actor services.Actor, in models.CreateSurplusInput, photo *services.PhotoUpload) (*models.Surplus, error)
	AttachPhoto(ctx context.Context, actor services.Actor, surplusID int, photo services.PhotoUpload) (*models.Surplus, error)
	MarkReady(ctx context.Context, actor services.Actor, surplusID int) (bool, error)
	ListForProvider(ctx context.Context, actor services.Actor) ([]models.Surplus, error)
}

type EventManager interface {
	ListForProvider(ctx context.Context, actor services.Actor) ([]models.Event, error)
	Create(ctx context.Context, actor services.Actor, req models.CreateEventRequest) (*models.Event, error)
}

type AllocationManager interface {
	RequestPickup(ctx context.Context, actor services.Actor, surplusID int) (*models.Allocation, error)
	VerifyPickup(ctx context.Context, actor services.Actor, allocationID int, code string) (bool, error)
	ProviderSummary(ctx context.Context, actor services.Actor) (*models.AllocationSummary, error)
	ListForNGO(ctx context.Context, actor services.Actor) ([]models.Allocation, error)
	NGOHistory(ctx context.Context, actor services.Actor) (*models.AllocationSummary, error)
}

type FeedbackManager interface {
	ProviderFeedback(ctx context.Context, actor services.Actor) (*models.ProviderFeedback, error)
	NGOFeedback(ctx context.Context, actor services.Actor) (*models.NGOFeedback, error)
	CreateReview(ctx context.Context, actor services.Actor, providerID, rating int, comment string) (*models.Review, error)
	CreateComplaint(ctx context.Context, actor services.Actor, providerID *int, issueType, description string) (*models.Complaint, error)
}

type ReportBuilder interface {
	ProviderDashboard(ctx context.Context, actor services.Actor) (*models.ProviderDashboard, error)
	NGODashboard(ctx context.Context, actor services.Actor) (*models.NGODashboard, error)
	AdminDashboard(ctx context.Context, actor services.Actor) (*models.AdminDashboard, error)
	Analytics(ctx context.Context, actor services.Actor) (*models.Analytics, error)
}

type SurplusMatcher interface {
	Nearby(ctx context.Context, actor services.Actor, receiverQuery string, radiusKm float64) ([]models.MatchedSurplus, *models.GeoPoint, error)
}

type AdminManager interface {
	ListUsers(ctx context.Context, actor services.Actor, filter models.UserFilter) (*models.UserListing, error)
	DeleteUser(ctx context.Context, actor services.Actor, userID int) error
	Events(ctx context.Context, actor services.Actor) (*models.EventOverview, error)
	Allocations(ctx context.Context, actor services.Actor) (*models.AllocationOverview, error)
	Complaints(ctx context.Context, actor services.Actor) (*models.ComplaintOverview, error)
	SetComplaintStatus(ctx context.Context, actor services.Actor, complaintID int, status string) error
}

var (
	_ AuthFlows         = (*services.AuthService)(nil)
	_ SurplusManager    = (*services.SurplusService)(nil)
	_ EventManager      = (*services.EventService)(nil)
	_ AllocationManager = (*services.AllocationService)(nil)
	_ FeedbackManager   = (*services.FeedbackService)(nil)
	_ ReportBuilder     = (*services.ReportService)(nil)
	_ SurplusMatcher    = (*services.MatchingService)(nil)
	_ AdminManager      = (*services.AdminService)(nil)
)
