package services

import (
	"context"
	"math"
	"time"

	"kalyana/internal/models"
	"kalyana/internal/repositories"
)

const (
	recentActivityLimit  = 8
	providerRecentAllocs = 6
	ngoRecentSurplus     = 8
	analyticsMonths      = 6
	analyticsTopN        = 5
)

// ReportService builds dashboards and analytics from read-only aggregates.
type ReportService struct {
	reports     repositories.ReportRepository
	surplus     repositories.SurplusRepository
	allocations repositories.AllocationRepository
	reviews     repositories.ReviewRepository
	now         func() time.Time
}

func NewReportService(
	reports repositories.ReportRepository,
	surplus repositories.SurplusRepository,
	allocations repositories.AllocationRepository,
	reviews repositories.ReviewRepository,
) *ReportService {
	return &ReportService{
		reports:     reports,
		surplus:     surplus,
		allocations: allocations,
		reviews:     reviews,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) ProviderDashboard(ctx context.Context, actor Actor) (*models.ProviderDashboard, error) {
	if err := actor.require(models.RoleProvider); err != nil {
		return nil, err
	}
	events, donated, err := s.reports.ProviderTotals(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	active, err := s.allocations.CountForProvider(ctx, actor.UserID, models.ActiveAllocationStatuses...)
	if err != nil {
		return nil, err
	}
	avg, err := s.reviews.AverageForProvider(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	recent, err := s.allocations.ListByProvider(ctx, actor.UserID, providerRecentAllocs)
	if err != nil {
		return nil, err
	}
	return &models.ProviderDashboard{
		TotalEvents:       events,
		TotalFoodDonated:  round(donated, 1),
		ActiveAllocations: active,
		AverageRating:     round(avg, 2),
		RecentAllocations: recent,
	}, nil
}

func (s *ReportService) NGODashboard(ctx context.Context, actor Actor) (*models.NGODashboard, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, err
	}
	available, err := s.surplus.CountByStatus(ctx, models.SurplusAvailable)
	if err != nil {
		return nil, err
	}
	active, err := s.allocations.CountForNGO(ctx, actor.UserID, models.ActiveAllocationStatuses...)
	if err != nil {
		return nil, err
	}
	completed, err := s.allocations.CountForNGO(ctx, actor.UserID, models.AllocationCompleted)
	if err != nil {
		return nil, err
	}
	trust, err := s.reviews.AverageForNGO(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	recent, err := s.surplus.ListByStatus(ctx, models.SurplusAvailable, ngoRecentSurplus)
	if err != nil {
		return nil, err
	}
	return &models.NGODashboard{
		AvailableSurplusCount: available,
		ActivePickupsCount:    active,
		CompletedPickupsCount: completed,
		TrustScore:            round(trust, 2),
		RecentSurplus:         recent,
	}, nil
}

func (s *ReportService) AdminDashboard(ctx context.Context, actor Actor) (*models.AdminDashboard, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	metrics, err := s.reports.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	metrics.TotalSurplusKg = round(metrics.TotalSurplusKg, 1)

	insights, err := s.reports.Insights(ctx)
	if err != nil {
		return nil, err
	}
	insights.AvgTrustScore = round(insights.AvgTrustScore, 2)
	insights.CompletionRate = safeRate(insights.CompletedAllocations, metrics.TotalAllocations)

	activity, err := s.reports.RecentActivity(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	return &models.AdminDashboard{Metrics: *metrics, Insights: *insights, RecentActivity: activity}, nil
}

// Analytics covers the current month and the five before it.
func (s *ReportService) Analytics(ctx context.Context, actor Actor) (*models.Analytics, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}

	keys, labels, since := monthWindow(s.now(), analyticsMonths)

	surplusRows, err := s.reports.MonthlySurplusKg(ctx, since)
	if err != nil {
		return nil, err
	}
	completedRows, err := s.reports.MonthlyCompletedAllocations(ctx, since)
	if err != nil {
		return nil, err
	}
	complaintStatus, err := s.reports.ComplaintStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	topProviders, err := s.reports.TopProviders(ctx, analyticsTopN)
	if err != nil {
		return nil, err
	}
	topNGOs, err := s.reports.TopNGOs(ctx, analyticsTopN)
	if err != nil {
		return nil, err
	}
	metrics, err := s.reports.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	insights, err := s.reports.Insights(ctx)
	if err != nil {
		return nil, err
	}

	surplusByMonth := pointsByMonth(surplusRows)
	completedByMonth := pointsByMonth(completedRows)

	a := &models.Analytics{
		MonthLabels:                 labels,
		MonthlySurplusKg:            make([]float64, len(keys)),
		MonthlyCompletedAllocations: make([]int, len(keys)),
		ComplaintStatus:             complaintStatus,
		TopProviders:                topProviders,
		TopNGOs:                     topNGOs,
		AvgTrustScore:               round(insights.AvgTrustScore, 2),
		AllocationEfficiency:        safeRate(insights.CompletedAllocations, metrics.TotalAllocations),
	}
	for i, k := range keys {
		a.MonthlySurplusKg[i] = round(surplusByMonth[k], 1)
		a.MonthlyCompletedAllocations[i] = int(completedByMonth[k])
	}
	for i := range a.TopProviders {
		a.TopProviders[i].Value = round(a.TopProviders[i].Value, 1)
	}
	return a, nil
}

// monthWindow returns "2006-01" keys and "Jan 2006" labels for the last n
// calendar months, oldest first, and the first instant of the oldest month.
func monthWindow(now time.Time, n int) ([]string, []string, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	keys := make([]string, 0, n)
	labels := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		keys = append(keys, m.Format("2006-01"))
		labels = append(labels, m.Format("Jan 2006"))
	}
	return keys, labels, first.AddDate(0, -(n - 1), 0)
}

func pointsByMonth(points []models.MonthlyPoint) map[string]float64 {
	res := make(map[string]float64, len(points))
	for _, p := range points {
		res[p.Month] += p.Value
	}
	return res
}

// safeRate is numerator/denominator as a percentage with one decimal; 0 when the denominator is 0.
func safeRate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return round(float64(numerator)/float64(denominator)*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
