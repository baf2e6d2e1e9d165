package models

import "time"

type DashboardMetrics struct {
	TotalProviders   int     `json:"total_providers"`
	TotalNGOs        int     `json:"total_ngos"`
	TotalEvents      int     `json:"total_events"`
	TotalSurplusKg   float64 `json:"total_surplus_kg"`
	TotalAllocations int     `json:"total_allocations"`
	ActiveComplaints int     `json:"active_complaints"`
}

type OperationalInsights struct {
	CompletedAllocations int     `json:"completed_allocations"`
	PendingAllocations   int     `json:"pending_allocations"`
	AvgTrustScore        float64 `json:"avg_trust_score"`
	HighRiskBatches      int     `json:"high_risk_batches"`
	OpenComplaints       int     `json:"open_complaints"`
	UnallocatedSurplus   int     `json:"unallocated_surplus"`
	CompletionRate       float64 `json:"completion_rate"`
}

type ActivityRow struct {
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Event     string    `json:"event"`
	Actor     string    `json:"actor"`
	Status    string    `json:"status"`
}

type NamedAmount struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type Analytics struct {
	MonthLabels                 []string       `json:"month_labels"`
	MonthlySurplusKg            []float64      `json:"monthly_surplus"`
	MonthlyCompletedAllocations []int          `json:"monthly_completed_allocations"`
	ComplaintStatus             map[string]int `json:"complaint_status"`
	TopProviders                []NamedAmount  `json:"top_providers"`
	TopNGOs                     []NamedAmount  `json:"top_ngos"`
	AvgTrustScore               float64        `json:"avg_trust_score"`
	AllocationEfficiency        float64        `json:"allocation_efficiency"`
}

// MonthlyPoint is one bucket of a monthly series keyed "2006-01".
type MonthlyPoint struct {
	Month string
	Value float64
}

type ProviderDashboard struct {
	TotalEvents       int          `json:"total_events"`
	TotalFoodDonated  float64      `json:"total_food_donated"`
	ActiveAllocations int          `json:"active_allocations"`
	AverageRating     float64      `json:"average_rating"`
	RecentAllocations []Allocation `json:"recent_allocations"`
}

type NGODashboard struct {
	AvailableSurplusCount int       `json:"available_surplus_count"`
	ActivePickupsCount    int       `json:"active_pickups_count"`
	CompletedPickupsCount int       `json:"completed_pickups_count"`
	TrustScore            float64   `json:"trust_score"`
	RecentSurplus         []Surplus `json:"recent_surplus"`
}

type AllocationSummary struct {
	Allocations      []Allocation `json:"allocations"`
	CompletedCount   int          `json:"completed_count"`
	PendingCount     int          `json:"pending_count"`
	TotalMealsServed int          `json:"total_meals_served"`
}

type UserListing struct {
	Users           []User          `json:"users"`
	ProviderRatings map[int]float64 `json:"provider_ratings"`
	RoleSummary     map[string]int  `json:"role_summary"`
	UsersCount      int             `json:"users_count"`
}

type AdminDashboard struct {
	Metrics        DashboardMetrics    `json:"metrics"`
	Insights       OperationalInsights `json:"insights"`
	RecentActivity []ActivityRow       `json:"recent_activity"`
}

type ProviderFeedback struct {
	Reviews    []Review    `json:"reviews"`
	Complaints []Complaint `json:"complaints"`
	AvgRating  float64     `json:"avg_rating"`
}

type NGOFeedback struct {
	Providers        []User      `json:"providers"`
	Reviews          []Review    `json:"reviews"`
	RecentComplaints []Complaint `json:"recent_complaints"`
}

type EventOverview struct {
	Events              []Event `json:"events"`
	TotalEvents         int     `json:"total_events"`
	TotalExpectedGuests int     `json:"total_expected_guests"`
	EventsWithSurplus   int     `json:"events_with_surplus"`
}

type AllocationOverview struct {
	Allocations []Allocation   `json:"allocations"`
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
}

type ComplaintOverview struct {
	Complaints []Complaint    `json:"complaints"`
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
}
