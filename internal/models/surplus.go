package models

import "time"

// SurplusStatus is the lifecycle state of a surplus batch.
type SurplusStatus string

const (
	SurplusPending   SurplusStatus = "pending"
	SurplusAvailable SurplusStatus = "available"
	SurplusRequested SurplusStatus = "requested"
	SurplusCompleted SurplusStatus = "completed"
)

// Surplus is a provider-submitted batch of excess food.
type Surplus struct {
	ID               int           `json:"id"`
	ProviderID       int           `json:"provider_id"`
	EventID          *int          `json:"event_id,omitempty"`
	EventName        string        `json:"event_name"`
	VenueName        string        `json:"venue_name"`
	ProviderName     string        `json:"provider_name"`
	FoodType         string        `json:"food_type"`
	QuantityKg       float64       `json:"quantity_kg"`
	EstimatedExpiry  string        `json:"estimated_expiry,omitempty"`
	StatedDistanceKm *float64      `json:"stated_distance_km,omitempty"`
	ProviderLocation string        `json:"provider_location,omitempty"`
	Latitude         *float64      `json:"latitude,omitempty"`
	Longitude        *float64      `json:"longitude,omitempty"`
	PhotoPath        string        `json:"photo_path,omitempty"`
	Status           SurplusStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
}

func (s *Surplus) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// MatchedSurplus is a surplus batch within the receiver's radius.
type MatchedSurplus struct {
	Surplus
	DistanceKm float64 `json:"distance_km"`
}

// CreateSurplusInput carries the raw provider form fields.
type CreateSurplusInput struct {
	EventName       string
	VenueName       string
	ProviderName    string
	FoodType        string
	EstimatedExpiry string
	QuantityKg      string
	DistanceKm      string
	VenueLocation   string
}
