package models

import "time"

type Event struct {
	ID         int       `json:"id"`
	ProviderID int       `json:"provider_id"`
	EventName  string    `json:"event_name"`
	EventDate  time.Time `json:"event_date"`
	GuestCount int       `json:"guest_count"`
	CreatedAt  time.Time `json:"created_at"`

	// заполняется в списочных выборках
	SurplusCount int    `json:"surplus_count,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

type CreateEventRequest struct {
	EventName  string `json:"event_name"`
	EventDate  string `json:"event_date"` // YYYY-MM-DD, пусто = сегодня
	GuestCount int    `json:"guest_count"`
}
