package models

import "time"

type Review struct {
	ID         int       `json:"id"`
	NGOID      int       `json:"ngo_id"`
	ProviderID int       `json:"provider_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`

	NGOName      string `json:"ngo_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}
