package models

import "time"

type AllocationStatus string

const (
	AllocationRequested AllocationStatus = "requested"
	// AllocationAllocated is reserved; no transition produces it yet.
	AllocationAllocated AllocationStatus = "allocated"
	AllocationCompleted AllocationStatus = "completed"
)

// ActiveAllocationStatuses are the non-terminal states a pickup code must be unique within.
var ActiveAllocationStatuses = []AllocationStatus{AllocationRequested, AllocationAllocated}

type Allocation struct {
	ID         int              `json:"id"`
	SurplusID  int              `json:"surplus_id"`
	ProviderID int              `json:"provider_id"`
	NGOID      int              `json:"ngo_id"`
	Status     AllocationStatus `json:"status"`
	PickupTime *time.Time       `json:"pickup_time,omitempty"`
	PickupCode string           `json:"pickup_code,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`

	// денормализованные поля для списков
	FoodType     string  `json:"food_type,omitempty"`
	QuantityKg   float64 `json:"quantity_kg,omitempty"`
	NGOName      string  `json:"ngo_name,omitempty"`
	ProviderName string  `json:"provider_name,omitempty"`
}

func (a *Allocation) IsActive() bool {
	for _, s := range ActiveAllocationStatuses {
		if a.Status == s {
			return true
		}
	}
	return false
}
