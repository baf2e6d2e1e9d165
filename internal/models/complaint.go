package models

import "time"

const (
	ComplaintUnderReview = "Under Review"
	ComplaintEscalated   = "Escalated"
	ComplaintResolved    = "Resolved"
	ComplaintRejected    = "Rejected"
)

var ComplaintStatuses = map[string]bool{
	ComplaintUnderReview: true,
	ComplaintEscalated:   true,
	ComplaintResolved:    true,
	ComplaintRejected:    true,
}

type Complaint struct {
	ID          int       `json:"id"`
	NGOID       int       `json:"ngo_id"`
	ProviderID  *int      `json:"provider_id,omitempty"`
	IssueType   string    `json:"issue_type"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	NGOName      string `json:"ngo_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}
