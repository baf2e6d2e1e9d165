package models

import "time"

type OTPPurpose string

const (
	OTPPurposeRegister OTPPurpose = "register"
	OTPPurposeReset    OTPPurpose = "reset"
)

// OTPContext tracks an in-progress one-time-code verification.
// Only the keyed hash of the code is kept.
type OTPContext struct {
	Token     string            `json:"-"`
	Purpose   OTPPurpose        `json:"purpose"`
	Email     string            `json:"email"`
	CodeHash  string            `json:"-"`
	ExpiresAt time.Time         `json:"expires_at"`
	Attempts  int               `json:"attempts"`
	Payload   OTPContextPayload `json:"-"`
	CreatedAt time.Time         `json:"created_at"`
}

func (c *OTPContext) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// OTPContextPayload is carried across resends untouched.
type OTPContextPayload struct {
	FullName     string `json:"full_name,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Role         string `json:"role,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
	UserID       int    `json:"user_id,omitempty"`
}
