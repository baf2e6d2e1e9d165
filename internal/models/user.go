package models

import "time"

const (
	RoleProvider = "provider"
	RoleNGO      = "ngo"
	RoleAdmin    = "admin"
)

type User struct {
	ID            int       `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // не отдаём наружу
	Role          string    `json:"role"`
	PhoneNumber   *string   `json:"phone_number,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string
	Role   string
}
