package services

import "kalyana/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int
	Role   string
}

func (a Actor) require(role string) error {
	if a.UserID <= 0 || a.Role != role {
		return ErrForbiddenRole
	}
	return nil
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }
