package authz

import "kalyana/internal/models"

const (
	RoleProvider = models.RoleProvider
	RoleNGO      = models.RoleNGO
	RoleAdmin    = models.RoleAdmin
)

// IsSignupRole reports whether a role may be chosen at self-registration.
// Admins are provisioned out of band.
func IsSignupRole(role string) bool {
	return role == RoleProvider || role == RoleNGO
}

func IsKnownRole(role string) bool {
	return IsSignupRole(role) || role == RoleAdmin
}
