package models

import "time"

// PlatformUpdate is broadcast to dashboards whenever a record changes.
type PlatformUpdate struct {
	Scope     string    `json:"scope"`
	Action    string    `json:"action"`
	ActorRole string    `json:"actor_role"`
	Timestamp time.Time `json:"timestamp"`
}
