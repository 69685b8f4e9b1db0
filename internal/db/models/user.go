// Package models - user.go defines the User model for platform accounts. Each user
// belongs to one organization and carries one of the three platform roles.
package models

import "time"

// User represents a platform account. Role is one of "admin", "reviewer",
// "vendor" (see internal/authz). OrgID is nullable only during bootstrap,
// before the user has been attached to a tenant.
type User struct {
	ID           string
	OrgID        *string
	Email        string
	Name         string
	Role         string
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
