// Package models - organization.go defines the Organization model, the tenancy root
// that every other entity in the platform belongs to.
package models

import "time"

// Organization represents a tenant. All vendors, assessments, reviews,
// remediations, and audit entries are scoped to exactly one organization;
// every query path filters by the acting user's organization.
type Organization struct {
	ID          string
	Name        string // URL-safe name
	DisplayName string // Human-readable display name
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
