// Package models - template.go defines the Template model for admin-managed
// assessment questionnaires.
package models

import "time"

// Template represents a questionnaire template that assessments are run against.
// Templates are managed by org admins; deleting a template referenced by an
// assessment is rejected at the database layer (RESTRICT).
type Template struct {
	ID          string    `db:"id" json:"id"`
	OrgID       string    `db:"org_id" json:"org_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Version     int       `db:"version" json:"version"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
