// Package models - audit_log.go defines the AuditLog model, an immutable append-only
// record of who did what to which object, with arbitrary metadata.
package models

import "time"

// AuditLog represents a single audit entry. Entries are created synchronously as
// the last step of every state-changing action and are never updated or deleted.
// OrganizationID is nullable: a missing org context is recorded as a
// warning-tagged entry rather than dropping the event.
type AuditLog struct {
	ID             string
	UserID         *string // Nullable for system actions
	OrganizationID *string
	Action         string  // "submit_assessment", "make_review_decision", ...
	ObjectType     *string // "assessment", "review", "remediation", "vendor"
	ObjectID       *string // UUID of the affected entity
	Metadata       map[string]interface{} // JSONB: additional context
	IPAddress      *string // Client IP when the action came over HTTP
	CreatedAt      time.Time
}
