// Package models - remediation.go defines the Remediation model tracking an issue
// raised against an assessment that requires a vendor response and reviewer closure.
package models

import "time"

// RemediationStatus represents the remediation lifecycle:
// open → responded (vendor) → closed (reviewer/admin).
type RemediationStatus string

const (
	RemediationStatusOpen      RemediationStatus = "open"
	RemediationStatusResponded RemediationStatus = "responded"
	RemediationStatusClosed    RemediationStatus = "closed"
)

// Remediation is a corrective-action record. An unresolved remediation (anything
// other than closed) blocks approval of the linked assessment's review.
type Remediation struct {
	ID             string            `db:"id" json:"id"`
	OrgID          string            `db:"org_id" json:"org_id"`
	AssessmentID   string            `db:"assessment_id" json:"assessment_id"`
	Issue          string            `db:"issue" json:"issue"`
	VendorResponse string            `db:"vendor_response" json:"vendor_response,omitempty"`
	Status         RemediationStatus `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// Resolved reports whether the remediation no longer blocks review approval.
func (r *Remediation) Resolved() bool {
	return r.Status == RemediationStatusClosed
}
