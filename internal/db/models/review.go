// Package models - review.go defines the Review model carrying one reviewer's
// decision on an assessment.
package models

import "time"

// ReviewDecision represents the terminal verdict a reviewer renders.
type ReviewDecision string

const (
	ReviewDecisionPending  ReviewDecision = "pending"
	ReviewDecisionApproved ReviewDecision = "approved"
	ReviewDecisionRejected ReviewDecision = "rejected"
)

// Review represents one reviewer's decision on an assessment. Decision moves
// from pending to approved or rejected exactly once and never regresses; a
// second decision attempt is rejected, not silently accepted.
type Review struct {
	ID           string         `db:"id" json:"id"`
	OrgID        string         `db:"org_id" json:"org_id"`
	AssessmentID string         `db:"assessment_id" json:"assessment_id"`
	ReviewerID   string         `db:"reviewer_id" json:"reviewer_id"`
	Comments     string         `db:"comments" json:"comments,omitempty"`
	Decision     ReviewDecision `db:"decision" json:"decision"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Decided reports whether the review has already been decided.
func (r *Review) Decided() bool {
	return r.Decision != ReviewDecisionPending
}
