// Package models - assessment.go defines the Assessment model and its status
// state machine. Status only ever advances along the directed transition graph
// assigned → submitted → reviewed → approved; there are no skips and no reversals.
package models

import (
	"strings"
	"time"
)

// AssessmentStatus represents the workflow status of an assessment.
type AssessmentStatus string

const (
	AssessmentStatusAssigned  AssessmentStatus = "assigned"
	AssessmentStatusSubmitted AssessmentStatus = "submitted"
	AssessmentStatusReviewed  AssessmentStatus = "reviewed"
	AssessmentStatusApproved  AssessmentStatus = "approved"
)

// assessmentTransitions is the legal edge set. Approved is terminal.
var assessmentTransitions = map[AssessmentStatus][]AssessmentStatus{
	AssessmentStatusAssigned:  {AssessmentStatusSubmitted},
	AssessmentStatusSubmitted: {AssessmentStatusReviewed},
	AssessmentStatusReviewed:  {AssessmentStatusApproved},
	AssessmentStatusApproved:  {},
}

// RiskLevel is the scoring outcome classification returned by the scoring service.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// ValidRiskLevel reports whether s is one of the known risk levels.
func ValidRiskLevel(s string) bool {
	switch RiskLevel(s) {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// Assessment represents one vendor's in-progress evaluation against one template.
// Score and RiskLevel are set only when the final review is approved.
type Assessment struct {
	ID         string           `db:"id" json:"id"`
	OrgID      string           `db:"org_id" json:"org_id"`
	VendorID   string           `db:"vendor_id" json:"vendor_id"`
	TemplateID string           `db:"template_id" json:"template_id"`
	Status     AssessmentStatus `db:"status" json:"status"`
	Score      *float64         `db:"score" json:"score,omitempty"`
	RiskLevel  *string          `db:"risk_level" json:"risk_level,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// IsValidTransition reports whether moving from the current status to target is
// a legal edge. Same-status is not an edge; callers treat it as a no-op.
func (a *Assessment) IsValidTransition(target AssessmentStatus) bool {
	for _, next := range assessmentTransitions[a.Status] {
		if next == target {
			return true
		}
	}
	return false
}

// CanTransitionTo validates a requested status change. A same-status request is
// permitted and treated as an idempotent no-op. For an illegal edge the returned
// message names both the attempted and the valid target states.
func (a *Assessment) CanTransitionTo(target AssessmentStatus) (bool, string) {
	if target == a.Status {
		return true, ""
	}
	if a.IsValidTransition(target) {
		return true, ""
	}
	valid := assessmentTransitions[a.Status]
	names := make([]string, len(valid))
	for i, s := range valid {
		names[i] = string(s)
	}
	joined := "none"
	if len(names) > 0 {
		joined = strings.Join(names, ", ")
	}
	return false, "Cannot transition from '" + string(a.Status) + "' to '" + string(target) + "'. Valid transitions: " + joined
}
