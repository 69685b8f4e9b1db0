// Package workflow implements the staged approval workflow that governs
// assessments, reviews, and remediations. It coordinates across repositories,
// the authorization gate, the audit recorder, and the external scoring
// gateway: every mutating operation is authorized, validated against the
// relevant legal-transition table, applied with a compare-and-set write, and
// then audited.
package workflow

import (
	"github.com/vendorguard/vendorguard/internal/audit"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/scoring"
)

// Rescorer accepts best-effort rescore requests. Enqueue must not block and
// must not fail the caller; delivery is advisory.
type Rescorer interface {
	Enqueue(orgID, assessmentID string)
}

// Service coordinates the assessment approval workflow.
type Service struct {
	assessments  *repositories.AssessmentRepository
	reviews      *repositories.ReviewRepository
	remediations *repositories.RemediationRepository
	vendors      *repositories.VendorRepository
	templates    *repositories.TemplateRepository
	responses    *repositories.ResponseRepository
	recorder     *audit.Recorder
	scorer       scoring.Gateway
	rescorer     Rescorer
}

// NewService creates the workflow service. rescorer may be nil, in which case
// remediation closure skips the advisory rescore.
func NewService(
	assessments *repositories.AssessmentRepository,
	reviews *repositories.ReviewRepository,
	remediations *repositories.RemediationRepository,
	vendors *repositories.VendorRepository,
	templates *repositories.TemplateRepository,
	responses *repositories.ResponseRepository,
	recorder *audit.Recorder,
	scorer scoring.Gateway,
	rescorer Rescorer,
) *Service {
	return &Service{
		assessments:  assessments,
		reviews:      reviews,
		remediations: remediations,
		vendors:      vendors,
		templates:    templates,
		responses:    responses,
		recorder:     recorder,
		scorer:       scorer,
		rescorer:     rescorer,
	}
}

// auditEvent builds the audit event for an actor's action on an object.
func auditEvent(actor authz.Actor, action, objectType, objectID string, metadata map[string]interface{}) audit.Event {
	return audit.Event{
		UserID:         actor.ID,
		OrganizationID: actor.OrgID,
		Action:         action,
		ObjectType:     objectType,
		ObjectID:       objectID,
		Metadata:       metadata,
	}
}
