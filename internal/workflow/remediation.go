package workflow

import (
	"context"
	"log/slog"

	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

// CreateRemediationInput carries the request to raise a remediation against an
// assessment.
type CreateRemediationInput struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
	Issue        string `json:"issue" binding:"required"`
}

// CreateRemediation raises a corrective-action record in status "open".
func (s *Service) CreateRemediation(ctx context.Context, actor authz.Actor, in CreateRemediationInput) (*models.Remediation, error) {
	if err := authz.Authorize(actor, authz.ActionCreateRemediation, authz.Resource{Type: "remediation", OrgID: actor.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	a, err := s.assessments.GetByID(ctx, actor.OrgID, in.AssessmentID)
	if err != nil {
		return nil, Internalf(err, "failed to load assessment")
	}
	if a == nil {
		return nil, NotFoundf("Assessment not found")
	}

	rem := &models.Remediation{
		OrgID:        actor.OrgID,
		AssessmentID: a.ID,
		Issue:        in.Issue,
		Status:       models.RemediationStatusOpen,
	}
	if err := s.remediations.Create(ctx, rem); err != nil {
		return nil, Internalf(err, "failed to create remediation")
	}

	s.recorder.Record(ctx, auditEvent(actor, "remediation_created", "remediation", rem.ID, map[string]interface{}{
		"assessment_id": rem.AssessmentID,
	}))

	return rem, nil
}

// GetRemediation loads one remediation scoped to the actor's org.
func (s *Service) GetRemediation(ctx context.Context, actor authz.Actor, id string) (*models.Remediation, error) {
	rem, err := s.remediations.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load remediation")
	}
	if rem == nil {
		return nil, NotFoundf("Remediation not found")
	}
	return rem, nil
}

// ListRemediations lists remediations in the actor's org, optionally filtered
// by assessment.
func (s *Service) ListRemediations(ctx context.Context, actor authz.Actor, assessmentID *string, limit, offset int) ([]*models.Remediation, error) {
	list, err := s.remediations.List(ctx, actor.OrgID, assessmentID, limit, offset)
	if err != nil {
		return nil, Internalf(err, "failed to list remediations")
	}
	return list, nil
}

// Respond records the vendor's response and moves the remediation from open to
// responded. Vendor action; any other current status is a conflict.
func (s *Service) Respond(ctx context.Context, actor authz.Actor, id, response string) (*models.Remediation, error) {
	rem, err := s.remediations.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load remediation")
	}
	if rem == nil {
		return nil, NotFoundf("Remediation not found")
	}

	if err := authz.Authorize(actor, authz.ActionRespondRemediation, authz.Resource{Type: "remediation", ID: rem.ID, OrgID: rem.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	applied, err := s.remediations.Respond(ctx, actor.OrgID, rem.ID, response)
	if err != nil {
		return nil, Internalf(err, "failed to update remediation")
	}
	if !applied {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("remediation").Inc()
		if fresh, rerr := s.remediations.GetByID(ctx, actor.OrgID, rem.ID); rerr == nil && fresh != nil {
			rem = fresh
		}
		return nil, Conflictf("Cannot respond to remediation in status '%s'. Responding requires status 'open'.", rem.Status)
	}

	rem.VendorResponse = response
	rem.Status = models.RemediationStatusResponded
	telemetry.WorkflowTransitionsTotal.WithLabelValues("remediation", "open", "responded").Inc()

	s.recorder.Record(ctx, auditEvent(actor, "remediation_responded", "remediation", rem.ID, map[string]interface{}{
		"assessment_id": rem.AssessmentID,
	}))

	return rem, nil
}

// CloseRemediation moves the remediation from responded to closed. Reviewer or
// admin action. Closure fires a best-effort rescore of the linked assessment:
// a rescore failure is logged, never surfaced to the closing caller.
func (s *Service) CloseRemediation(ctx context.Context, actor authz.Actor, id string) (*models.Remediation, error) {
	rem, err := s.remediations.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load remediation")
	}
	if rem == nil {
		return nil, NotFoundf("Remediation not found")
	}

	if err := authz.Authorize(actor, authz.ActionCloseRemediation, authz.Resource{Type: "remediation", ID: rem.ID, OrgID: rem.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	applied, err := s.remediations.Close(ctx, actor.OrgID, rem.ID)
	if err != nil {
		return nil, Internalf(err, "failed to update remediation")
	}
	if !applied {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("remediation").Inc()
		if fresh, rerr := s.remediations.GetByID(ctx, actor.OrgID, rem.ID); rerr == nil && fresh != nil {
			rem = fresh
		}
		return nil, Conflictf("Cannot close remediation in status '%s'. Closing requires status 'responded'.", rem.Status)
	}

	rem.Status = models.RemediationStatusClosed
	telemetry.WorkflowTransitionsTotal.WithLabelValues("remediation", "responded", "closed").Inc()

	if s.rescorer != nil {
		s.rescorer.Enqueue(actor.OrgID, rem.AssessmentID)
	} else {
		slog.Debug("no rescorer configured, skipping advisory rescore", "assessment_id", rem.AssessmentID)
	}

	s.recorder.Record(ctx, auditEvent(actor, "remediation_closed", "remediation", rem.ID, map[string]interface{}{
		"assessment_id": rem.AssessmentID,
	}))

	return rem, nil
}
