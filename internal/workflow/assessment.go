package workflow

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

// CreateAssessmentInput carries the request to assign a new assessment.
type CreateAssessmentInput struct {
	VendorID   string `json:"vendor_id" binding:"required"`
	TemplateID string `json:"template_id" binding:"required"`
}

// CreateAssessment assigns a new assessment of a vendor against a template.
// The new assessment starts in status "assigned".
func (s *Service) CreateAssessment(ctx context.Context, actor authz.Actor, in CreateAssessmentInput) (*models.Assessment, error) {
	if actor.OrgID == "" {
		return nil, Validationf("User organization is required to create assessments")
	}
	if err := authz.Authorize(actor, authz.ActionCreateAssessment, authz.Resource{Type: "assessment", OrgID: actor.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	vendor, err := s.vendors.GetByID(ctx, actor.OrgID, in.VendorID)
	if err != nil {
		return nil, Internalf(err, "failed to load vendor")
	}
	if vendor == nil {
		return nil, NotFoundf("Vendor not found")
	}

	template, err := s.templates.GetByID(ctx, actor.OrgID, in.TemplateID)
	if err != nil {
		return nil, Internalf(err, "failed to load template")
	}
	if template == nil {
		return nil, NotFoundf("Template not found")
	}

	a := &models.Assessment{
		OrgID:      actor.OrgID,
		VendorID:   vendor.ID,
		TemplateID: template.ID,
		Status:     models.AssessmentStatusAssigned,
	}
	if err := s.assessments.Create(ctx, a); err != nil {
		return nil, Internalf(err, "failed to create assessment")
	}

	s.recorder.Record(ctx, auditEvent(actor, "create_assessment", "assessment", a.ID, map[string]interface{}{
		"vendor_id":   a.VendorID,
		"template_id": a.TemplateID,
		"status":      string(a.Status),
		"org_id":      a.OrgID,
	}))

	return a, nil
}

// GetAssessment loads one assessment scoped to the actor's org.
func (s *Service) GetAssessment(ctx context.Context, actor authz.Actor, id string) (*models.Assessment, error) {
	a, err := s.assessments.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load assessment")
	}
	if a == nil {
		return nil, NotFoundf("Assessment not found")
	}
	return a, nil
}

// ListAssessments lists assessments in the actor's org, optionally filtered by vendor.
func (s *Service) ListAssessments(ctx context.Context, actor authz.Actor, vendorID *string, limit, offset int) ([]*models.Assessment, error) {
	list, err := s.assessments.List(ctx, actor.OrgID, vendorID, limit, offset)
	if err != nil {
		return nil, Internalf(err, "failed to list assessments")
	}
	return list, nil
}

// transitionAction maps a target status to the permission gating the move.
func transitionAction(target models.AssessmentStatus) (authz.Action, error) {
	switch target {
	case models.AssessmentStatusSubmitted:
		return authz.ActionSubmitAssessment, nil
	case models.AssessmentStatusReviewed:
		return authz.ActionReviewAssessment, nil
	case models.AssessmentStatusApproved:
		return authz.ActionApproveAssessment, nil
	case models.AssessmentStatusAssigned:
		// No edge leads back to assigned; the request is only meaningful as a
		// same-state no-op, gated like a generic update.
		return authz.ActionUpdateAssessment, nil
	}
	return "", Validationf("Unknown assessment status '%s'", target)
}

// Transition advances an assessment to the target status. A same-status
// request succeeds without mutation or audit. The persisted status is re-read
// immediately before the conditional write, and the write itself only applies
// when the row is still in the observed status, so two concurrent requests can
// never both succeed on the same edge.
func (s *Service) Transition(ctx context.Context, actor authz.Actor, id string, target models.AssessmentStatus) (*models.Assessment, error) {
	action, err := transitionAction(target)
	if err != nil {
		return nil, err
	}

	a, err := s.assessments.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load assessment")
	}
	if a == nil {
		return nil, NotFoundf("Assessment not found")
	}

	if err := authz.Authorize(actor, action, authz.Resource{Type: "assessment", ID: a.ID, OrgID: a.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	// Guard against a stale in-memory copy racing a concurrent transition.
	current, err := s.assessments.GetStatus(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundf("Assessment not found")
		}
		return nil, Internalf(err, "failed to re-read assessment status")
	}
	a.Status = current

	if target == a.Status {
		// Idempotent no-op: no mutation, no audit entry.
		return a, nil
	}

	if ok, reason := a.CanTransitionTo(target); !ok {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("assessment").Inc()
		return nil, Conflictf("%s", reason)
	}

	applied, err := s.assessments.UpdateStatusCAS(ctx, actor.OrgID, id, a.Status, target)
	if err != nil {
		return nil, Internalf(err, "failed to update assessment status")
	}
	if !applied {
		// A concurrent transition won the race between the re-read and the write.
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("assessment").Inc()
		fresh, rerr := s.assessments.GetStatus(ctx, actor.OrgID, id)
		if rerr == nil && fresh != a.Status {
			a.Status = fresh
			if ok, reason := a.CanTransitionTo(target); !ok {
				return nil, Conflictf("%s", reason)
			}
		}
		return nil, Conflictf("Assessment status changed concurrently. Re-read and retry.")
	}

	previous := a.Status
	a.Status = target
	telemetry.WorkflowTransitionsTotal.WithLabelValues("assessment", string(previous), string(target)).Inc()

	s.recorder.Record(ctx, auditEvent(actor, string(action), "assessment", a.ID, map[string]interface{}{
		"previous_status": string(previous),
		"new_status":      string(target),
		"org_id":          a.OrgID,
	}))

	return a, nil
}

// Submit moves an assessment from assigned to submitted. Vendor action.
func (s *Service) Submit(ctx context.Context, actor authz.Actor, id string) (*models.Assessment, error) {
	return s.Transition(ctx, actor, id, models.AssessmentStatusSubmitted)
}

// MarkReviewed moves an assessment from submitted to reviewed. Reviewer action.
func (s *Service) MarkReviewed(ctx context.Context, actor authz.Actor, id string) (*models.Assessment, error) {
	return s.Transition(ctx, actor, id, models.AssessmentStatusReviewed)
}

// Approve moves an assessment from reviewed to approved. Admin or reviewer action.
func (s *Service) Approve(ctx context.Context, actor authz.Actor, id string) (*models.Assessment, error) {
	return s.Transition(ctx, actor, id, models.AssessmentStatusApproved)
}

