// response.go implements the questionnaire response operations. A response is
// one answer to one question on an assessment: it is saved and edited as a
// draft by the vendor, then frozen by an explicit submit. Submit is one-shot;
// re-submitting an already-submitted response is a conflict, mirroring the
// review decision's one-shot guarantee rather than the assessment machine's
// idempotent no-op.
package workflow

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

// SaveResponseInput carries a new draft answer for one question.
type SaveResponseInput struct {
	QuestionID string `json:"question_id" binding:"required"`
	AnswerText string `json:"answer_text"`
}

// UpdateResponseInput carries an edited draft answer.
type UpdateResponseInput struct {
	AnswerText string `json:"answer_text"`
}

// SaveResponse creates a draft response on an assessment.
func (s *Service) SaveResponse(ctx context.Context, actor authz.Actor, assessmentID string, in SaveResponseInput) (*models.Response, error) {
	if err := authz.Authorize(actor, authz.ActionSaveResponse, authz.Resource{Type: "response", OrgID: actor.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	if _, err := uuid.Parse(strings.TrimSpace(in.QuestionID)); err != nil {
		return nil, Validationf("Question id must be a valid UUID")
	}

	a, err := s.assessments.GetByID(ctx, actor.OrgID, assessmentID)
	if err != nil {
		return nil, Internalf(err, "failed to load assessment")
	}
	if a == nil {
		return nil, NotFoundf("Assessment not found")
	}

	resp := &models.Response{
		OrgID:        actor.OrgID,
		AssessmentID: a.ID,
		QuestionID:   strings.TrimSpace(in.QuestionID),
		AnswerText:   in.AnswerText,
	}
	if err := s.responses.Create(ctx, resp); err != nil {
		if isUniqueViolation(err) {
			return nil, Conflictf("A response for this question already exists")
		}
		return nil, Internalf(err, "failed to create response")
	}

	s.recorder.Record(ctx, auditEvent(actor, "create_response", "response", resp.ID, map[string]interface{}{
		"assessment_id": resp.AssessmentID,
		"question_id":   resp.QuestionID,
	}))

	return resp, nil
}

// GetResponse loads one response scoped to the actor's org.
func (s *Service) GetResponse(ctx context.Context, actor authz.Actor, id string) (*models.Response, error) {
	resp, err := s.responses.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load response")
	}
	if resp == nil {
		return nil, NotFoundf("Response not found")
	}
	return resp, nil
}

// ListResponses lists the answers recorded for an assessment.
func (s *Service) ListResponses(ctx context.Context, actor authz.Actor, assessmentID string) ([]*models.Response, error) {
	a, err := s.assessments.GetByID(ctx, actor.OrgID, assessmentID)
	if err != nil {
		return nil, Internalf(err, "failed to load assessment")
	}
	if a == nil {
		return nil, NotFoundf("Assessment not found")
	}

	list, err := s.responses.ListByAssessment(ctx, actor.OrgID, a.ID)
	if err != nil {
		return nil, Internalf(err, "failed to list responses")
	}
	return list, nil
}

// UpdateResponse edits a draft answer. A submitted response is frozen.
func (s *Service) UpdateResponse(ctx context.Context, actor authz.Actor, id string, in UpdateResponseInput) (*models.Response, error) {
	resp, err := s.responses.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load response")
	}
	if resp == nil {
		return nil, NotFoundf("Response not found")
	}

	if err := authz.Authorize(actor, authz.ActionSaveResponse, authz.Resource{Type: "response", ID: resp.ID, OrgID: resp.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	applied, err := s.responses.UpdateAnswer(ctx, actor.OrgID, resp.ID, in.AnswerText)
	if err != nil {
		return nil, Internalf(err, "failed to update response")
	}
	if !applied {
		return nil, Conflictf("Response already submitted")
	}
	resp.AnswerText = in.AnswerText

	s.recorder.Record(ctx, auditEvent(actor, "update_response", "response", resp.ID, map[string]interface{}{
		"assessment_id": resp.AssessmentID,
		"question_id":   resp.QuestionID,
	}))

	return resp, nil
}

// SubmitResponse freezes a draft answer. Submission is one-shot: a second
// submit of the same response is a conflict.
func (s *Service) SubmitResponse(ctx context.Context, actor authz.Actor, id string) (*models.Response, error) {
	resp, err := s.responses.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load response")
	}
	if resp == nil {
		return nil, NotFoundf("Response not found")
	}

	if err := authz.Authorize(actor, authz.ActionSubmitResponse, authz.Resource{Type: "response", ID: resp.ID, OrgID: resp.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	if resp.Submitted {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("response").Inc()
		return nil, Conflictf("Response already submitted")
	}

	applied, err := s.responses.Submit(ctx, actor.OrgID, resp.ID)
	if err != nil {
		return nil, Internalf(err, "failed to submit response")
	}
	if !applied {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("response").Inc()
		return nil, Conflictf("Response already submitted")
	}
	resp.Submitted = true

	s.recorder.Record(ctx, auditEvent(actor, "submit_response", "response", resp.ID, map[string]interface{}{
		"assessment_id": resp.AssessmentID,
		"question_id":   resp.QuestionID,
	}))
	telemetry.WorkflowTransitionsTotal.WithLabelValues("response", "draft", "submitted").Inc()

	return resp, nil
}
