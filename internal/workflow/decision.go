package workflow

import (
	"context"
	"strings"

	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

// CreateReviewInput carries the request to open a review on an assessment.
type CreateReviewInput struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
	Comments     string `json:"comments"`
}

// CreateReview opens a pending review on an assessment.
func (s *Service) CreateReview(ctx context.Context, actor authz.Actor, in CreateReviewInput) (*models.Review, error) {
	if err := authz.Authorize(actor, authz.ActionCreateReview, authz.Resource{Type: "review", OrgID: actor.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	a, err := s.assessments.GetByID(ctx, actor.OrgID, in.AssessmentID)
	if err != nil {
		return nil, Internalf(err, "failed to load assessment")
	}
	if a == nil {
		return nil, NotFoundf("Assessment not found")
	}

	review := &models.Review{
		OrgID:        actor.OrgID,
		AssessmentID: a.ID,
		ReviewerID:   actor.ID,
		Comments:     in.Comments,
		Decision:     models.ReviewDecisionPending,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, Internalf(err, "failed to create review")
	}

	s.recorder.Record(ctx, auditEvent(actor, "create_review", "review", review.ID, map[string]interface{}{
		"assessment_id": review.AssessmentID,
	}))

	return review, nil
}

// GetReview loads one review scoped to the actor's org.
func (s *Service) GetReview(ctx context.Context, actor authz.Actor, id string) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load review")
	}
	if review == nil {
		return nil, NotFoundf("Review not found")
	}
	return review, nil
}

// ListReviews lists reviews in the actor's org, optionally filtered by assessment.
func (s *Service) ListReviews(ctx context.Context, actor authz.Actor, assessmentID *string, limit, offset int) ([]*models.Review, error) {
	list, err := s.reviews.List(ctx, actor.OrgID, assessmentID, limit, offset)
	if err != nil {
		return nil, Internalf(err, "failed to list reviews")
	}
	return list, nil
}

// NormalizeDecision maps a raw decision string onto the canonical verdicts.
// Matching is case-insensitive; approve, accepted, and accept normalize to
// approved; decline and deny normalize to rejected. Anything else is invalid.
func NormalizeDecision(raw string) (models.ReviewDecision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "approve", "accepted", "accept":
		return models.ReviewDecisionApproved, nil
	case "rejected", "decline", "deny":
		return models.ReviewDecisionRejected, nil
	}
	return "", Validationf("Invalid decision '%s'. Allowed values: approved, rejected", raw)
}

// Decide renders a one-shot verdict on a review. The id may be a review id or,
// as a convenience for callers that only know the assessment, an assessment id
// whose pending review is resolved in a second lookup.
//
// An approval is gated on the assessment's remediation state and on a
// synchronous scoring call: any scoring failure aborts the whole decision,
// leaving the review pending and the score unset, and records exactly one
// scoring_failed audit entry. On success the score, the decision, and two
// audit entries commit in a single transaction.
func (s *Service) Decide(ctx context.Context, actor authz.Actor, id, rawDecision string) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load review")
	}
	if review == nil {
		review, err = s.reviews.GetPendingByAssessment(ctx, actor.OrgID, id)
		if err != nil {
			return nil, Internalf(err, "failed to load review by assessment")
		}
	}
	if review == nil {
		return nil, NotFoundf("Review not found")
	}

	decision, err := NormalizeDecision(rawDecision)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.ActionDecideReview, authz.Resource{Type: "review", ID: review.ID, OrgID: review.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	// One-shot guarantee: retries of an already-decided review are conflicts,
	// never silent successes.
	if review.Decided() {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("review").Inc()
		return nil, Conflictf("Review already decided")
	}

	var result *scoringOutcome
	if decision == models.ReviewDecisionApproved {
		unresolved, err := s.remediations.HasUnresolvedByAssessment(ctx, actor.OrgID, review.AssessmentID)
		if err != nil {
			return nil, Internalf(err, "failed to check remediations")
		}
		if unresolved {
			return nil, Conflictf("Remediation pending. Cannot approve review.")
		}

		score, err := s.scorer.Score(ctx, review.AssessmentID)
		if err != nil {
			// The decision is aborted whole; the only persisted trace is the
			// scoring_failed audit entry.
			s.recorder.Record(ctx, auditEvent(actor, "scoring_failed", "assessment", review.AssessmentID, map[string]interface{}{
				"review_id": review.ID,
				"error":     err.Error(),
			}))
			return nil, Upstreamf(err, "Scoring service unavailable")
		}
		result = &scoringOutcome{score: score.Score, riskLevel: string(score.RiskLevel)}
	}

	tx, err := s.assessments.BeginTx(ctx)
	if err != nil {
		return nil, Internalf(err, "failed to begin decision transaction")
	}
	defer tx.Rollback()

	if result != nil {
		if err := s.assessments.SetScoreTx(ctx, tx, actor.OrgID, review.AssessmentID, result.score, result.riskLevel); err != nil {
			return nil, Internalf(err, "failed to persist score")
		}
	}

	applied, err := s.reviews.DecideTx(ctx, tx, actor.OrgID, review.ID, decision)
	if err != nil {
		return nil, Internalf(err, "failed to commit decision")
	}
	if !applied {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("review").Inc()
		return nil, Conflictf("Review already decided")
	}

	if result != nil {
		if err := s.recorder.RecordTx(ctx, tx, auditEvent(actor, "trigger_scoring", "assessment", review.AssessmentID, map[string]interface{}{
			"review_id":  review.ID,
			"score":      result.score,
			"risk_level": result.riskLevel,
		})); err != nil {
			return nil, Internalf(err, "failed to record scoring audit entry")
		}
	}

	if err := s.recorder.RecordTx(ctx, tx, auditEvent(actor, "make_review_decision", "review", review.ID, map[string]interface{}{
		"assessment_id":     review.AssessmentID,
		"previous_decision": string(models.ReviewDecisionPending),
		"new_decision":      string(decision),
	})); err != nil {
		return nil, Internalf(err, "failed to record decision audit entry")
	}

	if err := tx.Commit(); err != nil {
		return nil, Internalf(err, "failed to commit decision transaction")
	}

	review.Decision = decision
	telemetry.WorkflowTransitionsTotal.WithLabelValues("review", string(models.ReviewDecisionPending), string(decision)).Inc()
	return review, nil
}

type scoringOutcome struct {
	score     float64
	riskLevel string
}
