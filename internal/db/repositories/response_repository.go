// response_repository.go implements ResponseRepository over sqlx for
// questionnaire answers. Submission is a submitted-conditioned UPDATE so a
// re-submit race cannot freeze the same response twice.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vendorguard/vendorguard/internal/db/models"
)

// ResponseRepository handles database operations for questionnaire responses
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository creates a new response repository
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

const responseColumns = `id, org_id, assessment_id, question_id, answer_text, submitted, created_at, updated_at`

// GetByID retrieves a response within the given org. Returns (nil, nil) when absent.
func (r *ResponseRepository) GetByID(ctx context.Context, orgID, id string) (*models.Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE org_id = $1 AND id = $2`

	resp := &models.Response{}
	err := r.db.GetContext(ctx, resp, query, orgID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	return resp, nil
}

// Create creates a new draft response
func (r *ResponseRepository) Create(ctx context.Context, resp *models.Response) error {
	query := `
		INSERT INTO responses (org_id, assessment_id, question_id, answer_text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submitted, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		resp.OrgID, resp.AssessmentID, resp.QuestionID, resp.AnswerText,
	).Scan(&resp.ID, &resp.Submitted, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}

	return nil
}

// UpdateAnswer replaces the answer text of a draft. Returns false when the
// response is already submitted (drafts only are editable).
func (r *ResponseRepository) UpdateAnswer(ctx context.Context, orgID, id, answerText string) (bool, error) {
	query := `
		UPDATE responses
		SET answer_text = $3, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND submitted = FALSE
	`

	res, err := r.db.ExecContext(ctx, query, orgID, id, answerText)
	if err != nil {
		return false, fmt.Errorf("failed to update response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n == 1, nil
}

// Submit atomically freezes a draft response. Returns false when the response
// was already submitted.
func (r *ResponseRepository) Submit(ctx context.Context, orgID, id string) (bool, error) {
	query := `
		UPDATE responses
		SET submitted = TRUE, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND submitted = FALSE
	`

	res, err := r.db.ExecContext(ctx, query, orgID, id)
	if err != nil {
		return false, fmt.Errorf("failed to submit response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n == 1, nil
}

// ListByAssessment retrieves all responses for an assessment in question order
func (r *ResponseRepository) ListByAssessment(ctx context.Context, orgID, assessmentID string) ([]*models.Response, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM responses
		WHERE org_id = $1 AND assessment_id = $2
		ORDER BY question_id
	`

	resps := make([]*models.Response, 0)
	if err := r.db.SelectContext(ctx, &resps, query, orgID, assessmentID); err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	return resps, nil
}
