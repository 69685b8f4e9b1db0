// review_repository.go implements ReviewRepository over sqlx. The decision
// column moves from pending exactly once, enforced by a decision-conditioned
// UPDATE executed inside the caller's transaction.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vendorguard/vendorguard/internal/db/models"
)

// ReviewRepository handles database operations for reviews
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, org_id, assessment_id, reviewer_id, comments, decision, created_at, updated_at`

// GetByID retrieves a review by ID within the given org. Returns (nil, nil) when absent.
func (r *ReviewRepository) GetByID(ctx context.Context, orgID, id string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE org_id = $1 AND id = $2`

	review := &models.Review{}
	err := r.db.GetContext(ctx, review, query, orgID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// GetPendingByAssessment retrieves the most recent pending review for an
// assessment. This is the fallback lookup path for callers that only know the
// assessment id. Returns (nil, nil) when no pending review exists.
func (r *ReviewRepository) GetPendingByAssessment(ctx context.Context, orgID, assessmentID string) (*models.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE org_id = $1 AND assessment_id = $2 AND decision = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`

	review := &models.Review{}
	err := r.db.GetContext(ctx, review, query, orgID, assessmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending review: %w", err)
	}

	return review, nil
}

// Create creates a new review in decision "pending"
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (org_id, assessment_id, reviewer_id, comments, decision)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		review.OrgID, review.AssessmentID, review.ReviewerID, review.Comments, review.Decision,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// DecideTx commits the review's decision inside the caller's transaction. The
// WHERE decision = 'pending' clause makes the one-shot guarantee atomic: if a
// concurrent decision already landed, zero rows are affected and false is
// returned.
func (r *ReviewRepository) DecideTx(ctx context.Context, tx *sql.Tx, orgID, id string, target models.ReviewDecision) (bool, error) {
	query := `
		UPDATE reviews
		SET decision = $3, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND decision = 'pending'
	`

	res, err := tx.ExecContext(ctx, query, orgID, id, target)
	if err != nil {
		return false, fmt.Errorf("failed to commit review decision: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n == 1, nil
}

// List retrieves reviews in the org, optionally filtered by assessment, with pagination
func (r *ReviewRepository) List(ctx context.Context, orgID string, assessmentID *string, limit, offset int) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE org_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if assessmentID != nil {
		query += fmt.Sprintf(` AND assessment_id = $%d`, paramIndex)
		args = append(args, *assessmentID)
		paramIndex++
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	reviews := make([]*models.Review, 0)
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// CountByOrg returns the number of reviews in the org.
func (r *ReviewRepository) CountByOrg(ctx context.Context, orgID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reviews WHERE org_id = $1`, orgID); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}
