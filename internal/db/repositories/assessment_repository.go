// assessment_repository.go implements AssessmentRepository. Status changes go
// through UpdateStatusCAS, a status-conditioned UPDATE, so two concurrent
// requests can never both succeed on a transition from the same source state.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vendorguard/vendorguard/internal/db/models"
)

// AssessmentRepository handles database operations for assessments
type AssessmentRepository struct {
	db *sql.DB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `id, org_id, vendor_id, template_id, status, score, risk_level, created_at, updated_at`

func scanAssessment(scan func(dest ...interface{}) error) (*models.Assessment, error) {
	a := &models.Assessment{}
	err := scan(&a.ID, &a.OrgID, &a.VendorID, &a.TemplateID, &a.Status, &a.Score, &a.RiskLevel, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

// GetByID retrieves an assessment by ID within the given org. Returns (nil, nil) when absent.
func (r *AssessmentRepository) GetByID(ctx context.Context, orgID, id string) (*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE org_id = $1 AND id = $2`
	return scanAssessment(r.db.QueryRowContext(ctx, query, orgID, id).Scan)
}

// GetStatus re-reads only the current persisted status. The state machine calls
// this immediately before mutating to guard against a stale in-memory copy.
func (r *AssessmentRepository) GetStatus(ctx context.Context, orgID, id string) (models.AssessmentStatus, error) {
	var status models.AssessmentStatus
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM assessments WHERE org_id = $1 AND id = $2`, orgID, id,
	).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", sql.ErrNoRows
		}
		return "", fmt.Errorf("failed to get assessment status: %w", err)
	}
	return status, nil
}

// Create creates a new assessment in status "assigned"
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	query := `
		INSERT INTO assessments (org_id, vendor_id, template_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.OrgID, a.VendorID, a.TemplateID, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// UpdateStatusCAS atomically advances the assessment status from expected to
// target. Returns false when the row was no longer in the expected status: a
// concurrent transition won, and the caller must re-read and re-validate.
func (r *AssessmentRepository) UpdateStatusCAS(ctx context.Context, orgID, id string, expected, target models.AssessmentStatus) (bool, error) {
	query := `
		UPDATE assessments
		SET status = $4, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = $3
	`

	res, err := r.db.ExecContext(ctx, query, orgID, id, expected, target)
	if err != nil {
		return false, fmt.Errorf("failed to update assessment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n == 1, nil
}

// SetScoreTx persists the scoring result onto the assessment inside the
// caller's transaction, so the score and the review decision commit together.
func (r *AssessmentRepository) SetScoreTx(ctx context.Context, tx *sql.Tx, orgID, id string, score float64, riskLevel string) error {
	query := `
		UPDATE assessments
		SET score = $3, risk_level = $4, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`

	res, err := tx.ExecContext(ctx, query, orgID, id, score, riskLevel)
	if err != nil {
		return fmt.Errorf("failed to set assessment score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// UpdateScore persists a scoring result outside any transaction. Used by the
// best-effort rescore path after remediation closure.
func (r *AssessmentRepository) UpdateScore(ctx context.Context, orgID, id string, score float64, riskLevel string) error {
	query := `
		UPDATE assessments
		SET score = $3, risk_level = $4, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`

	res, err := r.db.ExecContext(ctx, query, orgID, id, score, riskLevel)
	if err != nil {
		return fmt.Errorf("failed to update assessment score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// List retrieves assessments in the org, optionally filtered by vendor, with pagination
func (r *AssessmentRepository) List(ctx context.Context, orgID string, vendorID *string, limit, offset int) ([]*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE org_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if vendorID != nil {
		query += fmt.Sprintf(` AND vendor_id = $%d`, paramIndex)
		args = append(args, *vendorID)
		paramIndex++
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	assessments := make([]*models.Assessment, 0)
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}

	return assessments, rows.Err()
}

// CountByOrg returns the number of assessments in the org.
func (r *AssessmentRepository) CountByOrg(ctx context.Context, orgID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments WHERE org_id = $1`, orgID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// BeginTx starts a database transaction for the multi-write decision sequence.
func (r *AssessmentRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}
