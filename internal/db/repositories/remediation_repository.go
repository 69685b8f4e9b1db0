// remediation_repository.go implements RemediationRepository over sqlx. Status
// moves through status-conditioned UPDATEs so concurrent respond/close requests
// cannot both succeed from the same source state.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vendorguard/vendorguard/internal/db/models"
)

// RemediationRepository handles database operations for remediations
type RemediationRepository struct {
	db *sqlx.DB
}

// NewRemediationRepository creates a new remediation repository
func NewRemediationRepository(db *sqlx.DB) *RemediationRepository {
	return &RemediationRepository{db: db}
}

const remediationColumns = `id, org_id, assessment_id, issue, vendor_response, status, created_at, updated_at`

// GetByID retrieves a remediation by ID within the given org. Returns (nil, nil) when absent.
func (r *RemediationRepository) GetByID(ctx context.Context, orgID, id string) (*models.Remediation, error) {
	query := `SELECT ` + remediationColumns + ` FROM remediations WHERE org_id = $1 AND id = $2`

	rem := &models.Remediation{}
	err := r.db.GetContext(ctx, rem, query, orgID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get remediation: %w", err)
	}

	return rem, nil
}

// HasUnresolvedByAssessment reports whether the assessment has any remediation
// that is not yet closed. An assessment can accumulate several remediations;
// approval is gated on all of them being closed, so this is an existence check
// rather than a latest-row lookup.
func (r *RemediationRepository) HasUnresolvedByAssessment(ctx context.Context, orgID, assessmentID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM remediations
			WHERE org_id = $1 AND assessment_id = $2 AND status <> 'closed'
		)
	`

	var unresolved bool
	if err := r.db.GetContext(ctx, &unresolved, query, orgID, assessmentID); err != nil {
		return false, fmt.Errorf("failed to check remediations for assessment: %w", err)
	}

	return unresolved, nil
}

// Create creates a new remediation in status "open"
func (r *RemediationRepository) Create(ctx context.Context, rem *models.Remediation) error {
	query := `
		INSERT INTO remediations (org_id, assessment_id, issue, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		rem.OrgID, rem.AssessmentID, rem.Issue, rem.Status,
	).Scan(&rem.ID, &rem.CreatedAt, &rem.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create remediation: %w", err)
	}

	return nil
}

// Respond atomically moves an open remediation to responded and records the
// vendor's response text. Returns false when the remediation was not open.
func (r *RemediationRepository) Respond(ctx context.Context, orgID, id, response string) (bool, error) {
	query := `
		UPDATE remediations
		SET status = 'responded', vendor_response = $3, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = 'open'
	`

	res, err := r.db.ExecContext(ctx, query, orgID, id, response)
	if err != nil {
		return false, fmt.Errorf("failed to record remediation response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n == 1, nil
}

// Close atomically moves a responded remediation to closed. Returns false when
// the remediation was not in responded status.
func (r *RemediationRepository) Close(ctx context.Context, orgID, id string) (bool, error) {
	query := `
		UPDATE remediations
		SET status = 'closed', updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = 'responded'
	`

	res, err := r.db.ExecContext(ctx, query, orgID, id)
	if err != nil {
		return false, fmt.Errorf("failed to close remediation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n == 1, nil
}

// List retrieves remediations in the org, optionally filtered by assessment, with pagination
func (r *RemediationRepository) List(ctx context.Context, orgID string, assessmentID *string, limit, offset int) ([]*models.Remediation, error) {
	query := `SELECT ` + remediationColumns + ` FROM remediations WHERE org_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if assessmentID != nil {
		query += fmt.Sprintf(` AND assessment_id = $%d`, paramIndex)
		args = append(args, *assessmentID)
		paramIndex++
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rems := make([]*models.Remediation, 0)
	if err := r.db.SelectContext(ctx, &rems, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list remediations: %w", err)
	}

	return rems, nil
}

// CountByOrg returns the number of remediations in the org.
func (r *RemediationRepository) CountByOrg(ctx context.Context, orgID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM remediations WHERE org_id = $1`, orgID); err != nil {
		return 0, fmt.Errorf("failed to count remediations: %w", err)
	}
	return count, nil
}
