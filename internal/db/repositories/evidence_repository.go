// evidence_repository.go implements EvidenceRepository over sqlx for evidence
// file metadata. The blobs themselves live in the storage backend.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vendorguard/vendorguard/internal/db/models"
)

// EvidenceRepository handles database operations for evidence records
type EvidenceRepository struct {
	db *sqlx.DB
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(db *sqlx.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

const evidenceColumns = `id, org_id, assessment_id, uploaded_by, file_name, storage_path, checksum, size_bytes, created_at`

// GetByID retrieves an evidence record within the given org. Returns (nil, nil) when absent.
func (r *EvidenceRepository) GetByID(ctx context.Context, orgID, id string) (*models.Evidence, error) {
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE org_id = $1 AND id = $2`

	ev := &models.Evidence{}
	err := r.db.GetContext(ctx, ev, query, orgID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evidence: %w", err)
	}

	return ev, nil
}

// Create creates a new evidence record
func (r *EvidenceRepository) Create(ctx context.Context, ev *models.Evidence) error {
	query := `
		INSERT INTO evidence (org_id, assessment_id, uploaded_by, file_name, storage_path, checksum, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		ev.OrgID, ev.AssessmentID, ev.UploadedBy, ev.FileName, ev.StoragePath, ev.Checksum, ev.SizeBytes,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evidence: %w", err)
	}

	return nil
}

// ListByAssessment retrieves all evidence records for an assessment
func (r *EvidenceRepository) ListByAssessment(ctx context.Context, orgID, assessmentID string) ([]*models.Evidence, error) {
	query := `
		SELECT ` + evidenceColumns + `
		FROM evidence
		WHERE org_id = $1 AND assessment_id = $2
		ORDER BY created_at DESC
	`

	evs := make([]*models.Evidence, 0)
	if err := r.db.SelectContext(ctx, &evs, query, orgID, assessmentID); err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}

	return evs, nil
}
