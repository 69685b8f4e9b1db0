// template_repository.go implements TemplateRepository for questionnaire templates.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vendorguard/vendorguard/internal/db/models"
)

// TemplateRepository handles database operations for assessment templates
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, org_id, name, description, version, created_at, updated_at`

// GetByID retrieves a template by ID within the given org. Returns (nil, nil) when absent.
func (r *TemplateRepository) GetByID(ctx context.Context, orgID, id string) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE org_id = $1 AND id = $2`

	t := &models.Template{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(
		&t.ID, &t.OrgID, &t.Name, &t.Description, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return t, nil
}

// Create creates a new template
func (r *TemplateRepository) Create(ctx context.Context, t *models.Template) error {
	query := `
		INSERT INTO templates (org_id, name, description, version)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		t.OrgID, t.Name, t.Description, t.Version,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// Update updates a template's name, description, and version
func (r *TemplateRepository) Update(ctx context.Context, t *models.Template) error {
	query := `
		UPDATE templates
		SET name = $3, description = $4, version = $5, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`

	res, err := r.db.ExecContext(ctx, query, t.OrgID, t.ID, t.Name, t.Description, t.Version)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete removes a template. The database rejects deletion of a template still
// referenced by an assessment (RESTRICT).
func (r *TemplateRepository) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// List retrieves templates in the org with pagination
func (r *TemplateRepository) List(ctx context.Context, orgID string, limit, offset int) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE org_id = $1 ORDER BY name LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*models.Template, 0)
	for rows.Next() {
		t := &models.Template{}
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Description, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}
