// vendor_repository.go implements VendorRepository. Every query is scoped by
// org id: a vendor belonging to another tenant is indistinguishable from one
// that does not exist.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vendorguard/vendorguard/internal/db/models"
)

// VendorRepository handles database operations for vendors
type VendorRepository struct {
	db *sql.DB
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// VendorFilters contains optional filters for listing vendors
type VendorFilters struct {
	Status *string
	Tier   *int
	Search *string // matches name or contact email, case-insensitive
}

const vendorColumns = `id, org_id, name, contact_email, tier, status, created_at, updated_at`

// GetByID retrieves a vendor by ID within the given org. Returns (nil, nil) when absent.
func (r *VendorRepository) GetByID(ctx context.Context, orgID, id string) (*models.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE org_id = $1 AND id = $2`

	v := &models.Vendor{}
	err := r.db.QueryRowContext(ctx, query, orgID, id).Scan(
		&v.ID, &v.OrgID, &v.Name, &v.ContactEmail, &v.Tier, &v.Status, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}

	return v, nil
}

// Create creates a new vendor in the given org
func (r *VendorRepository) Create(ctx context.Context, v *models.Vendor) error {
	query := `
		INSERT INTO vendors (org_id, name, contact_email, tier, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		v.OrgID, v.Name, v.ContactEmail, v.Tier, v.Status,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	return nil
}

// Update updates a vendor's mutable attributes (name, contact email, tier)
func (r *VendorRepository) Update(ctx context.Context, v *models.Vendor) error {
	query := `
		UPDATE vendors
		SET name = $3, contact_email = $4, tier = $5, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`

	res, err := r.db.ExecContext(ctx, query, v.OrgID, v.ID, v.Name, v.ContactEmail, v.Tier)
	if err != nil {
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// UpdateStatusCAS atomically moves the vendor status from expected to target.
// It returns false when the row was not in the expected status, which means a
// concurrent request won the transition.
func (r *VendorRepository) UpdateStatusCAS(ctx context.Context, orgID, id string, expected, target models.VendorStatus) (bool, error) {
	query := `
		UPDATE vendors
		SET status = $4, updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = $3
	`

	res, err := r.db.ExecContext(ctx, query, orgID, id, expected, target)
	if err != nil {
		return false, fmt.Errorf("failed to update vendor status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n == 1, nil
}

// List retrieves vendors in the org matching the given filters, with pagination
func (r *VendorRepository) List(ctx context.Context, orgID string, filters VendorFilters, limit, offset int) ([]*models.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE org_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if filters.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}
	if filters.Tier != nil {
		query += fmt.Sprintf(` AND tier = $%d`, paramIndex)
		args = append(args, *filters.Tier)
		paramIndex++
	}
	if filters.Search != nil {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR contact_email ILIKE $%d)`, paramIndex, paramIndex)
		args = append(args, "%"+*filters.Search+"%")
		paramIndex++
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	vendors := make([]*models.Vendor, 0)
	for rows.Next() {
		v := &models.Vendor{}
		if err := rows.Scan(&v.ID, &v.OrgID, &v.Name, &v.ContactEmail, &v.Tier, &v.Status, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}

	return vendors, rows.Err()
}
