// audit_repository.go implements AuditRepository, the append-only store for
// audit entries. There is deliberately no update or delete method: entries are
// immutable once written.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vendorguard/vendorguard/internal/db/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for querying audit logs
type AuditFilters struct {
	UserID         *string
	OrganizationID *string
	Action         *string
	ObjectID       *string
	StartDate      *time.Time
	EndDate        *time.Time
}

const auditInsert = `
	INSERT INTO audit_logs (id, user_id, organization_id, action, object_type, object_id, metadata, ip_address, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func auditArgs(entry *models.AuditLog) ([]interface{}, error) {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
	}

	return []interface{}{
		entry.ID,
		entry.UserID,
		entry.OrganizationID,
		entry.Action,
		entry.ObjectType,
		entry.ObjectID,
		metadataJSON,
		entry.IPAddress,
		entry.CreatedAt,
	}, nil
}

// Create appends a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	args, err := auditArgs(entry)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, auditInsert, args...); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// CreateTx appends a new audit log entry inside the caller's transaction, so
// the entry becomes durable together with the state change it records.
func (r *AuditRepository) CreateTx(ctx context.Context, tx *sql.Tx, entry *models.AuditLog) error {
	args, err := auditArgs(entry)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, auditInsert, args...); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

const auditSelect = `
	SELECT id, user_id, organization_id, action, object_type, object_id, metadata, ip_address, created_at
	FROM audit_logs
`

func scanAuditRows(rows *sql.Rows) ([]*models.AuditLog, error) {
	entries := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry := &models.AuditLog{}
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.OrganizationID,
			&entry.Action,
			&entry.ObjectType,
			&entry.ObjectID,
			&metadataJSON,
			&entry.IPAddress,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListByObject retrieves the audit trail for a single object in append order.
func (r *AuditRepository) ListByObject(ctx context.Context, orgID, objectID string) ([]*models.AuditLog, error) {
	query := auditSelect + ` WHERE organization_id = $1 AND object_id = $2 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, orgID, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

// List retrieves audit logs with optional filters and pagination
func (r *AuditRepository) List(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	query := auditSelect + ` WHERE 1=1`

	args := make([]interface{}, 0)
	paramIndex := 1

	addFilter := func(clause string, value interface{}) {
		countQuery += fmt.Sprintf(clause, paramIndex)
		query += fmt.Sprintf(clause, paramIndex)
		args = append(args, value)
		paramIndex++
	}

	if filters.UserID != nil {
		addFilter(` AND user_id = $%d`, *filters.UserID)
	}
	if filters.OrganizationID != nil {
		addFilter(` AND organization_id = $%d`, *filters.OrganizationID)
	}
	if filters.Action != nil {
		addFilter(` AND action = $%d`, *filters.Action)
	}
	if filters.ObjectID != nil {
		addFilter(` AND object_id = $%d`, *filters.ObjectID)
	}
	if filters.StartDate != nil {
		addFilter(` AND created_at >= $%d`, *filters.StartDate)
	}
	if filters.EndDate != nil {
		addFilter(` AND created_at <= $%d`, *filters.EndDate)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// ActivityEntry is one line of the dashboard activity feed: who did what to
// which kind of object, when. Actor is the user's email, or empty when the
// user has since been deleted.
type ActivityEntry struct {
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	ObjectType string    `json:"object_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListRecent retrieves the newest audit entries for the org, joined with the
// acting user, for the dashboard activity feed.
func (r *AuditRepository) ListRecent(ctx context.Context, orgID string, limit int) ([]*ActivityEntry, error) {
	query := `
		SELECT COALESCE(u.email, ''), a.action, COALESCE(a.object_type, ''), a.created_at
		FROM audit_logs a
		LEFT JOIN users u ON a.user_id = u.id
		WHERE a.organization_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}
	defer rows.Close()

	feed := make([]*ActivityEntry, 0)
	for rows.Next() {
		entry := &ActivityEntry{}
		if err := rows.Scan(&entry.Actor, &entry.Action, &entry.ObjectType, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		feed = append(feed, entry)
	}

	return feed, rows.Err()
}
