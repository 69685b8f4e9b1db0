package audit

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/safego"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

// Event describes a single auditable action. OrganizationID may be empty when
// the caller has no organization context; the entry is still recorded.
type Event struct {
	UserID         string
	OrganizationID string
	Action         string
	ObjectType     string
	ObjectID       string
	IPAddress      string
	Metadata       map[string]interface{}
}

// Recorder persists audit trail entries and optionally ships them to external
// destinations. Recording is fire-and-forget from the caller's perspective:
// a failed write is logged but never surfaces as an error to the action that
// produced the event.
type Recorder struct {
	repo    *repositories.AuditRepository
	shipper Shipper
}

// NewRecorder creates a Recorder. shipper may be nil when no external
// destinations are configured.
func NewRecorder(repo *repositories.AuditRepository, shipper Shipper) *Recorder {
	return &Recorder{repo: repo, shipper: shipper}
}

func (r *Recorder) buildEntry(event Event) *models.AuditLog {
	entry := &models.AuditLog{
		Action:   event.Action,
		Metadata: event.Metadata,
	}
	if event.UserID != "" {
		entry.UserID = &event.UserID
	}
	if event.OrganizationID != "" {
		entry.OrganizationID = &event.OrganizationID
	} else {
		// Entries without an organization are recorded with a null org and
		// tagged so they can be found during trail review.
		slog.Warn("Audit event missing organization context",
			"action", event.Action,
			"user_id", event.UserID,
			"object_id", event.ObjectID)
		if entry.Metadata == nil {
			entry.Metadata = map[string]interface{}{}
		}
		entry.Metadata["warning"] = "missing organization context"
	}
	if event.ObjectType != "" {
		entry.ObjectType = &event.ObjectType
	}
	if event.ObjectID != "" {
		entry.ObjectID = &event.ObjectID
	}
	if event.IPAddress != "" {
		entry.IPAddress = &event.IPAddress
	}
	return entry
}

// Record appends an audit entry. It never returns an error: a recording
// failure must not abort the action being audited.
func (r *Recorder) Record(ctx context.Context, event Event) {
	entry := r.buildEntry(event)
	if err := r.repo.Create(ctx, entry); err != nil {
		slog.Error("Failed to record audit entry",
			"action", event.Action,
			"object_id", event.ObjectID,
			"error", err)
		return
	}
	telemetry.AuditEntriesTotal.WithLabelValues(entry.Action).Inc()
	r.ship(entry)
}

// RecordTx appends an audit entry inside an existing transaction. Unlike
// Record, a failure is returned so the caller can roll back: entries written
// as part of a decision sequence must commit or abort with the decision.
func (r *Recorder) RecordTx(ctx context.Context, tx *sql.Tx, event Event) error {
	entry := r.buildEntry(event)
	if err := r.repo.CreateTx(ctx, tx, entry); err != nil {
		return err
	}
	telemetry.AuditEntriesTotal.WithLabelValues(entry.Action).Inc()
	r.ship(entry)
	return nil
}

// ship sends the entry to external destinations without blocking the caller.
func (r *Recorder) ship(entry *models.AuditLog) {
	if r.shipper == nil {
		return
	}

	se := &ShipEntry{
		Timestamp: entry.CreatedAt,
		Action:    entry.Action,
		Metadata:  entry.Metadata,
	}
	if entry.UserID != nil {
		se.UserID = *entry.UserID
	}
	if entry.OrganizationID != nil {
		se.OrganizationID = *entry.OrganizationID
	}
	if entry.ObjectType != nil {
		se.ObjectType = *entry.ObjectType
	}
	if entry.ObjectID != nil {
		se.ObjectID = *entry.ObjectID
	}
	if entry.IPAddress != nil {
		se.IPAddress = *entry.IPAddress
	}

	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := r.shipper.Ship(ctx, se); err != nil {
			slog.Error("Failed to ship audit entry", "action", se.Action, "error", err)
		}
	})
}
