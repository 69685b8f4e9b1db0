package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/vendorguard/vendorguard/internal/audit"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
)

type captureShipper struct {
	mu      sync.Mutex
	entries []*audit.ShipEntry
	err     error
}

func (c *captureShipper) Ship(ctx context.Context, entry *audit.ShipEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return c.err
}

func (c *captureShipper) Close() error { return nil }

func (c *captureShipper) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func newRecorder(t *testing.T, shipper audit.Shipper) (*audit.Recorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return audit.NewRecorder(repositories.NewAuditRepository(db), shipper), mock
}

func TestRecorder_Record(t *testing.T) {
	shipper := &captureShipper{}
	rec, mock := newRecorder(t, shipper)
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))

	rec.Record(context.Background(), audit.Event{
		UserID:         "u-1",
		OrganizationID: "org-1",
		Action:         "submit_assessment",
		ObjectType:     "assessment",
		ObjectID:       "a-1",
		Metadata:       map[string]interface{}{"new_status": "submitted"},
	})

	// Shipping happens on a background goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for shipper.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if shipper.count() != 1 {
		t.Fatalf("shipped %d entries, want 1", shipper.count())
	}
	if shipper.entries[0].Action != "submit_assessment" {
		t.Errorf("shipped action = %s", shipper.entries[0].Action)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecorder_RecordNeverFailsCaller(t *testing.T) {
	rec, mock := newRecorder(t, nil)
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errors.New("connection refused"))

	// Must not panic or surface the failure.
	rec.Record(context.Background(), audit.Event{
		OrganizationID: "org-1",
		Action:         "respond_remediation",
	})
}

func TestRecorder_MissingOrgStillRecorded(t *testing.T) {
	rec, mock := newRecorder(t, nil)
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))

	rec.Record(context.Background(), audit.Event{
		UserID: "u-1",
		Action: "create_assessment",
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("entry with missing org was not recorded: %v", err)
	}
}

func TestRecorder_RecordTxRollsUpError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	rec := audit.NewRecorder(repositories.NewAuditRepository(db), nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errors.New("tx aborted"))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := rec.RecordTx(context.Background(), tx, audit.Event{
		OrganizationID: "org-1",
		Action:         "make_review_decision",
	}); err == nil {
		t.Fatal("RecordTx should return the write failure so the caller can roll back")
	}
	tx.Rollback()
}
