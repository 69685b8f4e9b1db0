// Package models - evidence.go defines the Evidence model referencing a stored
// file attached to an assessment. The blob itself lives in the storage backend;
// the row keeps the storage path and integrity metadata.
package models

import "time"

// Evidence represents one uploaded evidence file for an assessment.
type Evidence struct {
	ID           string    `db:"id" json:"id"`
	OrgID        string    `db:"org_id" json:"org_id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	UploadedBy   string    `db:"uploaded_by" json:"uploaded_by"`
	FileName     string    `db:"file_name" json:"file_name"`
	StoragePath  string    `db:"storage_path" json:"-"`
	Checksum     string    `db:"checksum" json:"checksum"` // SHA256 of the blob
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
