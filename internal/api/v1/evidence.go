// evidence.go implements evidence file upload, listing, and download. Blobs go
// to the storage backend under <org_id>/<assessment_id>/<evidence_id>; the
// database row keeps the path, SHA256 checksum, and size. Downloads always
// stream through this handler so tenancy checks apply on every read.
package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vendorguard/vendorguard/internal/audit"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
)

// maxEvidenceSize caps a single evidence upload at 50 MiB.
const maxEvidenceSize = 50 << 20

// UploadEvidence attaches a file to an assessment.
// POST /api/v1/assessments/:id/evidence (multipart, field "file")
func (h *Handlers) UploadEvidence(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	if err := authz.Authorize(a, authz.ActionUploadEvidence, authz.Resource{Type: "evidence", OrgID: a.OrgID}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	assessmentID := c.Param("id")
	assessment, err := h.svc.GetAssessment(c.Request.Context(), a, assessmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxEvidenceSize)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if header.Size > maxEvidenceSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Evidence file exceeds the 50 MiB limit"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	evidenceID := uuid.New().String()
	path := fmt.Sprintf("%s/%s/%s", a.OrgID, assessment.ID, evidenceID)

	result, err := h.blobs.Upload(c.Request.Context(), path, file, header.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store evidence file"})
		return
	}

	ev := &models.Evidence{
		OrgID:        a.OrgID,
		AssessmentID: assessment.ID,
		UploadedBy:   a.ID,
		FileName:     header.Filename,
		StoragePath:  result.Path,
		Checksum:     result.Checksum,
		SizeBytes:    result.Size,
	}
	if err := h.evidence.Create(c.Request.Context(), ev); err != nil {
		// Orphaned blobs are worse than a lost upload; drop the blob on row
		// insert failure.
		_ = h.blobs.Delete(c.Request.Context(), result.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record evidence"})
		return
	}

	h.recorder.Record(c.Request.Context(), evidenceAuditEvent(a, ev))

	c.JSON(http.StatusCreated, ev)
}

// ListEvidence lists the evidence rows attached to an assessment.
// GET /api/v1/assessments/:id/evidence
func (h *Handlers) ListEvidence(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	assessment, err := h.svc.GetAssessment(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	evs, err := h.evidence.ListByAssessment(c.Request.Context(), a.OrgID, assessment.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list evidence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"evidence": evs})
}

// DownloadEvidence streams an evidence file back to the caller.
// GET /api/v1/evidence/:id/download
func (h *Handlers) DownloadEvidence(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	ev, err := h.evidence.GetByID(c.Request.Context(), a.OrgID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load evidence"})
		return
	}
	if ev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evidence not found"})
		return
	}

	blob, err := h.blobs.Download(c.Request.Context(), ev.StoragePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evidence file not found in storage"})
		return
	}
	defer blob.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ev.FileName))
	c.Header("X-Checksum-Sha256", ev.Checksum)
	c.DataFromReader(http.StatusOK, ev.SizeBytes, "application/octet-stream", blob, nil)
}

func evidenceAuditEvent(a authz.Actor, ev *models.Evidence) audit.Event {
	return audit.Event{
		UserID:         a.ID,
		OrganizationID: a.OrgID,
		Action:         "upload_evidence",
		ObjectType:     "evidence",
		ObjectID:       ev.ID,
		Metadata: map[string]interface{}{
			"assessment_id": ev.AssessmentID,
			"file_name":     ev.FileName,
			"checksum":      ev.Checksum,
			"size_bytes":    ev.SizeBytes,
		},
	}
}
