// assessments.go implements assessment creation, retrieval, listing, the three
// lifecycle transition endpoints, and the per-object audit history.
package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

// transitionFunc is one of the workflow's lifecycle operations; the three
// transition endpoints differ only in which operation they invoke.
type transitionFunc func(*workflow.Service, context.Context, authz.Actor, string) (*models.Assessment, error)

// CreateAssessment opens an assessment in status "assigned".
// POST /api/v1/assessments
func (h *Handlers) CreateAssessment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.CreateAssessmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id and template_id are required"})
		return
	}

	assessment, err := h.svc.CreateAssessment(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// GetAssessment retrieves one assessment in the actor's org.
// GET /api/v1/assessments/:id
func (h *Handlers) GetAssessment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	assessment, err := h.svc.GetAssessment(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// ListAssessments lists the org's assessments, optionally for one vendor.
// GET /api/v1/assessments?vendor_id=&page=&per_page=
func (h *Handlers) ListAssessments(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	assessments, err := h.svc.ListAssessments(c.Request.Context(), a, optionalQuery(c, "vendor_id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessments": assessments})
}

// SubmitAssessment moves assigned -> submitted (vendor only).
// POST /api/v1/assessments/:id/submit
func (h *Handlers) SubmitAssessment(c *gin.Context) {
	h.transition(c, (*workflow.Service).Submit)
}

// ReviewAssessment moves submitted -> reviewed (reviewer or admin).
// POST /api/v1/assessments/:id/review
func (h *Handlers) ReviewAssessment(c *gin.Context) {
	h.transition(c, (*workflow.Service).MarkReviewed)
}

// ApproveAssessment moves reviewed -> approved (reviewer or admin).
// POST /api/v1/assessments/:id/approve
func (h *Handlers) ApproveAssessment(c *gin.Context) {
	h.transition(c, (*workflow.Service).Approve)
}

// GetAssessmentAudit returns the audit history for one assessment, oldest
// first.
// GET /api/v1/assessments/:id/audit
func (h *Handlers) GetAssessmentAudit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	// Confirm the assessment is visible to this actor before exposing its
	// trail; cross-tenant IDs read as absent.
	if _, err := h.svc.GetAssessment(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.audits.ListByObject(c.Request.Context(), a.OrgID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handlers) transition(c *gin.Context, op transitionFunc) {
	a, ok := actor(c)
	if !ok {
		return
	}

	assessment, err := op(h.svc, c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}
