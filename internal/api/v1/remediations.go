// remediations.go implements the remediation loop endpoints: raise, respond,
// close.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

// CreateRemediation raises a corrective-action record in status "open".
// POST /api/v1/remediations
func (h *Handlers) CreateRemediation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.CreateRemediationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assessment_id and issue are required"})
		return
	}

	remediation, err := h.svc.CreateRemediation(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, remediation)
}

// GetRemediation retrieves one remediation in the actor's org.
// GET /api/v1/remediations/:id
func (h *Handlers) GetRemediation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	remediation, err := h.svc.GetRemediation(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, remediation)
}

// ListRemediations lists the org's remediations, optionally for one assessment.
// GET /api/v1/remediations?assessment_id=&page=&per_page=
func (h *Handlers) ListRemediations(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	remediations, err := h.svc.ListRemediations(c.Request.Context(), a, optionalQuery(c, "assessment_id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"remediations": remediations})
}

type respondRequest struct {
	Response string `json:"response" binding:"required"`
}

// RespondRemediation records the vendor's response, open -> responded.
// POST /api/v1/remediations/:id/respond
func (h *Handlers) RespondRemediation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "response is required"})
		return
	}

	remediation, err := h.svc.Respond(c.Request.Context(), a, c.Param("id"), req.Response)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, remediation)
}

// CloseRemediation closes a responded remediation and queues a best-effort
// rescore of the linked assessment.
// POST /api/v1/remediations/:id/close
func (h *Handlers) CloseRemediation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	remediation, err := h.svc.CloseRemediation(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, remediation)
}
