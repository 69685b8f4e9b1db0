// responses.go implements the questionnaire answer endpoints: draft save,
// edit, list, and one-shot submit.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

// SaveResponse records a draft answer for one question on an assessment.
// POST /api/v1/assessments/:id/responses
func (h *Handlers) SaveResponse(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.SaveResponseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question_id is required"})
		return
	}

	response, err := h.svc.SaveResponse(c.Request.Context(), a, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListResponses lists the answers recorded for an assessment.
// GET /api/v1/assessments/:id/responses
func (h *Handlers) ListResponses(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	responses, err := h.svc.ListResponses(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

// GetResponse retrieves one answer in the actor's org.
// GET /api/v1/responses/:id
func (h *Handlers) GetResponse(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	response, err := h.svc.GetResponse(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateResponse edits a draft answer. Submitted answers are frozen.
// PATCH /api/v1/responses/:id
func (h *Handlers) UpdateResponse(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.UpdateResponseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	response, err := h.svc.UpdateResponse(c.Request.Context(), a, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SubmitResponse freezes a draft answer; re-submitting is a conflict.
// POST /api/v1/responses/:id/submit
func (h *Handlers) SubmitResponse(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	response, err := h.svc.SubmitResponse(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
