// templates.go implements the admin-only questionnaire template endpoints.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

// CreateTemplate creates a questionnaire template.
// POST /api/v1/templates
func (h *Handlers) CreateTemplate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.CreateTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	template, err := h.svc.CreateTemplate(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetTemplate retrieves one template in the actor's org.
// GET /api/v1/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	template, err := h.svc.GetTemplate(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// ListTemplates lists the org's templates.
// GET /api/v1/templates?page=&per_page=
func (h *Handlers) ListTemplates(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	templates, err := h.svc.ListTemplates(c.Request.Context(), a, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// UpdateTemplate applies a partial update to a template.
// PATCH /api/v1/templates/:id
func (h *Handlers) UpdateTemplate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.UpdateTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	template, err := h.svc.UpdateTemplate(c.Request.Context(), a, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteTemplate removes a template not referenced by any assessment.
// DELETE /api/v1/templates/:id
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteTemplate(c.Request.Context(), a, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
