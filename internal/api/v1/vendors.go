// vendors.go implements vendor onboarding, listing, update, and the guarded
// status transition endpoint.
package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

// CreateVendor onboards a vendor in status "active".
// POST /api/v1/vendors
func (h *Handlers) CreateVendor(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.CreateVendorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	vendor, err := h.svc.CreateVendor(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, vendor)
}

// GetVendor retrieves one vendor in the actor's org.
// GET /api/v1/vendors/:id
func (h *Handlers) GetVendor(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	vendor, err := h.svc.GetVendor(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, vendor)
}

// ListVendors lists the org's vendors with status/tier/search filters.
// GET /api/v1/vendors?status=&tier=&search=&page=&per_page=
func (h *Handlers) ListVendors(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	filters := repositories.VendorFilters{
		Status: optionalQuery(c, "status"),
		Search: optionalQuery(c, "search"),
	}
	if raw, present := c.GetQuery("tier"); present {
		tier, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tier must be an integer"})
			return
		}
		filters.Tier = &tier
	}

	limit, offset := pagination(c)
	vendors, err := h.svc.ListVendors(c.Request.Context(), a, filters, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

// UpdateVendor applies a partial update to vendor contact fields and tier.
// PATCH /api/v1/vendors/:id
func (h *Handlers) UpdateVendor(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.UpdateVendorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	vendor, err := h.svc.UpdateVendor(c.Request.Context(), a, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, vendor)
}

type vendorStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeVendorStatus moves a vendor along the active/suspended/offboarded
// transition graph. A same-status request is an idempotent no-op.
// POST /api/v1/vendors/:id/status
func (h *Handlers) ChangeVendorStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req vendorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	vendor, err := h.svc.ChangeVendorStatus(c.Request.Context(), a, c.Param("id"), models.VendorStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, vendor)
}
