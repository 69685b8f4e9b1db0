// reviews.go implements review creation, listing, and the decision endpoint.
// The decision endpoint accepts a review id or an assessment id; the workflow
// resolves the fallback.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

// CreateReview opens a pending review on an assessment.
// POST /api/v1/reviews
func (h *Handlers) CreateReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var in workflow.CreateReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assessment_id is required"})
		return
	}

	review, err := h.svc.CreateReview(c.Request.Context(), a, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetReview retrieves one review in the actor's org.
// GET /api/v1/reviews/:id
func (h *Handlers) GetReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	review, err := h.svc.GetReview(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// ListReviews lists the org's reviews, optionally for one assessment.
// GET /api/v1/reviews?assessment_id=&page=&per_page=
func (h *Handlers) ListReviews(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	reviews, err := h.svc.ListReviews(c.Request.Context(), a, optionalQuery(c, "assessment_id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// DecideReview records the one-shot decision. Approval triggers a synchronous
// scoring call; any scoring failure aborts the decision and returns 502.
// POST /api/v1/reviews/:id/decision
func (h *Handlers) DecideReview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision is required"})
		return
	}

	review, err := h.svc.Decide(c.Request.Context(), a, c.Param("id"), req.Decision)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}
