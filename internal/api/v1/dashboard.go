package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// activityFeedLimit caps the dashboard activity feed at the most recent
// audit entries for the org.
const activityFeedLimit = 50

// DashboardStats returns org-wide workflow counts.
// GET /api/v1/dashboard/stats
func (h *Handlers) DashboardStats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	stats, err := h.svc.GetDashboardStats(c.Request.Context(), a)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// DashboardActivity returns the org's most recent audit activity.
// GET /api/v1/dashboard/activity
func (h *Handlers) DashboardActivity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	entries, err := h.audits.ListRecent(c.Request.Context(), a.OrgID, activityFeedLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": entries})
}
