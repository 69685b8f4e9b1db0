// audit.go implements the admin-only audit trail listing. Results are always
// scoped to the caller's organization; filters narrow within it.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
)

// ListAuditEntries lists the org's audit trail with optional filters.
// GET /api/v1/audit?user_id=&action=&object_id=&start=&end=&page=&per_page=
func (h *Handlers) ListAuditEntries(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	orgID := a.OrgID
	filters := repositories.AuditFilters{
		OrganizationID: &orgID,
		UserID:         optionalQuery(c, "user_id"),
		Action:         optionalQuery(c, "action"),
		ObjectID:       optionalQuery(c, "object_id"),
	}

	// user_id and object_id compare against UUID columns; reject malformed
	// values here instead of letting the query fail.
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"user_id", filters.UserID},
		{"object_id", filters.ObjectID},
	} {
		if f.value != nil {
			if _, err := uuid.Parse(*f.value); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": f.name + " must be a valid UUID"})
				return
			}
		}
	}

	for _, bound := range []struct {
		key  string
		dest **time.Time
	}{
		{"start", &filters.StartDate},
		{"end", &filters.EndDate},
	} {
		if raw, present := c.GetQuery(bound.key); present && raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": bound.key + " must be an RFC3339 timestamp"})
				return
			}
			*bound.dest = &ts
		}
	}

	limit, offset := pagination(c)
	entries, total, err := h.audits.List(c.Request.Context(), filters, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
	})
}
