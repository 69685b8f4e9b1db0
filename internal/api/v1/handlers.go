// Package v1 implements the authenticated JSON API. Handlers are a thin
// boundary: they bind input, resolve the acting user from the request context,
// call the workflow service, and map the typed workflow error to an HTTP
// status. All business rules (transition legality, tenancy, remediation
// gating) live in internal/workflow.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/audit"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/config"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/middleware"
	"github.com/vendorguard/vendorguard/internal/storage"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

// Handlers holds the dependencies shared by all v1 endpoints.
type Handlers struct {
	cfg      *config.Config
	svc      *workflow.Service
	users    *repositories.UserRepository
	evidence *repositories.EvidenceRepository
	audits   *repositories.AuditRepository
	blobs    storage.Blobs
	recorder *audit.Recorder
}

// NewHandlers creates the v1 handler set.
func NewHandlers(
	cfg *config.Config,
	svc *workflow.Service,
	users *repositories.UserRepository,
	evidence *repositories.EvidenceRepository,
	audits *repositories.AuditRepository,
	blobs storage.Blobs,
	recorder *audit.Recorder,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		svc:      svc,
		users:    users,
		evidence: evidence,
		audits:   audits,
		blobs:    blobs,
		recorder: recorder,
	}
}

// actor resolves the authenticated actor; AuthMiddleware guarantees presence
// on routes registered under the authenticated group.
func actor(c *gin.Context) (authz.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return a, ok
}

// respondError maps a workflow error to its HTTP status. Internal causes are
// logged with the request ID but never sent to the client.
func respondError(c *gin.Context, err error) {
	status := workflow.StatusOf(err)

	var we *workflow.Error
	message := "Internal server error"
	if errors.As(err, &we) && we.Kind != workflow.KindInternal {
		message = we.Message
	}

	if status >= http.StatusInternalServerError {
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"request_id", requestID,
			"error", err,
		)
	}

	c.JSON(status, gin.H{"error": message})
}

// pagination parses ?page= and ?per_page= with the platform defaults.
func pagination(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return perPage, (page - 1) * perPage
}

// optionalQuery returns a pointer to the query value, or nil when absent.
func optionalQuery(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}
