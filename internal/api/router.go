// Package api wires together the HTTP routes for the VendorGuard backend.
//
// Route grouping:
//   - /health, /ready, /version are unauthenticated liveness surfaces.
//   - /api/v1/auth/login is unauthenticated but rate limited aggressively.
//   - Everything else under /api/v1 requires a bearer JWT; role checks run as
//     RBAC middleware per route, and the workflow layer re-authorizes with its
//     full predicate list.
//
// Prometheus metrics are exposed by cmd/server on a side-channel port, not by
// this router, so scrapes bypass auth and rate limiting.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/vendorguard/vendorguard/internal/api/v1"
	"github.com/vendorguard/vendorguard/internal/audit"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/config"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/jobs"
	"github.com/vendorguard/vendorguard/internal/middleware"
	"github.com/vendorguard/vendorguard/internal/scoring"
	"github.com/vendorguard/vendorguard/internal/storage"
	"github.com/vendorguard/vendorguard/internal/workflow"

	// Import storage backends to register them
	_ "github.com/vendorguard/vendorguard/internal/storage/local"
)

// BackgroundServices holds references to background goroutines and resources
// that must be stopped during graceful shutdown. The caller (cmd/server) calls
// Shutdown() after the HTTP server has drained in-flight requests.
type BackgroundServices struct {
	rescoreWorker *jobs.RescoreWorker
	rescoreCancel context.CancelFunc
	auditShipper  *audit.MultiShipper
	rateLimiters  []*middleware.RateLimiter
}

// Shutdown stops all background goroutines and flushes the audit shipper.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.rescoreWorker != nil {
		bg.rescoreWorker.Stop()
	}
	if bg.rescoreCancel != nil {
		bg.rescoreCancel()
	}
	if bg.auditShipper != nil {
		if err := bg.auditShipper.Close(); err != nil {
			slog.Error("failed to close audit shipper", "error", err)
		}
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	blobs, err := storage.NewBlobs(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	slog.Info("initialized storage backend", "backend", cfg.Storage.DefaultBackend)

	// Repositories. sqlx wraps the same pool for the sqlx-based repositories.
	sqlxDB := sqlx.NewDb(db, "postgres")
	userRepo := repositories.NewUserRepository(db)
	vendorRepo := repositories.NewVendorRepository(db)
	templateRepo := repositories.NewTemplateRepository(db)
	assessmentRepo := repositories.NewAssessmentRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	reviewRepo := repositories.NewReviewRepository(sqlxDB)
	remediationRepo := repositories.NewRemediationRepository(sqlxDB)
	evidenceRepo := repositories.NewEvidenceRepository(sqlxDB)
	responseRepo := repositories.NewResponseRepository(sqlxDB)

	// Audit shipping is optional; with no enabled shippers the recorder only
	// persists to the database.
	shipper, err := audit.NewMultiShipper(shipperConfigs(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize audit shippers: %v", err)
	}
	recorder := audit.NewRecorder(auditRepo, shipper)

	scorer := scoring.NewClient(cfg.Scoring.BaseURL, cfg.Scoring.Timeout)

	rescoreWorker := jobs.NewRescoreWorker(assessmentRepo, scorer, cfg.Scoring.RetryInterval, cfg.Scoring.MaxRetryTime)
	rescoreCtx, rescoreCancel := context.WithCancel(context.Background())
	rescoreWorker.Start(rescoreCtx)
	slog.Info("rescore worker started")

	svc := workflow.NewService(
		assessmentRepo, reviewRepo, remediationRepo, vendorRepo, templateRepo,
		responseRepo, recorder, scorer, rescoreWorker,
	)

	handlers := v1.NewHandlers(cfg, svc, userRepo, evidenceRepo, auditRepo, blobs, recorder)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db, blobs))
	router.GET("/version", versionHandler())

	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	uploadRateLimiter := middleware.NewRateLimiter(middleware.UploadRateLimitConfig())

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoint (no auth required, strictly limited)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/login", handlers.Login)
		}

		authed := apiV1.Group("")
		authed.Use(middleware.AuthMiddleware(userRepo))
		authed.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		{
			authed.GET("/auth/me", handlers.Me)

			// All workflow entities are org-scoped; an actor without an org
			// cannot address any of them.
			org := authed.Group("")
			org.Use(middleware.RequireOrg())
			{
				org.POST("/vendors",
					middleware.RequirePermission(authz.ActionCreateVendor),
					handlers.CreateVendor)
				org.GET("/vendors", handlers.ListVendors)
				org.GET("/vendors/:id", handlers.GetVendor)
				org.PATCH("/vendors/:id",
					middleware.RequirePermission(authz.ActionUpdateVendor),
					handlers.UpdateVendor)
				org.POST("/vendors/:id/status",
					middleware.RequirePermission(authz.ActionUpdateVendor),
					handlers.ChangeVendorStatus)

				org.POST("/templates",
					middleware.RequirePermission(authz.ActionCreateTemplate),
					handlers.CreateTemplate)
				org.GET("/templates", handlers.ListTemplates)
				org.GET("/templates/:id", handlers.GetTemplate)
				org.PATCH("/templates/:id",
					middleware.RequirePermission(authz.ActionUpdateTemplate),
					handlers.UpdateTemplate)
				org.DELETE("/templates/:id",
					middleware.RequirePermission(authz.ActionDeleteTemplate),
					handlers.DeleteTemplate)

				org.POST("/assessments",
					middleware.RequirePermission(authz.ActionCreateAssessment),
					handlers.CreateAssessment)
				org.GET("/assessments", handlers.ListAssessments)
				org.GET("/assessments/:id", handlers.GetAssessment)
				org.POST("/assessments/:id/submit",
					middleware.RequirePermission(authz.ActionSubmitAssessment),
					handlers.SubmitAssessment)
				org.POST("/assessments/:id/review",
					middleware.RequirePermission(authz.ActionReviewAssessment),
					handlers.ReviewAssessment)
				org.POST("/assessments/:id/approve",
					middleware.RequirePermission(authz.ActionApproveAssessment),
					handlers.ApproveAssessment)
				org.GET("/assessments/:id/audit", handlers.GetAssessmentAudit)

				org.POST("/assessments/:id/evidence",
					middleware.RateLimitMiddleware(uploadRateLimiter),
					middleware.RequirePermission(authz.ActionUploadEvidence),
					handlers.UploadEvidence)
				org.GET("/assessments/:id/evidence", handlers.ListEvidence)
				org.GET("/evidence/:id/download", handlers.DownloadEvidence)

				org.POST("/reviews",
					middleware.RequirePermission(authz.ActionCreateReview),
					handlers.CreateReview)
				org.GET("/reviews", handlers.ListReviews)
				org.GET("/reviews/:id", handlers.GetReview)
				org.POST("/reviews/:id/decision",
					middleware.RequirePermission(authz.ActionDecideReview),
					handlers.DecideReview)

				org.POST("/remediations",
					middleware.RequirePermission(authz.ActionCreateRemediation),
					handlers.CreateRemediation)
				org.GET("/remediations", handlers.ListRemediations)
				org.GET("/remediations/:id", handlers.GetRemediation)
				org.POST("/remediations/:id/respond",
					middleware.RequirePermission(authz.ActionRespondRemediation),
					handlers.RespondRemediation)
				org.POST("/remediations/:id/close",
					middleware.RequirePermission(authz.ActionCloseRemediation),
					handlers.CloseRemediation)

				org.POST("/assessments/:id/responses",
					middleware.RequirePermission(authz.ActionSaveResponse),
					handlers.SaveResponse)
				org.GET("/assessments/:id/responses", handlers.ListResponses)
				org.GET("/responses/:id", handlers.GetResponse)
				org.PATCH("/responses/:id",
					middleware.RequirePermission(authz.ActionSaveResponse),
					handlers.UpdateResponse)
				org.POST("/responses/:id/submit",
					middleware.RequirePermission(authz.ActionSubmitResponse),
					handlers.SubmitResponse)

				org.GET("/dashboard/stats", handlers.DashboardStats)
				org.GET("/dashboard/activity", handlers.DashboardActivity)

				org.GET("/audit",
					middleware.RequirePermission(authz.ActionReadAudit),
					handlers.ListAuditEntries)
			}
		}
	}

	bg := &BackgroundServices{
		rescoreWorker: rescoreWorker,
		rescoreCancel: rescoreCancel,
		auditShipper:  shipper,
		rateLimiters:  []*middleware.RateLimiter{authRateLimiter, generalRateLimiter, uploadRateLimiter},
	}

	return router, bg
}

// shipperConfigs converts the viper-bound audit configuration into the audit
// package's shipper configs.
func shipperConfigs(cfg *config.Config) []audit.ShipperConfig {
	out := make([]audit.ShipperConfig, 0, len(cfg.Audit.Shippers))
	for _, sc := range cfg.Audit.Shippers {
		conv := audit.ShipperConfig{
			Enabled: sc.Enabled,
			Type:    sc.Type,
		}
		if sc.Webhook != nil {
			conv.Webhook = &audit.WebhookConfig{
				URL:     sc.Webhook.URL,
				Headers: sc.Webhook.Headers,
				Timeout: time.Duration(sc.Webhook.TimeoutSecs) * time.Second,
			}
		}
		if sc.File != nil {
			conv.File = &audit.FileConfig{
				Path: sc.File.Path,
			}
		}
		out = append(out, conv)
	}
	return out
}

// healthCheckHandler reports process liveness and database connectivity.
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler reports whether the service can take traffic. Unlike the
// liveness probe, this also checks the storage backend so a readiness gate
// fails when evidence uploads and downloads would error.
func readinessHandler(db *sql.DB, blobs storage.Blobs) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Probe with a known-absent sentinel path. Exists() exercises the
		// backend without creating any state.
		if _, err := blobs.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version.
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware emits one structured log record per request. Output format
// follows the global slog handler configured in telemetry.SetupLogger.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}
