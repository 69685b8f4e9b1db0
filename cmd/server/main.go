// Package main is the entry point for the VendorGuard server binary. It
// dispatches three subcommands via a simple switch on os.Args so the binary's
// full CLI surface is readable in one place without requiring a cobra
// dependency: serve (default), migrate <up|down>, and version. The serve
// command runs auto-migration on startup so freshly deployed containers never
// need a separate migration step.
//
// Prometheus metrics are served on a dedicated side-channel port (default
// 9090, VG_TELEMETRY_METRICS_PROMETHEUS_PORT) at GET /metrics. The scrape
// path is deliberately off the public API listener so it bypasses auth and
// rate limiting without weakening either.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vendorguard/vendorguard/internal/api"
	"github.com/vendorguard/vendorguard/internal/auth"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/config"
	"github.com/vendorguard/vendorguard/internal/db"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		if len(os.Args) < 3 {
			return fmt.Errorf("usage: %s migrate <up|down>", os.Args[0])
		}
		return runMigrations(cfg, os.Args[2])
	case "version":
		fmt.Printf("VendorGuard v%s\n", version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, migrate, version", command)
	}
}

func serve(cfg *config.Config) error {
	// Initialise structured logging first so every subsequent line uses the
	// configured format and level.
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Fails in production when no secret is configured.
	if err := auth.ValidateJWTSecret(); err != nil {
		return fmt.Errorf("security configuration error: %w", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	slog.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	telemetry.StartDBStatsCollector(database)

	slog.Info("running database migrations")
	if err := db.RunMigrations(database, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if schemaVersion, dirty, err := db.GetMigrationVersion(database); err != nil {
		slog.Warn("failed to get migration version", "error", err)
	} else {
		slog.Info("database schema ready", "version", schemaVersion, "dirty", dirty)
	}

	if cfg.Auth.BootstrapAdmin {
		if err := bootstrapAdmin(database); err != nil {
			slog.Warn("admin bootstrap failed", "error", err)
		}
	}

	// Metrics side port; never mounted on the API listener.
	if cfg.Telemetry.Metrics.Enabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("starting Prometheus metrics server", "addr", metricsAddr)
			srv := &http.Server{
				Addr:         metricsAddr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	router, bgServices := api.NewRouter(cfg, database)

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server ready",
			"addr", cfg.Server.GetAddress(),
			"base_url", cfg.Server.BaseURL,
			"storage_backend", cfg.Storage.DefaultBackend,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Background goroutines stop after the listener drains so in-flight
	// requests can still enqueue rescores and ship audit entries.
	bgServices.Shutdown()

	slog.Info("server stopped gracefully")
	return nil
}

// bootstrapAdmin creates a default organization and admin account on first
// start of a development deployment. The generated password is printed once
// and only its bcrypt hash is stored.
func bootstrapAdmin(database *sql.DB) error {
	ctx := context.Background()
	orgRepo := repositories.NewOrganizationRepository(database)
	userRepo := repositories.NewUserRepository(database)

	const adminEmail = "admin@vendorguard.local"

	existing, err := userRepo.GetByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if existing != nil {
		return nil
	}

	org, err := orgRepo.GetByName(ctx, "default")
	if err != nil {
		return fmt.Errorf("failed to load default organization: %w", err)
	}
	if org == nil {
		org = &models.Organization{
			Name:        "default",
			DisplayName: "Default Organization",
		}
		if err := orgRepo.Create(ctx, org); err != nil {
			return fmt.Errorf("failed to create default organization: %w", err)
		}
	}

	passwordBytes := make([]byte, 24)
	if _, err := rand.Read(passwordBytes); err != nil {
		return fmt.Errorf("failed to generate admin password: %w", err)
	}
	password := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(passwordBytes)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &models.User{
		OrgID:        &org.ID,
		Email:        adminEmail,
		Name:         "Bootstrap Admin",
		Role:         string(authz.RoleAdmin),
		PasswordHash: hash,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	// Printed once; change it after first login.
	log.Println("")
	log.Println("==================================================================")
	log.Println("  BOOTSTRAP ADMIN CREATED")
	log.Printf("  Email:    %s", adminEmail)
	log.Printf("  Password: %s", password)
	log.Println("  This password is shown once. Change it after first login.")
	log.Println("==================================================================")
	log.Println("")

	return nil
}

func runMigrations(cfg *config.Config, direction string) error {
	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	slog.Info("running migrations", "direction", direction)

	if err := db.RunMigrations(database, direction); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	schemaVersion, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	slog.Info("migration completed", "version", schemaVersion, "dirty", dirty)
	return nil
}
