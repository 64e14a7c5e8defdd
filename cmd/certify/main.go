// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/olegiv/certify-go/internal/config"
	"github.com/olegiv/certify-go/internal/handler"
	"github.com/olegiv/certify-go/internal/handler/api"
	"github.com/olegiv/certify-go/internal/imagecdn"
	"github.com/olegiv/certify-go/internal/mailer"
	"github.com/olegiv/certify-go/internal/middleware"
	"github.com/olegiv/certify-go/internal/notify"
	"github.com/olegiv/certify-go/internal/render"
	"github.com/olegiv/certify-go/internal/service"
	"github.com/olegiv/certify-go/internal/session"
	"github.com/olegiv/certify-go/internal/store"
	"github.com/olegiv/certify-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Certify - certificate generation and verification service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CERTIFY_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CERTIFY_CLOUD_NAME       Image CDN cloud name (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CERTIFY_DB_PATH          SQLite database path (default: ./data/certify.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CERTIFY_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CERTIFY_BASE_URL         Public origin for verification links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CERTIFY_SMTP_HOST        SMTP server; email disabled when empty\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CERTIFY_ADMIN_PASSWORD   Password for the seeded admin account\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("certify %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	composer := imagecdn.NewComposer(cfg.CloudName)

	// Email dispatcher; nil when SMTP is not configured
	var dispatcher *notify.Dispatcher
	var sweeper *cron.Cron
	if cfg.EmailEnabled() {
		sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass)
		dispatcher = notify.NewDispatcher(db, sender, logger, notify.Config{
			Workers:     cfg.EmailWorkers,
			MaxAttempts: int64(cfg.EmailMaxAttempts),
		})
		dispatcher.Start(ctx)
		defer dispatcher.Stop()

		// Sweep the outbox every minute for retries and mail left over
		// from previous runs
		sweeper = cron.New()
		if _, err := sweeper.AddFunc("* * * * *", func() {
			dispatcher.Sweep(context.Background())
		}); err != nil {
			return fmt.Errorf("scheduling outbox sweeper: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
		slog.Info("email dispatcher started", "workers", cfg.EmailWorkers, "smtp_host", cfg.SMTPHost)
	} else {
		slog.Warn("SMTP not configured, email notifications disabled")
	}

	certService := service.NewCertificateService(db, composer, dispatcher, cfg, logger)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	apiRateLimiter := middleware.NewGlobalRateLimiter(10, 30)

	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection)
	adminHandler := handler.NewAdminHandler(db, renderer, cfg)
	eventsHandler := handler.NewEventsHandler(db, renderer)
	uploadHandler := handler.NewUploadHandler(db, renderer, certService)
	publicHandler := handler.NewPublicHandler(db, renderer, cfg)
	apiHandler := api.NewHandler(db, certService, dispatcher)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(sessionManager.LoadAndSave)

	// Static assets
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Public portal and verification
	r.Get("/", publicHandler.Home)
	r.Get("/portal", publicHandler.Portal)
	r.Get("/verify/{publicID}", publicHandler.Verify)

	// Authentication
	r.Get("/login", authHandler.LoginForm)
	r.With(loginProtection.Middleware()).Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	// Admin UI
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))

		r.Get("/", adminHandler.Dashboard)
		r.Get("/events", eventsHandler.List)
		r.Get("/events/new", eventsHandler.NewForm)
		r.Post("/events/new", eventsHandler.Create)
		r.Get("/upload", uploadHandler.Form)
		r.Post("/upload", uploadHandler.Upload)
		r.Get("/analytics", adminHandler.Analytics)
		r.Get("/analytics/export", adminHandler.AnalyticsExport)
	})

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())

		r.Post("/events", apiHandler.CreateEvent)
		r.Get("/events", apiHandler.ListEvents)
		r.Post("/certificates", apiHandler.GenerateCertificates)
		r.Get("/certificates", apiHandler.ListCertificates)
		r.Post("/certificates/download", apiHandler.TrackDownload)
		r.Post("/send-email", apiHandler.SendEmail)
		r.Get("/qrcode", apiHandler.QRCode)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
