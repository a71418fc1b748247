package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/eventhub-pro/eventhub-api/config"
	"github.com/eventhub-pro/eventhub-api/db"
	"github.com/eventhub-pro/eventhub-api/handlers"
	"github.com/eventhub-pro/eventhub-api/metrics"
	"github.com/eventhub-pro/eventhub-api/notifications"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/routes"
	"github.com/eventhub-pro/eventhub-api/services"
	"github.com/eventhub-pro/eventhub-api/storage"
)

var runMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply pending migrations before starting")
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	if runMigrations {
		// Migrator закрывает соединение, поэтому для него открывается отдельное.
		migrationConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to database for migrations: %w", err)
		}
		if err := db.MigrateUp(migrationConn); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := metrics.RegisterDBStats(dbConn, "eventhub"); err != nil {
		logger.Warn("failed to register database metrics", slog.Any("error", err))
	}

	// Хранилище постеров (Cloudflare R2) необязательно
	var posterUploader storage.FileUploader
	if cfg.R2Enabled() {
		posterUploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, poster uploads are disabled")
	}

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		mailer = services.NewSMTPMailer(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		}, logger)
		logger.Info("SMTP mailer initialized", slog.String("host", cfg.SMTPHost))
	}

	// WebSocket hub
	hub := notifications.NewHub(logger)
	go hub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	sessionRepo := repositories.NewPostgresSessionRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresTeamMemberRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	transactor := repositories.NewTransactor(dbConn, logger)

	// Сервисы
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.JWTExpiresIn, logger)
	userService := services.NewUserService(userRepo, teamRepo, memberRepo, registrationRepo, transactor, logger)
	eventService := services.NewEventService(eventRepo, teamRepo, memberRepo, registrationRepo, transactor, posterUploader, logger)
	sessionService := services.NewSessionService(sessionRepo, eventRepo, logger)
	teamService := services.NewTeamService(teamRepo, memberRepo, eventRepo, transactor, logger)
	memberService := services.NewTeamMemberService(memberRepo, teamRepo, userRepo, transactor, services.TeamMemberServiceOptions{
		Notifier: hub,
		Mailer:   mailer,
		LoginURL: cfg.PublicURL + "/login",
	}, logger)
	registrationService := services.NewRegistrationService(registrationRepo, eventRepo, transactor, cfg.PublicURL, logger)
	adminService := services.NewAdminService(userRepo, eventRepo, teamRepo, memberRepo, registrationRepo, sessionRepo)
	logger.Info("services initialized")

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		User:         handlers.NewUserHandler(userService),
		Event:        handlers.NewEventHandler(eventService),
		Session:      handlers.NewSessionHandler(sessionService),
		Team:         handlers.NewTeamHandler(teamService),
		TeamMember:   handlers.NewTeamMemberHandler(memberService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Admin:        handlers.NewAdminHandler(adminService),
		WebSocket:    handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins, logger),
		Health:       handlers.NewHealthHandler(dbConn),
	}, routes.Options{
		JWTSecret:          []byte(cfg.JWTSecretKey),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRatePer15Min:   cfg.LoginRatePer15Min,
		Logger:             logger,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}
