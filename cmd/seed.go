package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventhub-pro/eventhub-api/db"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/services"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the administrator account from ADMIN_* variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.AdminPassword == "" {
			return errors.New("ADMIN_PASSWORD environment variable is not set")
		}
		conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		authService := services.NewAuthService(repositories.NewPostgresUserRepository(conn), cfg.JWTSecretKey, cfg.JWTExpiresIn, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		input := services.RegisterInput{
			Name:     cfg.AdminName,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}
		if cfg.AdminPhone != "" {
			input.Phone = &cfg.AdminPhone
		}

		admin, err := authService.CreateAdmin(ctx, input)
		if errors.Is(err, services.ErrUserEmailConflict) {
			logger.Info("admin account already exists", slog.String("email", cfg.AdminEmail))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		logger.Info("admin account created", slog.Int("user_id", admin.ID), slog.String("email", admin.Email))
		return nil
	},
}
