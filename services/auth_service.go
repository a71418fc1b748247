package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventhub-pro/eventhub-api/metrics"
	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/utils"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
	// CreateAdmin используется только командой seed-admin.
	CreateAdmin(ctx context.Context, input RegisterInput) (*models.User, error)
}

type RegisterInput struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register всегда создает участника: роль из запроса не принимается.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	user, err := s.createUser(ctx, input, models.RoleParticipant)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "failure").Inc()
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	return user, nil
}

func (s *authService) CreateAdmin(ctx context.Context, input RegisterInput) (*models.User, error) {
	return s.createUser(ctx, input, models.RoleAdmin)
}

func (s *authService) createUser(ctx context.Context, input RegisterInput, role models.UserRole) (*models.User, error) {
	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         utils.SanitizePlainText(input.Name),
		Email:        utils.NormalizeEmail(input.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if input.Phone != nil {
		user.Phone = utils.StringPtr(*input.Phone)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.Int("user_id", user.ID), slog.String("role", string(user.Role)))
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(s.jwtSecret, user, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	user.PasswordHash = ""
	return user, token, nil
}
