package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/utils"
)

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// GetForViewer отдает профиль только самому пользователю или администратору.
	GetForViewer(ctx context.Context, id, viewerID int, viewerIsAdmin bool) (*models.User, error)
	UpdateProfile(ctx context.Context, id int, input UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, id int, input ChangePasswordInput) error
	CountParticipants(ctx context.Context) (int, error)
	ListParticipants(ctx context.Context) ([]models.ParticipantOverview, error)
	Delete(ctx context.Context, id int) (*models.UserDeletionStats, error)
}

type UpdateProfileInput struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Phone *string `json:"phone" validate:"omitempty,max=50"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

type userService struct {
	userRepo         repositories.UserRepository
	teamRepo         repositories.TeamRepository
	memberRepo       repositories.TeamMemberRepository
	registrationRepo repositories.RegistrationRepository
	tx               repositories.Transactor
	logger           *slog.Logger
}

func NewUserService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	registrationRepo repositories.RegistrationRepository,
	tx repositories.Transactor,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:         userRepo,
		teamRepo:         teamRepo,
		memberRepo:       memberRepo,
		registrationRepo: registrationRepo,
		tx:               tx,
		logger:           logger,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) GetForViewer(ctx context.Context, id, viewerID int, viewerIsAdmin bool) (*models.User, error) {
	if id != viewerID && !viewerIsAdmin {
		return nil, ErrForbiddenOperation
	}
	return s.GetByID(ctx, id)
}

func (s *userService) UpdateProfile(ctx context.Context, id int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = utils.SanitizePlainText(input.Name)
	if user.Name == "" {
		return nil, newValidationError("name is required")
	}
	user.Phone = nil
	if input.Phone != nil {
		user.Phone = utils.StringPtr(*input.Phone)
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, id int, input ChangePasswordInput) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(input.CurrentPassword, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password for user %d: %w", id, err)
	}
	return nil
}

func (s *userService) CountParticipants(ctx context.Context) (int, error) {
	return s.userRepo.CountNonAdmin(ctx)
}

func (s *userService) ListParticipants(ctx context.Context) ([]models.ParticipantOverview, error) {
	return s.userRepo.ListParticipants(ctx)
}

// Delete удаляет участника вместе с его членствами и регистрациями в одной
// транзакции. Команды, где он был капитаном, переходят к самому раннему
// принятому участнику; команды без принятых участников удаляются.
func (s *userService) Delete(ctx context.Context, id int) (*models.UserDeletionStats, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminDeletionForbidden
	}

	stats := &models.UserDeletionStats{}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		captained, err := s.teamRepo.ListCaptainedBy(ctx, exec, id)
		if err != nil {
			return err
		}

		if stats.TeamMemberships, err = s.memberRepo.DeleteByUser(ctx, exec, id); err != nil {
			return err
		}

		for _, team := range captained {
			next, err := s.memberRepo.EarliestAccepted(ctx, exec, team.ID)
			switch {
			case err == nil:
				if err := s.teamRepo.UpdateCaptain(ctx, exec, team.ID, next.UserID); err != nil {
					return err
				}
				if err := s.memberRepo.PromoteToLeader(ctx, exec, next.ID); err != nil {
					return err
				}
				stats.PromotedCaptains++
			case errors.Is(err, repositories.ErrMemberNotFound):
				if _, err := s.memberRepo.DeleteByTeam(ctx, exec, team.ID); err != nil {
					return err
				}
				if err := s.teamRepo.Delete(ctx, exec, team.ID); err != nil {
					return err
				}
				stats.EmptyTeams++
			default:
				return err
			}
		}

		if stats.Registrations, err = s.registrationRepo.DeleteByUser(ctx, exec, id); err != nil {
			return err
		}

		return s.userRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to delete user %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.Int("user_id", id),
		slog.Int64("team_memberships", stats.TeamMemberships),
		slog.Int64("registrations", stats.Registrations),
		slog.Int64("empty_teams", stats.EmptyTeams),
		slog.Int64("promoted_captains", stats.PromotedCaptains),
	)
	return stats, nil
}
