package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/utils"
)

type TeamService interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]models.Team, error)
	// GetWithMembers загружает команду и ее состав параллельно.
	GetWithMembers(ctx context.Context, id int) (*models.Team, error)
	Create(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error)
	Rename(ctx context.Context, teamID, userID int, input RenameTeamInput) (*models.Team, error)
	Delete(ctx context.Context, teamID, userID int) error
}

type CreateTeamInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	EventID int    `json:"event_id" validate:"required,gt=0"`
}

type RenameTeamInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	memberRepo repositories.TeamMemberRepository
	eventRepo  repositories.EventRepository
	tx         repositories.Transactor
	logger     *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	eventRepo repositories.EventRepository,
	tx repositories.Transactor,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		eventRepo:  eventRepo,
		tx:         tx,
		logger:     logger,
	}
}

func (s *teamService) Count(ctx context.Context) (int, error) {
	return s.teamRepo.Count(ctx)
}

func (s *teamService) List(ctx context.Context) ([]models.Team, error) {
	return s.teamRepo.List(ctx)
}

func (s *teamService) ListByEvent(ctx context.Context, eventID int) ([]models.Team, error) {
	return s.teamRepo.ListByEvent(ctx, eventID)
}

func (s *teamService) GetWithMembers(ctx context.Context, id int) (*models.Team, error) {
	var (
		team    *models.Team
		members []models.TeamMember
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		team, err = s.teamRepo.GetByID(gctx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = s.memberRepo.ListByTeam(gctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	if members == nil {
		members = []models.TeamMember{}
	}
	team.Members = members
	return team, nil
}

// Create создает команду и строку капитана (Leader, accepted) в одной
// транзакции. Пользователь может состоять только в одной команде события.
func (s *teamService) Create(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error) {
	name := utils.SanitizePlainText(input.Name)
	if name == "" || input.EventID <= 0 {
		return nil, newValidationError("team name and event are required")
	}

	if _, err := s.eventRepo.GetByID(ctx, input.EventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to check event %d: %w", input.EventID, err)
	}

	team := &models.Team{
		Name:      name,
		EventID:   input.EventID,
		CaptainID: captainID,
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		existing, err := s.memberRepo.FindAcceptedInEvent(ctx, exec, input.EventID, captainID)
		switch {
		case err == nil:
			return &TeamMembershipError{TeamName: existing.TeamName}
		case !errors.Is(err, repositories.ErrMemberNotFound):
			return err
		}

		taken, err := s.teamRepo.NameTaken(ctx, exec, input.EventID, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrTeamNameConflict
		}

		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return err
		}

		leader := &models.TeamMember{
			TeamID:  team.ID,
			UserID:  captainID,
			EventID: input.EventID,
			Role:    models.MemberRoleLeader,
			Status:  models.MemberStatusAccepted,
		}
		return s.memberRepo.Create(ctx, exec, leader)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInEventTeam), errors.Is(err, ErrTeamNameConflict):
			return nil, err
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrMemberEventConflict):
			return nil, ErrAlreadyInEventTeam
		case errors.Is(err, repositories.ErrTeamReferencesInvalid):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.logger.InfoContext(ctx, "team created",
		slog.Int("team_id", team.ID),
		slog.Int("event_id", team.EventID),
		slog.Int("captain_id", captainID),
	)
	return team, nil
}

func (s *teamService) Rename(ctx context.Context, teamID, userID int, input RenameTeamInput) (*models.Team, error) {
	name := utils.SanitizePlainText(input.Name)
	if name == "" {
		return nil, newValidationError("team name is required")
	}

	team, err := s.captainedTeam(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	taken, err := s.teamRepo.NameTaken(ctx, nil, team.EventID, name, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}
	if taken {
		return nil, ErrTeamNameConflict
	}

	if err := s.teamRepo.UpdateName(ctx, team.ID, name); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to rename team %d: %w", teamID, err)
	}

	team.Name = name
	return team, nil
}

// Delete удаляет команду вместе со всеми строками team_members.
func (s *teamService) Delete(ctx context.Context, teamID, userID int) error {
	if _, err := s.captainedTeam(ctx, teamID, userID); err != nil {
		return err
	}

	var removed int64
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		if removed, err = s.memberRepo.DeleteByTeam(ctx, exec, teamID); err != nil {
			return err
		}
		return s.teamRepo.Delete(ctx, exec, teamID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}

	s.logger.InfoContext(ctx, "team deleted", slog.Int("team_id", teamID), slog.Int64("members_removed", removed))
	return nil
}

func (s *teamService) captainedTeam(ctx context.Context, teamID, userID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if !team.IsCaptain(userID) {
		return nil, ErrCaptainActionForbidden
	}
	return team, nil
}
