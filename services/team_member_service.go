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

const invitationEmailTimeout = 30 * time.Second

type TeamMemberService interface {
	// Invite приглашает пользователя в команду. resent = true, если было
	// повторно открыто ранее отклоненное приглашение.
	Invite(ctx context.Context, captainID int, input InviteInput) (member *models.TeamMember, resent bool, err error)
	Accept(ctx context.Context, invitationID, userID int) (*models.TeamMember, error)
	Reject(ctx context.Context, invitationID, userID int) (*models.TeamMember, error)
	Remove(ctx context.Context, memberID, userID int) error
	Leave(ctx context.Context, teamID, userID int) error
	ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error)
	ListInvitations(ctx context.Context, userID int) ([]models.TeamMember, error)
	ListMyTeams(ctx context.Context, userID int) ([]models.MyTeam, error)
}

type InviteInput struct {
	TeamID    int    `json:"team_id" validate:"required,gt=0"`
	UserEmail string `json:"user_email" validate:"required,email"`
}

type TeamMemberServiceOptions struct {
	Notifier Notifier
	Mailer   Mailer
	// LoginURL подставляется в письмо-приглашение.
	LoginURL string
	// Dispatch запускает фоновую отправку писем. По умолчанию - отдельная горутина.
	Dispatch func(func())
}

type teamMemberService struct {
	memberRepo repositories.TeamMemberRepository
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
	tx         repositories.Transactor
	notifier   Notifier
	mailer     Mailer
	loginURL   string
	dispatch   func(func())
	logger     *slog.Logger
}

func NewTeamMemberService(
	memberRepo repositories.TeamMemberRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	tx repositories.Transactor,
	opts TeamMemberServiceOptions,
	logger *slog.Logger,
) TeamMemberService {
	s := &teamMemberService{
		memberRepo: memberRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		tx:         tx,
		notifier:   opts.Notifier,
		mailer:     opts.Mailer,
		loginURL:   opts.LoginURL,
		dispatch:   opts.Dispatch,
		logger:     logger,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.mailer == nil {
		s.mailer = nopMailer{}
	}
	if s.dispatch == nil {
		s.dispatch = func(f func()) { go f() }
	}
	return s
}

func (s *teamMemberService) Invite(ctx context.Context, captainID int, input InviteInput) (*models.TeamMember, bool, error) {
	team, err := s.getTeam(ctx, input.TeamID)
	if err != nil {
		return nil, false, err
	}
	if !team.IsCaptain(captainID) {
		return nil, false, ErrCaptainActionForbidden
	}

	invitee, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(input.UserEmail))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, false, ErrUserEmailNotFound
		}
		return nil, false, fmt.Errorf("failed to find invitee: %w", err)
	}
	if invitee.ID == captainID {
		return nil, false, ErrSelfInvite
	}

	member, resent, err := s.openInvitation(ctx, team, invitee.ID, captainID)
	if err != nil {
		return nil, false, err
	}

	action := "sent"
	if resent {
		action = "resent"
	}
	metrics.InvitationsTotal.WithLabelValues(action).Inc()
	s.logger.InfoContext(ctx, "team invitation "+action,
		slog.Int("invitation_id", member.ID),
		slog.Int("team_id", team.ID),
		slog.Int("user_id", invitee.ID),
	)

	s.notifier.NotifyUser(invitee.ID, NotificationInvitationReceived, InvitationPayload{
		InvitationID: member.ID,
		TeamID:       team.ID,
		TeamName:     team.Name,
		EventID:      team.EventID,
		UserID:       invitee.ID,
		ByUserID:     captainID,
	})
	s.sendInvitationEmail(ctx, team, invitee)

	return member, resent, nil
}

// openInvitation создает pending-строку или переоткрывает отклоненную.
func (s *teamMemberService) openInvitation(ctx context.Context, team *models.Team, inviteeID, captainID int) (*models.TeamMember, bool, error) {
	existing, err := s.memberRepo.GetByTeamAndUser(ctx, team.ID, inviteeID)
	switch {
	case err == nil:
		next, err := existing.Status.Reinvite()
		if err != nil {
			return nil, false, err
		}
		if err := s.memberRepo.Reinvite(ctx, existing.ID, captainID); err != nil {
			if errors.Is(err, repositories.ErrMemberNotFound) {
				return nil, false, ErrInvitationProcessed
			}
			return nil, false, fmt.Errorf("failed to reinvite user %d: %w", inviteeID, err)
		}
		existing.Status = next
		existing.InvitedBy = &captainID
		return existing, true, nil
	case !errors.Is(err, repositories.ErrMemberNotFound):
		return nil, false, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.TeamMember{
		TeamID:    team.ID,
		UserID:    inviteeID,
		EventID:   team.EventID,
		Role:      models.MemberRoleMember,
		Status:    models.MemberStatusPending,
		InvitedBy: &captainID,
	}
	if err := s.memberRepo.Create(ctx, nil, member); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMemberConflict):
			return nil, false, ErrAlreadyInvited
		case errors.Is(err, repositories.ErrMemberReferenceInvalid):
			return nil, false, ErrTeamNotFound
		}
		return nil, false, fmt.Errorf("failed to create invitation: %w", err)
	}
	return member, false, nil
}

func (s *teamMemberService) sendInvitationEmail(ctx context.Context, team *models.Team, invitee *models.User) {
	data := InvitationEmail{
		InviteeName: invitee.Name,
		TeamName:    team.Name,
		LoginURL:    s.loginURL,
	}
	if team.CaptainName != nil {
		data.InviterName = *team.CaptainName
	}
	if team.EventName != nil {
		data.EventName = *team.EventName
	}

	bg := context.WithoutCancel(ctx)
	s.dispatch(func() {
		sendCtx, cancel := context.WithTimeout(bg, invitationEmailTimeout)
		defer cancel()
		if err := s.mailer.SendInvitation(sendCtx, invitee.Email, data); err != nil {
			s.logger.WarnContext(sendCtx, "failed to send invitation email",
				slog.Int("team_id", team.ID),
				slog.Int("user_id", invitee.ID),
				slog.Any("error", err),
			)
		}
	})
}

func (s *teamMemberService) Accept(ctx context.Context, invitationID, userID int) (*models.TeamMember, error) {
	invitation, err := s.addressedInvitation(ctx, invitationID, userID)
	if err != nil {
		return nil, err
	}
	next, err := invitation.Status.Accept()
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.memberRepo.FindAcceptedInEvent(ctx, exec, invitation.EventID, userID)
		switch {
		case err == nil && current.TeamID != invitation.TeamID:
			return &TeamMembershipError{TeamName: current.TeamName, Invitation: true}
		case err != nil && !errors.Is(err, repositories.ErrMemberNotFound):
			return err
		}
		return s.memberRepo.UpdateStatus(ctx, exec, invitation.ID, invitation.Status, next)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInEventTeam):
			return nil, err
		case errors.Is(err, repositories.ErrMemberEventConflict):
			return nil, ErrAlreadyInEventTeam
		case errors.Is(err, repositories.ErrMemberStatusChanged):
			return nil, ErrInvitationProcessed
		}
		return nil, fmt.Errorf("failed to accept invitation %d: %w", invitationID, err)
	}

	invitation.Status = next
	s.notifyCaptain(ctx, invitation, NotificationInvitationAccepted)
	return invitation, nil
}

func (s *teamMemberService) Reject(ctx context.Context, invitationID, userID int) (*models.TeamMember, error) {
	invitation, err := s.addressedInvitation(ctx, invitationID, userID)
	if err != nil {
		return nil, err
	}
	next, err := invitation.Status.Reject()
	if err != nil {
		return nil, err
	}

	if err := s.memberRepo.UpdateStatus(ctx, nil, invitation.ID, invitation.Status, next); err != nil {
		if errors.Is(err, repositories.ErrMemberStatusChanged) {
			return nil, ErrInvitationProcessed
		}
		return nil, fmt.Errorf("failed to reject invitation %d: %w", invitationID, err)
	}

	invitation.Status = next
	s.notifyCaptain(ctx, invitation, NotificationInvitationRejected)
	return invitation, nil
}

func (s *teamMemberService) addressedInvitation(ctx context.Context, invitationID, userID int) (*models.TeamMember, error) {
	invitation, err := s.memberRepo.GetByID(ctx, nil, invitationID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation %d: %w", invitationID, err)
	}
	if invitation.UserID != userID {
		return nil, ErrInvitationNotForUser
	}
	return invitation, nil
}

func (s *teamMemberService) notifyCaptain(ctx context.Context, invitation *models.TeamMember, notificationType string) {
	metrics.InvitationsTotal.WithLabelValues(string(invitation.Status)).Inc()

	team, err := s.teamRepo.GetByID(ctx, nil, invitation.TeamID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load team for notification", slog.Int("team_id", invitation.TeamID), slog.Any("error", err))
		return
	}
	s.notifier.NotifyUser(team.CaptainID, notificationType, InvitationPayload{
		InvitationID: invitation.ID,
		TeamID:       team.ID,
		TeamName:     team.Name,
		EventID:      team.EventID,
		UserID:       invitation.UserID,
		ByUserID:     invitation.UserID,
	})
}

// Remove удаляет участника. Разрешено капитану команды и самому участнику;
// строку капитана удалить нельзя.
func (s *teamMemberService) Remove(ctx context.Context, memberID, userID int) error {
	member, err := s.memberRepo.GetByID(ctx, nil, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to get team member %d: %w", memberID, err)
	}

	team, err := s.getTeam(ctx, member.TeamID)
	if err != nil {
		return err
	}
	if !team.IsCaptain(userID) && member.UserID != userID {
		return ErrForbiddenOperation
	}
	if member.IsLeader() || member.UserID == team.CaptainID {
		return ErrCannotRemoveCaptain
	}

	if err := s.memberRepo.Delete(ctx, nil, member.ID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove team member %d: %w", memberID, err)
	}

	if member.UserID != userID {
		s.notifier.NotifyUser(member.UserID, NotificationMembershipRemoved, InvitationPayload{
			InvitationID: member.ID,
			TeamID:       team.ID,
			TeamName:     team.Name,
			EventID:      team.EventID,
			UserID:       member.UserID,
			ByUserID:     userID,
		})
	}
	s.logger.InfoContext(ctx, "team member removed", slog.Int("team_id", team.ID), slog.Int("user_id", member.UserID), slog.Int("by", userID))
	return nil
}

func (s *teamMemberService) Leave(ctx context.Context, teamID, userID int) error {
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.IsCaptain(userID) {
		return ErrCaptainCannotLeave
	}

	member, err := s.memberRepo.GetByTeamAndUser(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to get membership: %w", err)
	}
	if member.Status != models.MemberStatusAccepted {
		return ErrNotTeamMember
	}

	if err := s.memberRepo.Delete(ctx, nil, member.ID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to leave team %d: %w", teamID, err)
	}

	s.logger.InfoContext(ctx, "user left team", slog.Int("team_id", teamID), slog.Int("user_id", userID))
	return nil
}

func (s *teamMemberService) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	return s.memberRepo.ListByTeam(ctx, teamID)
}

func (s *teamMemberService) ListInvitations(ctx context.Context, userID int) ([]models.TeamMember, error) {
	return s.memberRepo.ListInvitations(ctx, userID)
}

func (s *teamMemberService) ListMyTeams(ctx context.Context, userID int) ([]models.MyTeam, error) {
	return s.memberRepo.ListMyTeams(ctx, userID)
}

func (s *teamMemberService) getTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}
