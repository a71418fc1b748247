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

type SessionService interface {
	ListByEvent(ctx context.Context, eventID int) ([]models.EventSession, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, input SessionInput) (*models.EventSession, error)
	Update(ctx context.Context, id int, input SessionInput) (*models.EventSession, error)
	Delete(ctx context.Context, id int) error
}

type SessionInput struct {
	EventID   int     `json:"event_id" validate:"required,gt=0"`
	Title     string  `json:"title" validate:"required,max=255"`
	Speaker   *string `json:"speaker" validate:"omitempty,max=255"`
	Location  *string `json:"location" validate:"omitempty,max=255"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   *string `json:"end_time"`
}

type sessionService struct {
	sessionRepo repositories.SessionRepository
	eventRepo   repositories.EventRepository
	logger      *slog.Logger
}

func NewSessionService(sessionRepo repositories.SessionRepository, eventRepo repositories.EventRepository, logger *slog.Logger) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		eventRepo:   eventRepo,
		logger:      logger,
	}
}

func (s *sessionService) ListByEvent(ctx context.Context, eventID int) ([]models.EventSession, error) {
	return s.sessionRepo.ListByEvent(ctx, eventID)
}

func (s *sessionService) Count(ctx context.Context) (int, error) {
	return s.sessionRepo.Count(ctx)
}

func (s *sessionService) Create(ctx context.Context, input SessionInput) (*models.EventSession, error) {
	session := &models.EventSession{}
	if err := s.applyInput(ctx, session, input); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, repositories.ErrSessionEventInvalid) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.InfoContext(ctx, "session created", slog.Int("session_id", session.ID), slog.Int("event_id", session.EventID))
	return session, nil
}

func (s *sessionService) Update(ctx context.Context, id int, input SessionInput) (*models.EventSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}

	if err := s.applyInput(ctx, session, input); err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSessionNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, repositories.ErrSessionEventInvalid):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update session %d: %w", id, err)
	}
	return session, nil
}

func (s *sessionService) Delete(ctx context.Context, id int) error {
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session %d: %w", id, err)
	}
	return nil
}

func (s *sessionService) applyInput(ctx context.Context, session *models.EventSession, input SessionInput) error {
	title := utils.SanitizePlainText(input.Title)
	if title == "" || input.EventID <= 0 {
		return newValidationError("event_id, title and start_time are required")
	}

	start, err := parseDateTime("start_time", input.StartTime)
	if err != nil {
		return err
	}
	end, err := parseOptionalDateTime("end_time", input.EndTime)
	if err != nil {
		return err
	}
	if err := validateDateRange(start, end); err != nil {
		return err
	}

	if _, err := s.eventRepo.GetByID(ctx, input.EventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to check event %d: %w", input.EventID, err)
	}

	session.EventID = input.EventID
	session.Title = title
	session.Speaker = utils.SanitizeOptional(input.Speaker, false)
	session.Location = utils.SanitizeOptional(input.Location, false)
	session.StartTime = start
	session.EndTime = end
	return nil
}
