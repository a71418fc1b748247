package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eventhub-pro/eventhub-api/metrics"
	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/utils"
)

type RegistrationService interface {
	Register(ctx context.Context, userID int, input RegisterForEventInput) (*models.Registration, error)
	Cancel(ctx context.Context, id, userID int, isAdmin bool) error
	ListMine(ctx context.Context, userID int) ([]models.Registration, error)
	Count(ctx context.Context) (int, error)
	// Ticket возвращает PNG с QR-кодом билета.
	Ticket(ctx context.Context, id, userID int, isAdmin bool) ([]byte, error)
}

type RegisterForEventInput struct {
	EventID int `json:"event_id" validate:"required,gt=0"`
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	eventRepo        repositories.EventRepository
	tx               repositories.Transactor
	publicURL        string
	logger           *slog.Logger
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	eventRepo repositories.EventRepository,
	tx repositories.Transactor,
	publicURL string,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		tx:               tx,
		publicURL:        publicURL,
		logger:           logger,
	}
}

// Register записывает пользователя на событие. Проверка вместимости идет
// под блокировкой строки события, поэтому параллельные запросы не превышают capacity.
func (s *registrationService) Register(ctx context.Context, userID int, input RegisterForEventInput) (reg *models.Registration, err error) {
	defer func() {
		metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
	}()

	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", input.EventID, err)
	}
	if event.RegistrationStatus == models.RegistrationClosed {
		return nil, ErrRegistrationClosed
	}

	reg = &models.Registration{
		UserID:  userID,
		EventID: input.EventID,
		Status:  models.RegistrationStatusRegistered,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.eventRepo.GetForUpdate(ctx, exec, input.EventID)
		if err != nil {
			return err
		}
		if locked.RegistrationStatus == models.RegistrationClosed {
			return ErrRegistrationClosed
		}

		exists, err := s.registrationRepo.ExistsIndividual(ctx, exec, userID, input.EventID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}

		if locked.HasCapacityLimit() {
			registered, err := s.registrationRepo.CountRegistered(ctx, exec, input.EventID)
			if err != nil {
				return err
			}
			if registered >= *locked.Capacity {
				return ErrEventFull
			}
		}

		return s.registrationRepo.Create(ctx, exec, reg)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRegistrationClosed), errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrEventFull):
			return nil, err
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrAlreadyRegistered
		case errors.Is(err, repositories.ErrEventNotFound), errors.Is(err, repositories.ErrRegistrationReferenceInvalid):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to register for event %d: %w", input.EventID, err)
	}

	reg.EventName = event.Title
	reg.StartDatetime = &event.StartDatetime
	reg.Venue = event.Venue

	s.logger.InfoContext(ctx, "event registration created",
		slog.Int("registration_id", reg.ID),
		slog.Int("event_id", reg.EventID),
		slog.Int("user_id", userID),
	)
	return reg, nil
}

func registrationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEventFull):
		return "full"
	case errors.Is(err, ErrAlreadyRegistered):
		return "duplicate"
	case errors.Is(err, ErrRegistrationClosed):
		return "closed"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (s *registrationService) Cancel(ctx context.Context, id, userID int, isAdmin bool) error {
	if _, err := s.ownedRegistration(ctx, id, userID, isAdmin); err != nil {
		return err
	}

	if err := s.registrationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to cancel registration %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "event registration cancelled", slog.Int("registration_id", id), slog.Int("by", userID))
	return nil
}

func (s *registrationService) ListMine(ctx context.Context, userID int) ([]models.Registration, error) {
	return s.registrationRepo.ListByUser(ctx, userID)
}

func (s *registrationService) Count(ctx context.Context) (int, error) {
	return s.registrationRepo.Count(ctx)
}

func (s *registrationService) Ticket(ctx context.Context, id, userID int, isAdmin bool) ([]byte, error) {
	reg, err := s.ownedRegistration(ctx, id, userID, isAdmin)
	if err != nil {
		return nil, err
	}
	return utils.TicketQRCode(ticketContent(s.publicURL, reg))
}

// ticketContent - ссылка, которую сканирует персонал на входе.
func ticketContent(publicURL string, reg *models.Registration) string {
	return fmt.Sprintf("%s/registrations/%d?event=%d&user=%d", publicURL, reg.ID, reg.EventID, reg.UserID)
}

func (s *registrationService) ownedRegistration(ctx context.Context, id, userID int, isAdmin bool) (*models.Registration, error) {
	reg, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration %d: %w", id, err)
	}
	if reg.UserID != userID && !isAdmin {
		return nil, ErrForbiddenOperation
	}
	return reg, nil
}
