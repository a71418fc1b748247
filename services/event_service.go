package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/storage"
	"github.com/eventhub-pro/eventhub-api/utils"
)

type EventService interface {
	List(ctx context.Context, sort models.EventSort) ([]models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, input EventInput) (*models.Event, error)
	Update(ctx context.Context, id int, input EventInput) (*models.Event, error)
	// Delete без force отказывает, если на событие ссылаются команды или регистрации.
	Delete(ctx context.Context, id int, force bool) error
	UploadPoster(ctx context.Context, id int, contentType string, data io.Reader) (*models.Event, error)
}

type EventInput struct {
	Title              string  `json:"title" validate:"required,max=255"`
	Description        *string `json:"description"`
	Venue              *string `json:"venue" validate:"omitempty,max=255"`
	StartDatetime      string  `json:"start_datetime" validate:"required"`
	EndDatetime        *string `json:"end_datetime"`
	Capacity           *int    `json:"capacity" validate:"omitempty,min=0"`
	RegistrationStatus string  `json:"registration_status" validate:"omitempty,oneof=open closed"`
	Rules              *string `json:"rules"`
}

type eventService struct {
	eventRepo        repositories.EventRepository
	teamRepo         repositories.TeamRepository
	memberRepo       repositories.TeamMemberRepository
	registrationRepo repositories.RegistrationRepository
	tx               repositories.Transactor
	uploader         storage.FileUploader
	logger           *slog.Logger
}

// NewEventService создает сервис событий. uploader может быть nil,
// тогда загрузка постеров недоступна.
func NewEventService(
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	registrationRepo repositories.RegistrationRepository,
	tx repositories.Transactor,
	uploader storage.FileUploader,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo:        eventRepo,
		teamRepo:         teamRepo,
		memberRepo:       memberRepo,
		registrationRepo: registrationRepo,
		tx:               tx,
		uploader:         uploader,
		logger:           logger,
	}
}

func (s *eventService) List(ctx context.Context, sort models.EventSort) ([]models.Event, error) {
	events, err := s.eventRepo.List(ctx, sort)
	if err != nil {
		return nil, err
	}
	for i := range events {
		s.populatePosterURL(&events[i])
	}
	return events, nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	s.populatePosterURL(event)
	return event, nil
}

func (s *eventService) Count(ctx context.Context) (int, error) {
	return s.eventRepo.Count(ctx)
}

func (s *eventService) Create(ctx context.Context, input EventInput) (*models.Event, error) {
	event := &models.Event{}
	if err := applyEventInput(event, input); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventInvalid) {
			return nil, newValidationError("event data violates constraints")
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.InfoContext(ctx, "event created", slog.Int("event_id", event.ID), slog.String("title", event.Title))
	return event, nil
}

func (s *eventService) Update(ctx context.Context, id int, input EventInput) (*models.Event, error) {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyEventInput(event, input); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		switch {
		case errors.Is(err, repositories.ErrEventNotFound):
			return nil, ErrEventNotFound
		case errors.Is(err, repositories.ErrEventInvalid):
			return nil, newValidationError("event data violates constraints")
		}
		return nil, fmt.Errorf("failed to update event %d: %w", id, err)
	}
	return event, nil
}

// applyEventInput валидирует и очищает ввод, затем переносит его в event.
func applyEventInput(event *models.Event, input EventInput) error {
	title := utils.SanitizePlainText(input.Title)
	if title == "" {
		return newValidationError("title and start date are required")
	}

	start, err := parseDateTime("start_datetime", input.StartDatetime)
	if err != nil {
		return err
	}
	end, err := parseOptionalDateTime("end_datetime", input.EndDatetime)
	if err != nil {
		return err
	}
	if err := validateDateRange(start, end); err != nil {
		return err
	}

	if input.Capacity != nil && *input.Capacity < 0 {
		return newValidationError("capacity must not be negative")
	}

	status := models.RegistrationStatus(input.RegistrationStatus)
	switch status {
	case "":
		status = models.RegistrationOpen
	case models.RegistrationOpen, models.RegistrationClosed:
	default:
		return newValidationError("registration_status must be open or closed")
	}

	event.Title = title
	event.Description = utils.SanitizeOptional(input.Description, true)
	event.Venue = utils.SanitizeOptional(input.Venue, false)
	event.StartDatetime = start
	event.EndDatetime = end
	event.Capacity = input.Capacity
	event.RegistrationStatus = status
	event.Rules = derefString(utils.SanitizeOptional(input.Rules, true))
	return nil
}

func (s *eventService) Delete(ctx context.Context, id int, force bool) error {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.eventRepo.References(ctx, id)
	if err != nil {
		return err
	}
	if refs.Any() && !force {
		return ErrEventHasDependencies
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if force {
			if _, err := s.registrationRepo.DeleteByEvent(ctx, exec, id); err != nil {
				return err
			}
			if _, err := s.memberRepo.DeleteByEvent(ctx, exec, id); err != nil {
				return err
			}
			if _, err := s.teamRepo.DeleteByEvent(ctx, exec, id); err != nil {
				return err
			}
		}
		return s.eventRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrEventNotFound):
			return ErrEventNotFound
		case errors.Is(err, repositories.ErrEventInUse):
			return ErrEventHasDependencies
		}
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "event deleted",
		slog.Int("event_id", id),
		slog.Bool("force", force),
		slog.Int("teams", refs.Teams),
		slog.Int("registrations", refs.Registrations),
	)

	if event.PosterKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *event.PosterKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete poster of removed event", slog.Int("event_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *eventService) UploadPoster(ctx context.Context, id int, contentType string, data io.Reader) (*models.Event, error) {
	if s.uploader == nil {
		return nil, ErrPosterStorageMissing
	}

	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := storage.PosterKey(id, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, newValidationError("poster must be a JPEG, PNG, WebP or GIF image")
		}
		return nil, err
	}

	if _, err := s.uploader.Upload(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("failed to upload poster for event %d: %w", id, err)
	}

	if err := s.eventRepo.UpdatePosterKey(ctx, id, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up uploaded poster", slog.String("key", key), slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to save poster for event %d: %w", id, err)
	}

	if old := event.PosterKey; old != nil && *old != key {
		if err := s.uploader.Delete(ctx, *old); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous poster", slog.String("key", *old), slog.Any("error", err))
		}
	}

	event.PosterKey = &key
	s.populatePosterURL(event)
	return event, nil
}

func (s *eventService) populatePosterURL(event *models.Event) {
	event.PosterURL = nil
	if event.PosterKey == nil || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*event.PosterKey); url != "" {
		event.PosterURL = &url
	}
}
