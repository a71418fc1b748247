package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/repositories"
	"github.com/eventhub-pro/eventhub-api/services"
	"github.com/eventhub-pro/eventhub-api/storage"
)

type eventServiceDeps struct {
	events        *MockEventRepository
	teams         *MockTeamRepository
	members       *MockTeamMemberRepository
	registrations *MockRegistrationRepository
	tx            *fakeTransactor
	uploader      *MockUploader
}

func newEventService(withUploader bool) (services.EventService, eventServiceDeps) {
	d := eventServiceDeps{
		events:        new(MockEventRepository),
		teams:         new(MockTeamRepository),
		members:       new(MockTeamMemberRepository),
		registrations: new(MockRegistrationRepository),
		tx:            &fakeTransactor{},
		uploader:      new(MockUploader),
	}
	var uploader storage.FileUploader
	if withUploader {
		uploader = d.uploader
	}
	return services.NewEventService(d.events, d.teams, d.members, d.registrations, d.tx, uploader, discardLogger()), d
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults and sanitizing", func(t *testing.T) {
		svc, d := newEventService(false)
		d.events.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Event).ID = 12
		}).Return(nil)

		event, err := svc.Create(ctx, services.EventInput{
			Title:         "<b>GopherCon</b>",
			Description:   strPtr(`<p>Talks</p><script>alert(1)</script>`),
			StartDatetime: "2026-05-01T10:00",
		})

		require.NoError(t, err)
		assert.Equal(t, 12, event.ID)
		assert.Equal(t, "GopherCon", event.Title)
		assert.Equal(t, "<p>Talks</p>", *event.Description)
		assert.Equal(t, "", event.Rules)
		assert.Equal(t, models.RegistrationOpen, event.RegistrationStatus)
		assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), event.StartDatetime)
	})

	t.Run("end before start", func(t *testing.T) {
		svc, d := newEventService(false)

		_, err := svc.Create(ctx, services.EventInput{
			Title:         "Meetup",
			StartDatetime: "2026-05-02T10:00:00Z",
			EndDatetime:   strPtr("2026-05-01T10:00:00Z"),
		})

		assert.ErrorIs(t, err, services.ErrInvalidDateRange)
		d.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown registration status", func(t *testing.T) {
		svc, _ := newEventService(false)

		_, err := svc.Create(ctx, services.EventInput{
			Title:              "Meetup",
			StartDatetime:      "2026-05-02 10:00",
			RegistrationStatus: "maybe",
		})

		assert.ErrorIs(t, err, services.ErrValidationFailed)
	})

	t.Run("rejects negative capacity", func(t *testing.T) {
		svc, _ := newEventService(false)

		_, err := svc.Create(ctx, services.EventInput{Title: "Meetup", StartDatetime: "2026-05-02 10:00", Capacity: intPtr(-1)})

		assert.ErrorIs(t, err, services.ErrValidationFailed)
	})
}

func TestEventService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		svc, d := newEventService(false)
		d.events.On("GetByID", mock.Anything, 404).Return(nil, repositories.ErrEventNotFound)

		_, err := svc.GetByID(ctx, 404)

		assert.ErrorIs(t, err, services.ErrEventNotFound)
	})

	t.Run("poster url from storage", func(t *testing.T) {
		svc, d := newEventService(true)
		d.events.On("GetByID", mock.Anything, 1).Return(&models.Event{ID: 1, PosterKey: strPtr("events/1/poster.png")}, nil)
		d.uploader.On("GetPublicURL", "events/1/poster.png").Return("https://cdn.example.com/events/1/poster.png")

		event, err := svc.GetByID(ctx, 1)

		require.NoError(t, err)
		require.NotNil(t, event.PosterURL)
		assert.Equal(t, "https://cdn.example.com/events/1/poster.png", *event.PosterURL)
	})
}

func TestEventService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses when referenced", func(t *testing.T) {
		svc, d := newEventService(false)
		d.events.On("GetByID", mock.Anything, 3).Return(&models.Event{ID: 3}, nil)
		d.events.On("References", mock.Anything, 3).Return(models.EventReferences{Teams: 1}, nil)

		err := svc.Delete(ctx, 3, false)

		assert.ErrorIs(t, err, services.ErrEventHasDependencies)
		assert.Zero(t, d.tx.calls)
	})

	t.Run("unreferenced event is deleted", func(t *testing.T) {
		svc, d := newEventService(false)
		d.events.On("GetByID", mock.Anything, 3).Return(&models.Event{ID: 3}, nil)
		d.events.On("References", mock.Anything, 3).Return(models.EventReferences{}, nil)
		d.events.On("Delete", mock.Anything, mock.Anything, 3).Return(nil)

		require.NoError(t, svc.Delete(ctx, 3, false))
		d.registrations.AssertNotCalled(t, "DeleteByEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("force removes dependents and poster", func(t *testing.T) {
		svc, d := newEventService(true)
		d.events.On("GetByID", mock.Anything, 3).Return(&models.Event{ID: 3, PosterKey: strPtr("events/3/p.png")}, nil)
		d.uploader.On("GetPublicURL", "events/3/p.png").Return("https://cdn/events/3/p.png")
		d.events.On("References", mock.Anything, 3).Return(models.EventReferences{Teams: 2, Registrations: 5}, nil)
		d.registrations.On("DeleteByEvent", mock.Anything, mock.Anything, 3).Return(int64(5), nil)
		d.members.On("DeleteByEvent", mock.Anything, mock.Anything, 3).Return(int64(4), nil)
		d.teams.On("DeleteByEvent", mock.Anything, mock.Anything, 3).Return(int64(2), nil)
		d.events.On("Delete", mock.Anything, mock.Anything, 3).Return(nil)
		d.uploader.On("Delete", mock.Anything, "events/3/p.png").Return(nil)

		require.NoError(t, svc.Delete(ctx, 3, true))
		assert.Equal(t, 1, d.tx.calls)
		d.registrations.AssertExpectations(t)
		d.members.AssertExpectations(t)
		d.teams.AssertExpectations(t)
		d.uploader.AssertExpectations(t)
	})

	t.Run("foreign key race maps to conflict", func(t *testing.T) {
		svc, d := newEventService(false)
		d.events.On("GetByID", mock.Anything, 3).Return(&models.Event{ID: 3}, nil)
		d.events.On("References", mock.Anything, 3).Return(models.EventReferences{}, nil)
		d.events.On("Delete", mock.Anything, mock.Anything, 3).Return(repositories.ErrEventInUse)

		assert.ErrorIs(t, svc.Delete(ctx, 3, false), services.ErrEventHasDependencies)
	})
}

func TestEventService_UploadPoster(t *testing.T) {
	ctx := context.Background()

	t.Run("storage not configured", func(t *testing.T) {
		svc, _ := newEventService(false)

		_, err := svc.UploadPoster(ctx, 1, "image/png", strings.NewReader("png"))

		assert.ErrorIs(t, err, services.ErrPosterStorageMissing)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		svc, d := newEventService(true)
		d.events.On("GetByID", mock.Anything, 1).Return(&models.Event{ID: 1}, nil)

		_, err := svc.UploadPoster(ctx, 1, "application/pdf", strings.NewReader("pdf"))

		assert.ErrorIs(t, err, services.ErrValidationFailed)
		d.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replaces previous poster", func(t *testing.T) {
		svc, d := newEventService(true)
		d.events.On("GetByID", mock.Anything, 1).Return(&models.Event{ID: 1, PosterKey: strPtr("events/1/old.png")}, nil)
		d.uploader.On("GetPublicURL", mock.Anything).Return("https://cdn/poster")
		d.uploader.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "events/1/poster-") && strings.HasSuffix(key, ".png")
		}), "image/png", mock.Anything).Return(&storage.UploadResult{}, nil)
		d.events.On("UpdatePosterKey", mock.Anything, 1, mock.Anything).Return(nil)
		d.uploader.On("Delete", mock.Anything, "events/1/old.png").Return(nil)

		event, err := svc.UploadPoster(ctx, 1, "image/png", strings.NewReader("png"))

		require.NoError(t, err)
		assert.NotEqual(t, "events/1/old.png", *event.PosterKey)
		assert.Equal(t, "https://cdn/poster", *event.PosterURL)
		d.uploader.AssertExpectations(t)
	})

	t.Run("upload failure", func(t *testing.T) {
		svc, d := newEventService(true)
		d.events.On("GetByID", mock.Anything, 1).Return(&models.Event{ID: 1}, nil)
		d.uploader.On("Upload", mock.Anything, mock.Anything, "image/jpeg", mock.Anything).Return(nil, errors.New("network down"))

		_, err := svc.UploadPoster(ctx, 1, "image/jpeg", strings.NewReader("jpg"))

		require.Error(t, err)
		d.events.AssertNotCalled(t, "UpdatePosterKey", mock.Anything, mock.Anything, mock.Anything)
	})
}
