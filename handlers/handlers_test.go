package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/services"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, string, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *mockAuthService) CreateAdmin(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockEventService struct {
	mock.Mock
}

func (m *mockEventService) List(ctx context.Context, sort models.EventSort) ([]models.Event, error) {
	args := m.Called(ctx, sort)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *mockEventService) GetByID(ctx context.Context, id int) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *mockEventService) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockEventService) Create(ctx context.Context, input services.EventInput) (*models.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *mockEventService) Update(ctx context.Context, id int, input services.EventInput) (*models.Event, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *mockEventService) Delete(ctx context.Context, id int, force bool) error {
	args := m.Called(ctx, id, force)
	return args.Error(0)
}

func (m *mockEventService) UploadPoster(ctx context.Context, id int, contentType string, data io.Reader) (*models.Event, error) {
	args := m.Called(ctx, id, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

type mockTeamMemberService struct {
	mock.Mock
}

func (m *mockTeamMemberService) Invite(ctx context.Context, captainID int, input services.InviteInput) (*models.TeamMember, bool, error) {
	args := m.Called(ctx, captainID, input)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.TeamMember), args.Bool(1), args.Error(2)
}

func (m *mockTeamMemberService) Accept(ctx context.Context, invitationID, userID int) (*models.TeamMember, error) {
	args := m.Called(ctx, invitationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *mockTeamMemberService) Reject(ctx context.Context, invitationID, userID int) (*models.TeamMember, error) {
	args := m.Called(ctx, invitationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *mockTeamMemberService) Remove(ctx context.Context, memberID, userID int) error {
	return m.Called(ctx, memberID, userID).Error(0)
}

func (m *mockTeamMemberService) Leave(ctx context.Context, teamID, userID int) error {
	return m.Called(ctx, teamID, userID).Error(0)
}

func (m *mockTeamMemberService) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *mockTeamMemberService) ListInvitations(ctx context.Context, userID int) ([]models.TeamMember, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *mockTeamMemberService) ListMyTeams(ctx context.Context, userID int) ([]models.MyTeam, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.MyTeam), args.Error(1)
}

type mockRegistrationService struct {
	mock.Mock
}

func (m *mockRegistrationService) Register(ctx context.Context, userID int, input services.RegisterForEventInput) (*models.Registration, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Registration), args.Error(1)
}

func (m *mockRegistrationService) Cancel(ctx context.Context, id, userID int, isAdmin bool) error {
	return m.Called(ctx, id, userID, isAdmin).Error(0)
}

func (m *mockRegistrationService) ListMine(ctx context.Context, userID int) ([]models.Registration, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Registration), args.Error(1)
}

func (m *mockRegistrationService) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockRegistrationService) Ticket(ctx context.Context, id, userID int, isAdmin bool) ([]byte, error) {
	args := m.Called(ctx, id, userID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(mockAuthService)
		h := NewAuthHandler(svc)
		svc.On("Register", mock.Anything, services.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"}).
			Return(&models.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: models.RoleParticipant}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"secret1"}`))
		h.Register(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Registration successful", body["message"])
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := new(mockAuthService)
		h := NewAuthHandler(svc)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrUserEmailConflict)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"name":"Alice","email":"alice@example.com","password":"secret1"}`))
		h.Register(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already exists", decodeBody(t, rec)["message"])
	})

	t.Run("role in body is rejected", func(t *testing.T) {
		svc := new(mockAuthService)
		h := NewAuthHandler(svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"name":"A","email":"a@example.com","password":"secret1","role":"admin"}`))
		h.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	svc := new(mockAuthService)
	h := NewAuthHandler(svc)
	svc.On("Login", mock.Anything, services.LoginInput{Email: "alice@example.com", Password: "secret1"}).
		Return(&models.User{ID: 1, Name: "Alice"}, "jwt-token", nil)
	svc.On("Login", mock.Anything, services.LoginInput{Email: "alice@example.com", Password: "wrong"}).
		Return(nil, "", services.ErrInvalidCredentials)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"secret1"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "jwt-token", body["token"])
	assert.Equal(t, "Login successful", body["message"])

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody(t, rec)["message"])
}

func TestEventHandler_GetByID(t *testing.T) {
	svc := new(mockEventService)
	h := NewEventHandler(svc)
	svc.On("GetByID", mock.Anything, 5).Return(&models.Event{ID: 5, Title: "GopherCon"}, nil)
	svc.On("GetByID", mock.Anything, 6).Return(nil, services.ErrEventNotFound)

	rec := httptest.NewRecorder()
	h.GetByID(rec, withURLParams(httptest.NewRequest(http.MethodGet, "/events/5", nil), map[string]string{"eventID": "5"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decodeBody(t, rec)["rules"])

	rec = httptest.NewRecorder()
	h.GetByID(rec, withURLParams(httptest.NewRequest(http.MethodGet, "/events/6", nil), map[string]string{"eventID": "6"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Event not found", decodeBody(t, rec)["message"])
}

func TestEventHandler_Delete(t *testing.T) {
	svc := new(mockEventService)
	h := NewEventHandler(svc)
	svc.On("Delete", mock.Anything, 5, false).Return(services.ErrEventHasDependencies)
	svc.On("Delete", mock.Anything, 5, true).Return(nil)

	rec := httptest.NewRecorder()
	h.Delete(rec, withURLParams(httptest.NewRequest(http.MethodDelete, "/events/5", nil), map[string]string{"eventID": "5"}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.Delete(rec, withURLParams(httptest.NewRequest(http.MethodDelete, "/events/5?force=true", nil), map[string]string{"eventID": "5"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Delete(rec, withURLParams(httptest.NewRequest(http.MethodDelete, "/events/5?force=maybe", nil), map[string]string{"eventID": "5"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandler_List(t *testing.T) {
	svc := new(mockEventService)
	h := NewEventHandler(svc)
	svc.On("List", mock.Anything, models.EventSortAlphabetical).Return([]models.Event{{ID: 1}, {ID: 2}}, nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/events?sortBy=alphabetical", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "["))
	svc.AssertExpectations(t)
}

func TestEventHandler_UploadPoster(t *testing.T) {
	svc := new(mockEventService)
	h := NewEventHandler(svc)
	url := "https://cdn.example.com/events/5/poster.png"
	svc.On("UploadPoster", mock.Anything, 5, "image/png", mock.Anything).Return(&models.Event{ID: 5, PosterURL: &url}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="poster"; filename="poster.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/events/5/poster", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UploadPoster(rec, withURLParams(req, map[string]string{"eventID": "5"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, url, decodeBody(t, rec)["poster_url"])
}

func TestTeamMemberHandler_Invite(t *testing.T) {
	input := services.InviteInput{TeamID: 4, UserEmail: "dana@example.com"}
	body := `{"team_id":4,"user_email":"dana@example.com"}`

	t.Run("new invitation", func(t *testing.T) {
		svc := new(mockTeamMemberService)
		h := NewTeamMemberHandler(svc)
		svc.On("Invite", mock.Anything, 7, input).Return(&models.TeamMember{ID: 51}, false, nil)

		rec := httptest.NewRecorder()
		h.Invite(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/team-members/invite", strings.NewReader(body)), 7, models.RoleParticipant))

		assert.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, "Invitation sent successfully", resp["message"])
		assert.Equal(t, float64(51), resp["invitation_id"])
	})

	t.Run("resent", func(t *testing.T) {
		svc := new(mockTeamMemberService)
		h := NewTeamMemberHandler(svc)
		svc.On("Invite", mock.Anything, 7, input).Return(&models.TeamMember{ID: 50}, true, nil)

		rec := httptest.NewRecorder()
		h.Invite(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/team-members/invite", strings.NewReader(body)), 7, models.RoleParticipant))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Invitation resent successfully", decodeBody(t, rec)["message"])
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := new(mockTeamMemberService)
		h := NewTeamMemberHandler(svc)

		rec := httptest.NewRecorder()
		h.Invite(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/team-members/invite", strings.NewReader(`{}`)), 7, models.RoleParticipant))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(mockTeamMemberService)
		h := NewTeamMemberHandler(svc)

		rec := httptest.NewRecorder()
		h.Invite(rec, httptest.NewRequest(http.MethodPost, "/team-members/invite", strings.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTeamMemberHandler_Accept(t *testing.T) {
	svc := new(mockTeamMemberService)
	h := NewTeamMemberHandler(svc)
	svc.On("Accept", mock.Anything, 50, 9).Return(nil, services.ErrInvitationProcessed)

	rec := httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodPut, "/team-members/accept/50", nil), 9, models.RoleParticipant)
	h.Accept(rec, withURLParams(req, map[string]string{"invitationID": "50"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invitation already processed", decodeBody(t, rec)["message"])
}

func TestRegistrationHandler(t *testing.T) {
	t.Run("full event", func(t *testing.T) {
		svc := new(mockRegistrationService)
		h := NewRegistrationHandler(svc)
		svc.On("Register", mock.Anything, 9, services.RegisterForEventInput{EventID: 2}).Return(nil, services.ErrEventFull)

		rec := httptest.NewRecorder()
		h.Register(rec, withIdentity(httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(`{"event_id":2}`)), 9, models.RoleParticipant))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Event is full", decodeBody(t, rec)["message"])
	})

	t.Run("cancel passes admin flag", func(t *testing.T) {
		svc := new(mockRegistrationService)
		h := NewRegistrationHandler(svc)
		svc.On("Cancel", mock.Anything, 70, 1, true).Return(nil)

		rec := httptest.NewRecorder()
		req := withIdentity(httptest.NewRequest(http.MethodDelete, "/registrations/70", nil), 1, models.RoleAdmin)
		h.Cancel(rec, withURLParams(req, map[string]string{"registrationID": "70"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("ticket png", func(t *testing.T) {
		svc := new(mockRegistrationService)
		h := NewRegistrationHandler(svc)
		svc.On("Ticket", mock.Anything, 70, 9, false).Return([]byte("\x89PNG"), nil)

		rec := httptest.NewRecorder()
		req := withIdentity(httptest.NewRequest(http.MethodGet, "/registrations/70/ticket", nil), 9, models.RoleParticipant)
		h.Ticket(rec, withURLParams(req, map[string]string{"registrationID": "70"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", rec.Body.String())
	})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(pingerFunc(func(context.Context) error { return nil })).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(pingerFunc(func(context.Context) error { return io.ErrUnexpectedEOF })).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173/"})

	req := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
