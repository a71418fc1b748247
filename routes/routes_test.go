package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-pro/eventhub-api/handlers"
	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/notifications"
	"github.com/eventhub-pro/eventhub-api/services"
	"github.com/eventhub-pro/eventhub-api/utils"
)

var testSecret = []byte("routes-test-secret")

// Заглушки реализуют только методы, до которых доходят тесты.
type stubEventService struct {
	services.EventService
	count int
}

func (s stubEventService) Count(context.Context) (int, error) { return s.count, nil }

type stubAdminService struct {
	services.AdminService
}

func (stubAdminService) Stats(context.Context) (*models.AdminStats, error) {
	return &models.AdminStats{Users: 3, Events: 2}, nil
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T, authRate int) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Auth:         handlers.NewAuthHandler(nil),
		User:         handlers.NewUserHandler(nil),
		Event:        handlers.NewEventHandler(stubEventService{count: 4}),
		Session:      handlers.NewSessionHandler(nil),
		Team:         handlers.NewTeamHandler(nil),
		TeamMember:   handlers.NewTeamMemberHandler(nil),
		Registration: handlers.NewRegistrationHandler(nil),
		Admin:        handlers.NewAdminHandler(stubAdminService{}),
		WebSocket:    handlers.NewWebSocketHandler(notifications.NewHub(logger), nil, logger),
		Health:       handlers.NewHealthHandler(okPinger{}),
	}, Options{
		JWTSecret:          testSecret,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		AuthRatePer15Min:   authRate,
		Logger:             logger,
	})
	return router
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, &models.User{ID: 11, Email: "u@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/count", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":4}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventhub_http_requests_total")
}

func TestAuthGates(t *testing.T) {
	router := newTestRouter(t, 0)

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/team-members/my-teams", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("participant on admin route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		req.Header.Set("Authorization", bearer(t, models.RoleParticipant))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin on admin route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		req.Header.Set("Authorization", bearer(t, models.RoleAdmin))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"users":3`)
	})

	t.Run("event writes need admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{}`))
		req.Header.Set("Authorization", bearer(t, models.RoleParticipant))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestNotFound(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginRateLimit(t *testing.T) {
	router := newTestRouter(t, 1)

	// Пустое тело отклоняется до обращения к сервису.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
