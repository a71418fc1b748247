package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/eventhub-pro/eventhub-api/docs"
	"github.com/eventhub-pro/eventhub-api/handlers"
	"github.com/eventhub-pro/eventhub-api/metrics"
	"github.com/eventhub-pro/eventhub-api/middleware"
	"github.com/eventhub-pro/eventhub-api/models"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Event        *handlers.EventHandler
	Session      *handlers.SessionHandler
	Team         *handlers.TeamHandler
	TeamMember   *handlers.TeamMemberHandler
	Registration *handlers.RegistrationHandler
	Admin        *handlers.AdminHandler
	WebSocket    *handlers.WebSocketHandler
	Health       *handlers.HealthHandler
}

type Options struct {
	JWTSecret          []byte
	CORSAllowedOrigins []string
	// AuthRatePer15Min ограничивает login/register с одного IP.
	AuthRatePer15Min int
	Logger           *slog.Logger
}

const authRateWindow = 15 * time.Minute

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(metrics.HTTPMiddleware)

	authenticate := middleware.Authenticate(opts.JWTSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/healthz", h.Health.Healthz)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.With(middleware.AuthenticateWS(opts.JWTSecret)).Get("/ws/notifications", h.WebSocket.ServeWs)

	router.Route("/auth", func(r chi.Router) {
		r.With(middleware.RateLimit("auth_register", opts.AuthRatePer15Min, authRateWindow)).Post("/register", h.Auth.Register)
		r.With(middleware.RateLimit("auth_login", opts.AuthRatePer15Min, authRateWindow)).Post("/login", h.Auth.Login)
		r.With(authenticate).Get("/me", h.User.Me)
	})

	router.Route("/users", func(r chi.Router) {
		r.Get("/count", h.User.Count)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", h.User.Me)
			r.Put("/me", h.User.UpdateMe)
			r.Put("/me/password", h.User.ChangePassword)
			r.Get("/{userID}", h.User.GetByID)

			r.With(adminOnly).Get("/", h.User.List)
			r.With(adminOnly).Delete("/{userID}", h.User.Delete)
		})
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/", h.Event.List)
		r.Get("/count", h.Event.Count)
		r.Get("/{eventID}", h.Event.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			r.Post("/", h.Event.Create)
			r.Put("/{eventID}", h.Event.Update)
			r.Delete("/{eventID}", h.Event.Delete)
			r.Put("/{eventID}/poster", h.Event.UploadPoster)
		})
	})

	router.Route("/sessions", func(r chi.Router) {
		r.Get("/count", h.Session.Count)
		r.Get("/event/{eventID}", h.Session.ListByEvent)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			r.Post("/", h.Session.Create)
			r.Put("/{sessionID}", h.Session.Update)
			r.Delete("/{sessionID}", h.Session.Delete)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/count", h.Team.Count)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Team.List)
			r.Get("/event/{eventID}", h.Team.ListByEvent)
			r.Get("/{teamID}", h.Team.GetByID)
			r.Post("/", h.Team.Create)
			r.Put("/{teamID}", h.Team.Update)
			r.Delete("/{teamID}", h.Team.Delete)
		})
	})

	router.Route("/team-members", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/team/{teamID}", h.TeamMember.ListByTeam)
		r.Get("/my-invitations", h.TeamMember.MyInvitations)
		r.Get("/my-teams", h.TeamMember.MyTeams)
		r.Post("/invite", h.TeamMember.Invite)
		r.Put("/accept/{invitationID}", h.TeamMember.Accept)
		r.Put("/reject/{invitationID}", h.TeamMember.Reject)
		r.Delete("/leave/{teamID}", h.TeamMember.Leave)
		r.Delete("/{memberID}", h.TeamMember.Remove)
	})

	router.Route("/registrations", func(r chi.Router) {
		r.Get("/count", h.Registration.Count)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Registration.Register)
			r.Get("/my", h.Registration.Mine)
			r.Get("/{registrationID}/ticket", h.Registration.Ticket)
			r.Delete("/{registrationID}", h.Registration.Cancel)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Get("/team-members-count", h.Admin.TeamMembersCount)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			r.Get("/team-members", h.Admin.TeamMembers)
			r.Get("/stats", h.Admin.Stats)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Route not found"}`))
	})
}
