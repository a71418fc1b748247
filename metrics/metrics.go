package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventhub"

// Registry - собственный реестр метрик приложения.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Доменные счетчики.
var (
	AuthAttemptsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Login and registration attempts by outcome",
		},
		[]string{"action", "result"},
	)

	RegistrationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_registrations_total",
			Help:      "Event registration attempts by outcome",
		},
		[]string{"result"},
	)

	InvitationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_invitations_total",
			Help:      "Team invitation workflow transitions",
		},
		[]string{"action"},
	)

	RateLimitedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

// RegisterDBStats публикует статистику пула соединений.
func RegisterDBStats(db *sql.DB, dbName string) error {
	return Registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
