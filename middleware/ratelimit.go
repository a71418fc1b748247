package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eventhub-pro/eventhub-api/metrics"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	every       rate.Limit
	burst       int
	ttl         time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func newLimiterStore(perWindow int, window time.Duration) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		every:    rate.Every(window / time.Duration(perWindow)),
		burst:    perWindow,
		ttl:      window,
		now:      time.Now,
	}
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastCleanup) > s.ttl {
		for k, entry := range s.limiters {
			if now.Sub(entry.lastSeen) > s.ttl {
				delete(s.limiters, k)
			}
		}
		s.lastCleanup = now
	}

	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(s.every, s.burst)
	s.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// RateLimit ограничивает число запросов с одного IP: не более perWindow за window.
// perWindow <= 0 отключает ограничение.
func RateLimit(route string, perWindow int, window time.Duration) func(http.Handler) http.Handler {
	if perWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	store := newLimiterStore(perWindow, window)
	retryAfter := strconv.Itoa(int((window / time.Duration(perWindow)).Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.limiter(clientIP(r)).Allow() {
				metrics.RateLimitedTotal.WithLabelValues(route).Inc()
				w.Header().Set("Retry-After", retryAfter)
				writeMessage(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP использует RemoteAddr; заголовки прокси разбирает chi middleware.RealIP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
