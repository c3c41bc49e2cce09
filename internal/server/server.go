package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/studyhabit/internal/handler"
	"github.com/dukerupert/studyhabit/internal/metrics"
	"github.com/dukerupert/studyhabit/internal/middleware"
	"github.com/dukerupert/studyhabit/internal/push"
	"github.com/dukerupert/studyhabit/internal/store"
	ws "github.com/dukerupert/studyhabit/internal/websocket"
)

const (
	testNotificationLimit  = 5
	testNotificationWindow = time.Minute
)

// Deps are the long-lived components the HTTP layer exposes.
type Deps struct {
	Notifier       handler.Notifier
	Hub            *ws.Hub
	PushStore      *store.PushStore
	PushService    *push.Service
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

type Server struct {
	hub            *ws.Hub
	notificationH  *handler.NotificationHandler
	pushH          *handler.PushHandler
	metrics        *metrics.Metrics
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	logger         *slog.Logger
}

func New(deps Deps, logger *slog.Logger) *Server {
	return &Server{
		hub:            deps.Hub,
		notificationH:  handler.NewNotificationHandler(deps.Notifier, logger.With("component", "notification_handler")),
		pushH:          handler.NewPushHandler(deps.PushStore, deps.PushService, logger.With("component", "push_handler")),
		metrics:        deps.Metrics,
		rateLimiter:    middleware.NewRateLimiter(),
		allowedOrigins: deps.AllowedOrigins,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Notification API
	mux.HandleFunc("GET /api/notifications/info", s.notificationH.Info)
	mux.HandleFunc("POST /api/notifications/permission", s.notificationH.RequestPermission)
	mux.HandleFunc("POST /api/notifications", s.notificationH.Show)
	mux.HandleFunc("POST /api/notifications/test", s.rateLimitedHandler(s.notificationH.Test))
	mux.HandleFunc("GET /api/notifications/diagnosis", s.notificationH.Diagnose)
	mux.HandleFunc("GET /api/notifications/schedule", s.notificationH.GetSchedule)
	mux.HandleFunc("PUT /api/notifications/schedule", s.notificationH.PutSchedule)
	mux.HandleFunc("DELETE /api/notifications/schedule", s.notificationH.DeleteSchedule)

	// Push subscription API
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, testNotificationLimit, testNotificationWindow)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
