package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/studyhabit/internal/config"
	"github.com/dukerupert/studyhabit/internal/database"
	"github.com/dukerupert/studyhabit/internal/logging"
	"github.com/dukerupert/studyhabit/internal/metrics"
	"github.com/dukerupert/studyhabit/internal/push"
	"github.com/dukerupert/studyhabit/internal/reminder"
	"github.com/dukerupert/studyhabit/internal/server"
	"github.com/dukerupert/studyhabit/internal/store"
	ws "github.com/dukerupert/studyhabit/internal/websocket"
)

const (
	cleanupInterval = time.Hour
	sentRetention   = 30 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the daily reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	kv := store.NewKVStore(db)
	pushStore := store.NewPushStore(db)
	m := metrics.New()

	hub := ws.NewHub(kv, cfg.PermissionTimeout, logger.With("component", "websocket"))
	if err := hub.Load(ctx); err != nil {
		return err
	}

	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.VAPIDSubscriber,
	})
	var agent reminder.Agent
	if cfg.PushEnabled() {
		agent = push.NewAgent(pushSvc, pushStore, logger.With("component", "push"))
	} else {
		logger.Warn("VAPID keys not set, notifications only reach open tabs")
	}

	timer := reminder.NewCronTimer(loc, logger.With("component", "cron"))
	timer.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		timer.Stop(stopCtx)
	}()

	sched := reminder.New(reminder.Config{
		AgentWaitInterval:  cfg.AgentWaitInterval,
		AgentWaitAttempts:  cfg.AgentWaitAttempts,
		AgentProbeInterval: cfg.AgentProbeInterval,
		Location:           loc,
	}, hub, agent, kv, timer, logger.With("component", "reminder"),
		reminder.WithSentLog(pushStore),
		reminder.WithMetrics(m),
	)
	sched.Start(ctx)
	defer sched.Stop()

	// Timers do not survive a restart; re-arm whatever was saved.
	if resumed, err := sched.Resume(ctx); err != nil {
		logger.Error("resume daily reminder", "error", err)
	} else if resumed {
		logger.Info("daily reminder resumed")
	}

	srv := server.New(server.Deps{
		Notifier:       sched,
		Hub:            hub,
		PushStore:      pushStore,
		PushService:    pushSvc,
		Metrics:        m,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)

	go runCleanup(ctx, pushStore, srv, logger.With("component", "cleanup"))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("studyhabit running", "addr", "http://localhost:"+cfg.Port, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runCleanup(ctx context.Context, pushStore *store.PushStore, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pushStore.CleanupSent(ctx, time.Now().Add(-sentRetention))
			if err != nil {
				logger.Error("cleanup sent notifications", "error", err)
			} else if n > 0 {
				logger.Debug("pruned sent notifications", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}
