package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/studyhabit/internal/metrics"
	"github.com/dukerupert/studyhabit/internal/model"
)

// Keys in the durable store.
const (
	KeyScheduleInfo = "notification_schedule_info"
	KeyScheduleID   = "notification_schedule_id"
)

var (
	ErrInvalidTime        = model.ErrInvalidSchedule
	ErrPermissionRequired = errors.New("notification permission not granted; allow notifications in the browser settings")
	ErrDelivery           = errors.New("notification delivery failed")
	ErrTestDelivery       = errors.New("failed to send test notification")
)

// Surface is the foreground notification capability of the platform.
type Surface interface {
	Supported() bool
	Permission(ctx context.Context) (model.PermissionState, error)
	RequestPermission(ctx context.Context) (model.PermissionState, error)
	Show(ctx context.Context, title string, opts model.NotificationOptions) error
}

// PermissionQuerier is implemented by surfaces that expose a site-level
// permission separate from the notification permission.
type PermissionQuerier interface {
	QueryPermission(ctx context.Context) (model.PermissionState, error)
}

// Agent delivers notifications while the app is not in the foreground.
type Agent interface {
	Ready(ctx context.Context) error
	Show(ctx context.Context, title string, opts model.NotificationOptions) error
}

// KV is a durable string store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// SentLog remembers which daily reminders already went out.
type SentLog interface {
	WasSent(ctx context.Context, notifType, referenceID string) (bool, error)
	RecordSent(ctx context.Context, notifType, referenceID string) error
}

type Config struct {
	AgentWaitInterval  time.Duration
	AgentWaitAttempts  int
	AgentProbeInterval time.Duration
	Location           *time.Location
	Now                func() time.Time
}

func (c *Config) setDefaults() {
	if c.AgentWaitInterval <= 0 {
		c.AgentWaitInterval = 500 * time.Millisecond
	}
	if c.AgentWaitAttempts <= 0 {
		c.AgentWaitAttempts = 10
	}
	if c.AgentProbeInterval <= 0 {
		c.AgentProbeInterval = 5 * time.Second
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

type Option func(*Scheduler)

// WithSentLog enables per-day dedup of the daily reminder.
func WithSentLog(l SentLog) Option {
	return func(s *Scheduler) { s.sent = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// Scheduler negotiates permission, dispatches notifications and keeps at most
// one daily reminder armed. Construct one per process and share it.
type Scheduler struct {
	cfg     Config
	surface Surface
	agent   Agent
	kv      KV
	timer   Timer
	sent    SentLog
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	active model.ScheduleConfig
	handle Handle
	armed  bool
	gen    uint64

	agentReady atomic.Bool
	agentLost  chan struct{}

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Scheduler. agent may be nil, in which case every notification
// goes through the surface.
func New(cfg Config, surface Surface, agent Agent, kv KV, timer Timer, logger *slog.Logger, opts ...Option) *Scheduler {
	cfg.setDefaults()
	s := &Scheduler{
		cfg:       cfg,
		surface:   surface,
		agent:     agent,
		kv:        kv,
		timer:     timer,
		logger:    logger,
		agentLost: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start launches the background probe that tracks delivery agent readiness.
// Nothing waits for it; callers that need the agent fall back when it is absent.
func (s *Scheduler) Start(ctx context.Context) {
	s.lifeMu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.lifeMu.Unlock()

	go func() {
		defer close(s.done)
		if s.agent == nil {
			return
		}
		for {
			err := retry.Do(ctx, retry.NewConstant(s.cfg.AgentProbeInterval), func(ctx context.Context) error {
				if err := s.agent.Ready(ctx); err != nil {
					return retry.RetryableError(err)
				}
				return nil
			})
			if err != nil {
				return
			}
			if !s.agentReady.Swap(true) {
				s.logger.Info("delivery agent ready")
			}
			select {
			case <-ctx.Done():
				return
			case <-s.agentLost:
			}
		}
	}()
}

// Stop ends the readiness probe and waits for it to exit.
func (s *Scheduler) Stop() {
	s.lifeMu.Lock()
	cancel := s.cancel
	done := s.done
	s.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) now() time.Time {
	return s.cfg.Now().In(s.cfg.Location)
}

// agentAvailable reports whether notifications should go through the agent.
// A cold cache is confirmed with one direct check.
func (s *Scheduler) agentAvailable(ctx context.Context) bool {
	if s.agent == nil {
		return false
	}
	if s.agentReady.Load() {
		return true
	}
	if err := s.agent.Ready(ctx); err != nil {
		return false
	}
	s.agentReady.Store(true)
	return true
}

func (s *Scheduler) markAgentLost() {
	if s.agentReady.Swap(false) {
		select {
		case s.agentLost <- struct{}{}:
		default:
		}
	}
}
