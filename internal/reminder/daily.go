package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/studyhabit/internal/metrics"
	"github.com/dukerupert/studyhabit/internal/model"
)

const fireTimeout = 30 * time.Second

// ScheduleDaily replaces any existing reminder with one firing every day at
// hour:minute. The config is persisted before the timer is armed.
func (s *Scheduler) ScheduleDaily(ctx context.Context, hour, minute int) error {
	if err := model.ValidateTime(hour, minute); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearLocked(ctx); err != nil {
		return err
	}
	return s.armLocked(ctx, model.DailySchedule(hour, minute))
}

func (s *Scheduler) armLocked(ctx context.Context, cfg model.ScheduleConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	if err := s.kv.Set(ctx, KeyScheduleInfo, string(data)); err != nil {
		return fmt.Errorf("persist schedule: %w", err)
	}

	s.gen++
	gen := s.gen
	h, err := s.timer.ScheduleDaily(cfg.Hour, cfg.Minute, func() { s.fire(gen) })
	if err != nil {
		return fmt.Errorf("arm daily timer: %w", err)
	}
	s.handle = h
	s.armed = true
	s.active = cfg
	s.metrics.SetScheduleActive(true)

	if err := s.kv.Set(ctx, KeyScheduleID, strconv.FormatInt(int64(h), 10)); err != nil {
		s.logger.Error("persist schedule handle", "handle", h, "error", err)
	}

	s.logger.Info("daily reminder scheduled",
		"time", cfg.Clock(),
		"next", NextOccurrence(s.now(), cfg.Hour, cfg.Minute),
	)
	return nil
}

// ClearAllSchedules cancels the reminder and forgets it. Calling it with
// nothing scheduled is a no-op.
func (s *Scheduler) ClearAllSchedules(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Scheduler) clearLocked(ctx context.Context) error {
	if s.armed {
		s.timer.Cancel(s.handle)
		s.logger.Info("daily reminder cancelled", "handle", s.handle)
	} else if raw, ok, err := s.kv.Get(ctx, KeyScheduleID); err == nil && ok {
		// Handles from a previous process are not live; only the record goes.
		s.logger.Debug("dropping stale schedule handle", "handle", raw)
	}
	s.armed = false
	s.handle = 0
	s.active = model.DisabledSchedule()
	s.gen++
	s.metrics.SetScheduleActive(false)

	if err := s.kv.Delete(ctx, KeyScheduleInfo, KeyScheduleID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// SavedScheduleInfo returns the persisted reminder, or the disabled default
// when none is stored or the record is unreadable.
func (s *Scheduler) SavedScheduleInfo(ctx context.Context) model.ScheduleConfig {
	raw, ok, err := s.kv.Get(ctx, KeyScheduleInfo)
	if err != nil {
		s.logger.Error("read saved schedule", "error", err)
		return model.DisabledSchedule()
	}
	if !ok {
		return model.DisabledSchedule()
	}
	var cfg model.ScheduleConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Warn("ignoring malformed saved schedule", "value", raw, "error", err)
		return model.DisabledSchedule()
	}
	return cfg
}

// Resume re-arms a persisted reminder after a process restart. The host must
// call it once during startup. It reports whether a timer was armed.
func (s *Scheduler) Resume(ctx context.Context) (bool, error) {
	cfg := s.SavedScheduleInfo(ctx)
	if !cfg.Enabled {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.armed {
		return false, nil
	}
	if err := s.armLocked(ctx, cfg); err != nil {
		return false, fmt.Errorf("resume schedule: %w", err)
	}
	s.logger.Info("daily reminder restored", "time", cfg.Clock())
	return true, nil
}

// fire runs on the timer goroutine. Callbacks from a cancelled or replaced
// schedule are ignored.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	live := s.armed && s.gen == gen
	cfg := s.active
	s.mu.Unlock()
	if !live {
		s.logger.Debug("ignoring stale reminder fire", "generation", gen)
		return
	}
	s.metrics.Fired()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	now := s.now()
	day := now.Format(time.DateOnly)
	// One reminder per configured time per day; a reschedule gets its own slot.
	ref := day + "T" + cfg.Clock()
	if s.sent != nil {
		sent, err := s.sent.WasSent(ctx, model.NotifTypeDailyReminder, ref)
		if err != nil {
			s.logger.Error("check sent reminder", "error", err)
		} else if sent {
			s.metrics.Suppressed(metrics.ReasonDuplicate)
			s.logger.Debug("daily reminder already sent", "ref", ref)
			return
		}
	}

	shown, err := s.show(ctx, DailyTitle, DailyOptions(cfg, now))
	if err != nil {
		s.logger.Error("daily reminder failed", "error", err)
		return
	}
	if !shown {
		return
	}
	s.logger.Info("daily reminder sent", "time", cfg.Clock(), "date", day)

	if s.sent != nil {
		if err := s.sent.RecordSent(ctx, model.NotifTypeDailyReminder, ref); err != nil {
			s.logger.Error("record sent reminder", "error", err)
		}
	}
}

type nextFirer interface {
	Next(h Handle) (time.Time, bool)
}

// Info summarises the subsystem for status displays.
func (s *Scheduler) Info(ctx context.Context) model.NotificationInfo {
	s.mu.Lock()
	armed, h, active := s.armed, s.handle, s.active
	s.mu.Unlock()

	info := model.NotificationInfo{
		Supported:   s.Supported(),
		Permission:  s.PermissionStatus(ctx),
		HasSchedule: armed,
		AgentReady:  s.agentAvailable(ctx),
		Schedule:    s.SavedScheduleInfo(ctx),
	}
	if armed {
		next := NextOccurrence(s.now(), active.Hour, active.Minute)
		if nf, ok := s.timer.(nextFirer); ok {
			if t, ok := nf.Next(h); ok {
				next = t
			}
		}
		info.NextFire = &next
	}
	return info
}
