package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Handle identifies an armed timer. For CronTimer it is the cron entry ID.
type Handle int64

// Timer arms a callback that fires every day at hour:minute until cancelled.
type Timer interface {
	ScheduleDaily(hour, minute int, fire func()) (Handle, error)
	Cancel(h Handle)
}

var dailyParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func dailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// NextOccurrence returns today at hour:minute in now's location if that is
// still ahead of now, otherwise the same time tomorrow.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	sched, err := dailyParser.Parse(dailySpec(hour, minute))
	if err != nil {
		return time.Time{}
	}
	return sched.Next(now)
}

// CronTimer runs daily callbacks on a robfig/cron scheduler in a fixed location.
type CronTimer struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewCronTimer creates a timer whose schedules are evaluated in loc.
func NewCronTimer(loc *time.Location, logger *slog.Logger) *CronTimer {
	cl := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return &CronTimer{
		cron: cron.New(
			cron.WithParser(dailyParser),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Start begins running armed entries in the background.
func (t *CronTimer) Start() {
	t.cron.Start()
}

// Stop halts the scheduler and waits for running callbacks to return or ctx to expire.
func (t *CronTimer) Stop(ctx context.Context) {
	select {
	case <-t.cron.Stop().Done():
	case <-ctx.Done():
		t.logger.Warn("cron stop timed out")
	}
}

func (t *CronTimer) ScheduleDaily(hour, minute int, fire func()) (Handle, error) {
	id, err := t.cron.AddFunc(dailySpec(hour, minute), fire)
	if err != nil {
		return 0, fmt.Errorf("add cron entry: %w", err)
	}
	return Handle(id), nil
}

func (t *CronTimer) Cancel(h Handle) {
	t.cron.Remove(cron.EntryID(h))
}

// Next reports when h fires next. It returns false for unknown handles or
// before Start.
func (t *CronTimer) Next(h Handle) (time.Time, bool) {
	e := t.cron.Entry(cron.EntryID(h))
	if !e.Valid() || e.Next.IsZero() {
		return time.Time{}, false
	}
	return e.Next, true
}
