package reminder

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/studyhabit/internal/model"
)

// TestNotification sends a self-dismissing confirmation. Unlike
// ShowNotification it fails loudly: missing permission returns
// ErrPermissionRequired and delivery failures wrap ErrTestDelivery.
func (s *Scheduler) TestNotification(ctx context.Context) error {
	perm, err := s.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionRequired, err)
	}
	if perm != model.PermissionGranted {
		return fmt.Errorf("%w (permission is %s)", ErrPermissionRequired, perm)
	}

	if err := s.waitForAgent(ctx); err != nil {
		s.logger.Info("delivery agent not ready, using surface", "error", err)
	}

	shown, err := s.show(ctx, TestTitle, TestOptions(s.now()))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTestDelivery, err)
	}
	if !shown {
		return fmt.Errorf("%w (permission changed before sending)", ErrPermissionRequired)
	}
	s.logger.Info("test notification sent")
	return nil
}

// waitForAgent polls agent readiness a bounded number of times at a fixed interval.
func (s *Scheduler) waitForAgent(ctx context.Context) error {
	if s.agent == nil {
		return nil
	}
	b := retry.WithMaxRetries(uint64(s.cfg.AgentWaitAttempts-1), retry.NewConstant(s.cfg.AgentWaitInterval))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.agent.Ready(ctx); err != nil {
			return retry.RetryableError(err)
		}
		s.agentReady.Store(true)
		return nil
	})
}
