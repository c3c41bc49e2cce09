package reminder

import (
	"context"
	"fmt"

	"github.com/dukerupert/studyhabit/internal/metrics"
	"github.com/dukerupert/studyhabit/internal/model"
)

// Supported reports whether the platform can show notifications at all.
func (s *Scheduler) Supported() bool {
	return s.surface.Supported()
}

// PermissionStatus reads the current permission without prompting.
// An unsupported platform reads as denied.
func (s *Scheduler) PermissionStatus(ctx context.Context) model.PermissionState {
	if !s.surface.Supported() {
		return model.PermissionDenied
	}
	perm, err := s.surface.Permission(ctx)
	if err != nil {
		s.logger.Warn("read permission", "error", err)
		return model.PermissionPrompt
	}
	return perm
}

// RequestPermission returns the current permission, prompting only when the
// user has not answered yet. A denied user is never prompted again.
func (s *Scheduler) RequestPermission(ctx context.Context) (model.PermissionState, error) {
	if !s.surface.Supported() {
		return model.PermissionDenied, nil
	}
	perm, err := s.surface.Permission(ctx)
	if err != nil {
		return model.PermissionPrompt, fmt.Errorf("read permission: %w", err)
	}
	if perm == model.PermissionGranted || perm == model.PermissionDenied {
		return perm, nil
	}
	perm, err = s.surface.RequestPermission(ctx)
	if err != nil {
		return model.PermissionPrompt, fmt.Errorf("request permission: %w", err)
	}
	s.logger.Info("permission answered", "permission", perm)
	return perm, nil
}

// ShowNotification merges opts over the defaults and displays it. Without
// granted permission it does nothing and returns nil.
func (s *Scheduler) ShowNotification(ctx context.Context, title string, opts model.NotificationOptions) error {
	_, err := s.show(ctx, title, opts)
	return err
}

// show reports whether a notification was handed to a channel.
func (s *Scheduler) show(ctx context.Context, title string, opts model.NotificationOptions) (bool, error) {
	perm, err := s.RequestPermission(ctx)
	if err != nil {
		s.logger.Warn("permission unavailable, notification skipped", "title", title, "error", err)
	}
	if perm != model.PermissionGranted {
		s.metrics.Suppressed(metrics.ReasonPermission)
		s.logger.Debug("notification skipped", "title", title, "permission", perm)
		return false, nil
	}

	merged := opts.Merge(DefaultOptions(s.now()))
	if err := s.dispatch(ctx, title, merged); err != nil {
		return false, err
	}
	return true, nil
}

// dispatch prefers the delivery agent and falls back to the surface, which
// cannot render actions.
func (s *Scheduler) dispatch(ctx context.Context, title string, opts model.NotificationOptions) error {
	if s.agentAvailable(ctx) {
		if err := s.agent.Show(ctx, title, opts); err != nil {
			s.markAgentLost()
			s.metrics.Failed(metrics.ChannelAgent)
			return fmt.Errorf("%w: agent: %w", ErrDelivery, err)
		}
		s.metrics.Dispatched(metrics.ChannelAgent)
		s.logger.Debug("notification shown", "channel", metrics.ChannelAgent, "title", title, "tag", opts.Tag)
		return nil
	}

	opts.Actions = nil
	if err := s.surface.Show(ctx, title, opts); err != nil {
		s.metrics.Failed(metrics.ChannelSurface)
		return fmt.Errorf("%w: surface: %w", ErrDelivery, err)
	}
	s.metrics.Dispatched(metrics.ChannelSurface)
	s.logger.Debug("notification shown", "channel", metrics.ChannelSurface, "title", title, "tag", opts.Tag)
	return nil
}
