package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/dukerupert/studyhabit/internal/model"
)

// ErrNoSubscriptions means no service worker has registered a push endpoint yet.
var ErrNoSubscriptions = errors.New("no push subscriptions registered")

// SubscriptionStore is the subset of store.PushStore the agent needs.
type SubscriptionStore interface {
	List(ctx context.Context) ([]model.PushSubscription, error)
	Count(ctx context.Context) (int, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// Agent delivers notifications through every registered service worker.
// Notifications shown this way persist while the app is closed and support actions.
type Agent struct {
	service *Service
	subs    SubscriptionStore
	logger  *slog.Logger
}

func NewAgent(svc *Service, subs SubscriptionStore, logger *slog.Logger) *Agent {
	return &Agent{service: svc, subs: subs, logger: logger}
}

// Ready reports nil once push is configured and at least one endpoint is registered.
func (a *Agent) Ready(ctx context.Context) error {
	if !a.service.Configured() {
		return ErrNotConfigured
	}
	n, err := a.subs.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSubscriptions
	}
	return nil
}

// Show fans the notification out to all subscriptions. It succeeds if at least
// one push service accepted it; expired endpoints are pruned along the way.
func (a *Agent) Show(ctx context.Context, title string, opts model.NotificationOptions) error {
	subs, err := a.subs.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return ErrNoSubscriptions
	}

	payload := NewPayload(title, opts)

	var errs error
	delivered := 0
	for _, sub := range subs {
		if err := a.service.Send(ctx, &sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				a.logger.Info("pruning expired push subscription", "id", sub.ID)
				if derr := a.subs.DeleteByEndpoint(ctx, sub.Endpoint); derr != nil {
					a.logger.Error("delete expired subscription", "error", derr)
				}
			}
			errs = multierr.Append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return errs
	}
	if errs != nil {
		a.logger.Warn("push partially delivered", "delivered", delivered, "failed", len(multierr.Errors(errs)), "error", errs)
	}
	return nil
}
