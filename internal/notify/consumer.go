package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/freshfold/freshfold-backend/internal/realtime"
	"github.com/freshfold/freshfold-backend/internal/requests"
	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/events"
	"github.com/freshfold/freshfold-backend/pkg/logger"
	"github.com/freshfold/freshfold-backend/pkg/metrics"
)

// PushSender delivers one push notification. Failures are never fatal to the
// transition that produced the event.
type PushSender interface {
	Send(ctx context.Context, token, title, body, eventName string, data map[string]string) error
}

// Consumer fans request lifecycle events out to their recipients. Each notice
// goes over exactly one channel: the live socket when one is registered,
// otherwise a push notification when a token is on file, otherwise nowhere.
type Consumer struct {
	registry *realtime.Registry
	users    users.Repository
	push     PushSender
	metrics  *metrics.DispatchMetrics
	logg     *logger.Logger
}

// NewConsumer wires the fanout. The push sender is optional; without it
// recipients with no live socket are simply skipped.
func NewConsumer(registry *realtime.Registry, usersRepo users.Repository, push PushSender, m *metrics.DispatchMetrics, logg *logger.Logger) (*Consumer, error) {
	if registry == nil {
		return nil, fmt.Errorf("realtime registry is required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Consumer{
		registry: registry,
		users:    usersRepo,
		push:     push,
		metrics:  m,
		logg:     logg,
	}, nil
}

// Handle implements events.Handler. Delivery is best effort: individual
// failures are collected and logged in one line, never surfaced.
func (c *Consumer) Handle(ctx context.Context, evt events.Event) {
	payload, ok := evt.Payload.(requests.RequestEvent)
	if !ok {
		return
	}

	lctx := c.logg.WithFields(ctx, map[string]any{
		"event":              evt.Name,
		"service_request_id": payload.RequestID.String(),
	})

	var errs error
	for _, notice := range payload.Notices {
		if err := c.deliver(ctx, notice); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notifying %s: %w", notice.UserID, err))
		}
	}
	if errs != nil {
		c.logg.Warn(c.logg.WithField(lctx, "delivery_errors", errs.Error()), "notification fanout incomplete")
	}
}

func (c *Consumer) deliver(ctx context.Context, notice requests.Notice) error {
	// A live socket wins outright. Even a failed emit must not fall back to
	// push, or a flaky connection would double-deliver.
	if conn, ok := c.registry.Lookup(notice.UserID); ok {
		c.metrics.IncNotification("socket")
		return conn.Emit(ctx, notice.Event.String(), notice.Data)
	}

	if c.push == nil {
		return nil
	}

	user, err := c.users.FindByID(ctx, notice.UserID)
	if err != nil {
		return fmt.Errorf("loading recipient: %w", err)
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return nil
	}

	c.metrics.IncNotification("push")
	if err := c.push.Send(ctx, *user.PushToken, notice.PushTitle, notice.PushBody, notice.Event.String(), notice.Data); err != nil {
		return fmt.Errorf("sending push: %w", err)
	}
	return nil
}
