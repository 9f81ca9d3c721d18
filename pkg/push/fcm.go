package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/freshfold/freshfold-backend/pkg/config"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

// Sender delivers a push notification to a single device token.
// Implementations must treat delivery as best effort.
type Sender interface {
	Send(ctx context.Context, token, title, body, eventName string, data map[string]string) error
}

// Client sends push notifications through Firebase Cloud Messaging.
type Client struct {
	msg  *messaging.Client
	logg *logger.Logger
}

// NewClient initializes the Firebase app and its messaging client.
func NewClient(ctx context.Context, cfg config.FCMConfig, logg *logger.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("fcm project id is required")
	}

	opts := []option.ClientOption{}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	msg, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase messaging client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "fcm client initialized")
	}

	return &Client{msg: msg, logg: logg}, nil
}

// Send delivers one notification message to the device token. The event name
// rides along in the data payload so the app can route it like a socket event.
func (c *Client) Send(ctx context.Context, token, title, body, eventName string, data map[string]string) error {
	if c == nil || c.msg == nil {
		return errors.New("push client not initialized")
	}
	if token == "" {
		return errors.New("device token is required")
	}

	payload := map[string]string{"event": eventName}
	for k, v := range data {
		payload[k] = v
	}

	message := &messaging.Message{
		Token: token,
		Data:  payload,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	if _, err := c.msg.Send(ctx, message); err != nil {
		return fmt.Errorf("sending push for event %s: %w", eventName, err)
	}
	return nil
}
