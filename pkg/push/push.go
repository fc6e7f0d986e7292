package push

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client sends push notifications through Firebase Cloud Messaging. Clients
// subscribe to their per-user topic, so no device tokens are stored
// server-side.
type Client struct {
	messaging *messaging.Client
	logger    *zap.Logger
}

// Init initializes the Firebase app and messaging client. The channel is
// optional: a missing credentials path yields a nil client and the caller
// runs without push delivery.
func Init(ctx context.Context, credentialsPath string, logger *zap.Logger) (*Client, error) {
	if credentialsPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	logger.Info("firebase messaging client initialized")
	return &Client{messaging: client, logger: logger}, nil
}

// UserTopic returns the FCM topic a user's clients subscribe to.
func UserTopic(userID string) string {
	return "user-" + userID
}

// SendToUser publishes a notification message on the user's topic.
func (c *Client) SendToUser(ctx context.Context, userID, title, body string) error {
	_, err := c.messaging.Send(ctx, &messaging.Message{
		Topic: UserTopic(userID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	return err
}
