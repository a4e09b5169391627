// internal/notify/discord.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultUsername = "Liquidation Bot"
	DefaultTimeout  = 10 * time.Second
)

type discordPayload struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

// Discord posts messages to a Discord webhook.
type Discord struct {
	webhookURL string
	username   string
	client     *http.Client
	allow      Policy
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Discord notifier.
type Option func(*Discord)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Discord) { d.client = c }
}

// WithPolicy sets the delivery policy. The default is DefaultDeliveryWindow.
func WithPolicy(p Policy) Option {
	return func(d *Discord) { d.allow = p }
}

// WithClock overrides the clock used to evaluate the policy.
func WithClock(now func() time.Time) Option {
	return func(d *Discord) { d.now = now }
}

// WithUsername sets the name the webhook posts as.
func WithUsername(name string) Option {
	return func(d *Discord) {
		if name != "" {
			d.username = name
		}
	}
}

// NewDiscord creates a notifier for webhookURL.
func NewDiscord(webhookURL string, logger *zap.Logger, opts ...Option) *Discord {
	d := &Discord{
		webhookURL: webhookURL,
		username:   DefaultUsername,
		client:     &http.Client{Timeout: DefaultTimeout},
		allow:      DefaultDeliveryWindow().Contains,
		now:        time.Now,
		logger:     logger.Named("discord"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send posts message unless the delivery policy suppresses it.
func (d *Discord) Send(ctx context.Context, message string) (Result, error) {
	if !d.allow(d.now()) {
		d.logger.Info("Notification suppressed during quiet hours", zap.String("message", message))
		return Suppressed, nil
	}

	body, err := json.Marshal(discordPayload{Content: message, Username: d.username})
	if err != nil {
		return "", &NotificationDeliveryError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return "", &NotificationDeliveryError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &NotificationDeliveryError{Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &NotificationDeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	d.logger.Debug("Notification sent", zap.String("message", message))
	return Delivered, nil
}
