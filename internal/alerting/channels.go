package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
)

// ConsoleChannel writes alerts to the structured log.
type ConsoleChannel struct {
	log *slog.Logger
}

// NewConsoleChannel creates a console channel over the default logger.
func NewConsoleChannel() *ConsoleChannel {
	return &ConsoleChannel{log: slog.Default()}
}

// Type implements Channel.
func (c *ConsoleChannel) Type() string { return "console" }

// Send implements Channel.
func (c *ConsoleChannel) Send(ctx context.Context, alert domain.Alert) bool {
	attrs := []any{
		"id", alert.ID,
		"type", alert.Type,
		"priority", alert.Priority,
	}
	switch alert.Priority {
	case domain.PriorityLow:
		c.log.Info(alert.Message, attrs...)
	case domain.PriorityMedium:
		c.log.Warn(alert.Message, attrs...)
	default:
		c.log.Error(alert.Message, attrs...)
	}
	return true
}

// WebhookChannel POSTs alerts as JSON to a configured URL.
type WebhookChannel struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewWebhookChannel creates a webhook channel.
func NewWebhookChannel(url string, timeout time.Duration) *WebhookChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    slog.Default(),
	}
}

// Type implements Channel.
func (w *WebhookChannel) Type() string { return "webhook" }

// Send implements Channel. Any transport error or non-2xx response counts
// as a delivery failure.
func (w *WebhookChannel) Send(ctx context.Context, alert domain.Alert) bool {
	payload, err := json.Marshal(alert)
	if err != nil {
		w.log.Warn("failed to serialize alert", "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		w.log.Warn("failed to build webhook request", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Warn("webhook delivery failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Warn("webhook delivery rejected", "status", resp.StatusCode)
		return false
	}
	return true
}

// NotifyFunc adapts a platform notification surface (permission prompt plus
// display call) injected by the embedding application.
type NotifyFunc func(ctx context.Context, alert domain.Alert) error

// NotifyChannel delivers alerts through an injected platform notifier.
type NotifyChannel struct {
	notify NotifyFunc
	log    *slog.Logger
}

// NewNotifyChannel creates a channel over the given notifier.
func NewNotifyChannel(notify NotifyFunc) *NotifyChannel {
	return &NotifyChannel{notify: notify, log: slog.Default()}
}

// Type implements Channel.
func (n *NotifyChannel) Type() string { return "notify" }

// Send implements Channel.
func (n *NotifyChannel) Send(ctx context.Context, alert domain.Alert) bool {
	if n.notify == nil {
		return false
	}
	if err := n.notify(ctx, alert); err != nil {
		n.log.Warn("notification delivery failed", "error", err)
		return false
	}
	return true
}

// CustomChannel wraps an arbitrary delivery function under a caller-chosen
// type tag.
type CustomChannel struct {
	tag  string
	send func(ctx context.Context, alert domain.Alert) bool
}

// NewCustomChannel creates a channel from a function.
func NewCustomChannel(tag string, send func(ctx context.Context, alert domain.Alert) bool) *CustomChannel {
	return &CustomChannel{tag: tag, send: send}
}

// Type implements Channel.
func (c *CustomChannel) Type() string { return c.tag }

// Send implements Channel.
func (c *CustomChannel) Send(ctx context.Context, alert domain.Alert) bool {
	if c.send == nil {
		return false
	}
	return c.send(ctx, alert)
}
