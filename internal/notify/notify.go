// Package notify delivers alert and order notifications to external channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/BooraVinay/AlgoTradeEngine/internal/config"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/performance"
	"github.com/BooraVinay/AlgoTradeEngine/pkg/utils"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendAlertReceived(ctx context.Context, alert *models.Alert) error
	SendOrderPlaced(ctx context.Context, alert *models.Alert, result *models.OrderResult) error
	SendAlertFailed(ctx context.Context, alert *models.Alert, reason string) error
	SendError(ctx context.Context, err error, op string) error
}

// Channel defines the interface for a delivery channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationAlert NotificationType = "alert"
	NotificationOrder NotificationType = "order"
	NotificationError NotificationType = "error"
)

// MultiNotifier fans a notification out to every enabled channel. Channels
// are dispatched concurrently through a small worker pool so one slow
// endpoint does not delay the others.
type MultiNotifier struct {
	channels []Channel
	retry    utils.RetryConfig
	pool     *performance.WorkerPool
	mu       sync.RWMutex
}

// NewMultiNotifier creates a MultiNotifier from the notification configuration.
func NewMultiNotifier(cfg config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{
		channels: make([]Channel, 0),
		retry:    utils.DefaultRetryConfig(),
		pool:     performance.NewWorkerPool(2),
	}
	mn.pool.Start()

	if !cfg.Enabled {
		return mn
	}

	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookChannel(cfg.Webhook))
	}
	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramChannel(cfg.Telegram))
	}

	return mn
}

// AddChannel adds a delivery channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Send delivers a notification to all enabled channels, retrying each
// channel independently with backoff.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var (
		wg     sync.WaitGroup
		errsMu sync.Mutex
		errs   []string
	)
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		ch := ch
		wg.Add(1)
		task := func() {
			defer wg.Done()
			err := utils.Retry(ctx, mn.retry, func() error {
				return ch.Send(ctx, n)
			})
			if err != nil {
				errsMu.Lock()
				errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
				errsMu.Unlock()
			}
		}
		// Run inline when the pool is saturated or stopped.
		if !mn.pool.Submit(task) {
			task()
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Close stops the dispatch pool after in-flight sends finish.
func (mn *MultiNotifier) Close() {
	mn.pool.Stop()
}

// SendAlertReceived sends a notification for a newly ingested alert.
func (mn *MultiNotifier) SendAlertReceived(ctx context.Context, alert *models.Alert) error {
	return mn.Send(ctx, Notification{
		Type:    NotificationAlert,
		Title:   fmt.Sprintf("Alert received: %s %s", alert.Action, alert.Ticker),
		Message: fmt.Sprintf("Ticker: %s\nAction: %s\nQuantity: %d\nExchange: %s", alert.Ticker, alert.Action, alert.Quantity, alert.Exchange),
		Data: map[string]interface{}{
			"alert_id": alert.ID,
			"ticker":   alert.Ticker,
			"action":   alert.Action,
			"quantity": alert.Quantity,
		},
	})
}

// SendOrderPlaced sends a notification for an accepted alert whose order
// was placed with the broker.
func (mn *MultiNotifier) SendOrderPlaced(ctx context.Context, alert *models.Alert, result *models.OrderResult) error {
	return mn.Send(ctx, Notification{
		Type:    NotificationOrder,
		Title:   fmt.Sprintf("Order placed: %s %s", alert.Action, result.Script),
		Message: fmt.Sprintf("Script: %s\nOrder ID: %s\nQuantity: %d", result.Script, result.OrderID, alert.Quantity),
		Data: map[string]interface{}{
			"alert_id":        alert.ID,
			"script":          result.Script,
			"order_id":        result.OrderID,
			"unique_order_id": result.UniqueOrderID,
		},
	})
}

// SendAlertFailed sends a notification for an alert that could not be executed.
func (mn *MultiNotifier) SendAlertFailed(ctx context.Context, alert *models.Alert, reason string) error {
	return mn.Send(ctx, Notification{
		Type:    NotificationError,
		Title:   fmt.Sprintf("Alert failed: %s", alert.Ticker),
		Message: fmt.Sprintf("Ticker: %s\nAction: %s\nReason: %s", alert.Ticker, alert.Action, reason),
		Data: map[string]interface{}{
			"alert_id": alert.ID,
			"ticker":   alert.Ticker,
			"reason":   reason,
		},
	})
}

// SendError sends an error notification.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, op string) error {
	return mn.Send(ctx, Notification{
		Type:    NotificationError,
		Title:   fmt.Sprintf("Error: %s", op),
		Message: err.Error(),
		Data: map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		},
	})
}

// WebhookChannel delivers notifications via HTTP webhook.
type WebhookChannel struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookChannel creates a WebhookChannel.
func NewWebhookChannel(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the channel name.
func (w *WebhookChannel) Name() string {
	return "webhook"
}

// IsEnabled returns whether the channel is enabled.
func (w *WebhookChannel) IsEnabled() bool {
	return w.enabled
}

// Send posts the notification as JSON to the configured URL.
func (w *WebhookChannel) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "AlgoTradeEngine/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// TelegramChannel delivers notifications via a Telegram bot.
type TelegramChannel struct {
	botToken string
	chatID   string
	enabled  bool
	client   *http.Client
}

// NewTelegramChannel creates a TelegramChannel.
func NewTelegramChannel(cfg config.TelegramConfig) *TelegramChannel {
	return &TelegramChannel{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		enabled:  cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the channel name.
func (t *TelegramChannel) Name() string {
	return "telegram"
}

// IsEnabled returns whether the channel is enabled.
func (t *TelegramChannel) IsEnabled() bool {
	return t.enabled
}

// Send delivers the notification through the Telegram bot API.
func (t *TelegramChannel) Send(ctx context.Context, n Notification) error {
	if !t.enabled {
		return nil
	}

	text := fmt.Sprintf("<b>%s</b>\n\n%s", escapeHTML(n.Title), escapeHTML(n.Message))

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)

	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// escapeHTML escapes HTML special characters for Telegram parse mode.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
