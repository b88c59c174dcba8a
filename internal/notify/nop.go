package notify

import (
	"context"

	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// NopNotifier discards every notification. Used when notifications are
// disabled and as a default in tests.
type NopNotifier struct{}

func (NopNotifier) Send(ctx context.Context, n Notification) error { return nil }

func (NopNotifier) SendAlertReceived(ctx context.Context, alert *models.Alert) error { return nil }

func (NopNotifier) SendOrderPlaced(ctx context.Context, alert *models.Alert, result *models.OrderResult) error {
	return nil
}

func (NopNotifier) SendAlertFailed(ctx context.Context, alert *models.Alert, reason string) error {
	return nil
}

func (NopNotifier) SendError(ctx context.Context, err error, op string) error { return nil }
