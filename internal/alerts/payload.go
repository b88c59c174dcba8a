package alerts

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// Defaults applied to webhook payloads that omit fields.
type Defaults struct {
	Exchange models.Exchange
	Quantity int
}

// FromPayload builds a NEW alert from a loosely-typed webhook payload,
// applying defaults for absent fields. TradingView strategy payloads carry
// the action under "strategy.order.action".
func FromPayload(payload map[string]interface{}, defaults Defaults) *models.Alert {
	now := time.Now()

	a := &models.Alert{
		ID:         uuid.NewString(),
		Ticker:     stringField(payload, "ticker", "UNKNOWN"),
		Exchange:   models.Exchange(stringField(payload, "exchange", string(defaults.Exchange))),
		Interval:   stringField(payload, "interval", "1"),
		Time:       stringField(payload, "time", now.Format(time.RFC3339)),
		Status:     models.AlertNew,
		ReceivedAt: now,
	}

	action := stringField(payload, "action", "")
	if action == "" {
		action = stringField(payload, "strategy.order.action", "BUY")
	}
	a.Action = models.TransactionType(strings.ToUpper(action))

	qty := defaults.Quantity
	if raw, ok := payload["qty"]; ok {
		switch v := raw.(type) {
		case float64:
			qty = int(v)
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				qty = n
			}
		}
	}
	if qty < 1 {
		qty = 1
	}
	a.Quantity = qty

	if token, ok := payload["symboltoken"]; ok {
		if s, ok := token.(string); ok {
			a.SymbolToken = s
		}
	}

	return a
}

func stringField(payload map[string]interface{}, key, fallback string) string {
	if raw, ok := payload[key]; ok {
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
