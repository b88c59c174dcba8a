package models

import "time"

// AlertStatus represents the lifecycle state of a received alert.
// NEW is the only non-terminal state; ACCEPTED, REJECTED and FAILED are
// terminal from the gateway's point of view.
type AlertStatus string

const (
	AlertNew      AlertStatus = "NEW"
	AlertAccepted AlertStatus = "ACCEPTED"
	AlertRejected AlertStatus = "REJECTED"
	AlertFailed   AlertStatus = "FAILED"
)

// Alert represents a signal received from an external source such as a
// TradingView webhook. The gateway reads ticker/exchange/action/quantity
// from it and reports back status, error message and order result.
type Alert struct {
	ID          string          `json:"id"`
	Ticker      string          `json:"ticker"`
	Exchange    Exchange        `json:"exchange"`
	Interval    string          `json:"interval"`
	Time        string          `json:"time"`
	Action      TransactionType `json:"action"`
	Quantity    int             `json:"quantity"`
	SymbolToken string          `json:"symboltoken,omitempty"`
	Status      AlertStatus     `json:"status"`
	OrderResult *OrderResult    `json:"orderResult,omitempty"`
	ErrorMsg    string          `json:"errorMessage,omitempty"`
	ReceivedAt  time.Time       `json:"receivedAt"`
}

// OrderResult is the broker-assigned identification of a placed order.
// The broker is authoritative for everything beyond these echo fields.
type OrderResult struct {
	Script        string `json:"script,omitempty"`
	OrderID       string `json:"orderid"`
	UniqueOrderID string `json:"uniqueorderid,omitempty"`
}
