// Package trading turns stored alerts into broker orders.
package trading

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/notify"
	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
)

// Gateway is the broker surface the executor needs. *smartapi.Client
// satisfies it.
type Gateway interface {
	ResolveInstrument(ctx context.Context, sess *smartapi.Session, exchange models.Exchange, ticker string) (*models.Instrument, error)
	PlaceOrder(ctx context.Context, sess *smartapi.Session, req smartapi.OrderRequest) (*models.OrderResult, error)
}

// AlertStore is the persistence surface the executor needs.
type AlertStore interface {
	FindByID(ctx context.Context, id string) (*models.Alert, error)
	Update(ctx context.Context, a *models.Alert) error
}

// Executor drives the alert lifecycle: NEW alerts are accepted into broker
// orders or rejected by the operator; execution failures are terminal.
type Executor struct {
	gateway  Gateway
	store    AlertStore
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewExecutor creates an Executor. A nil notifier is replaced with a no-op.
func NewExecutor(gateway Gateway, store AlertStore, notifier notify.Notifier, logger zerolog.Logger) *Executor {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Executor{
		gateway:  gateway,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "executor").Logger(),
	}
}

// ResolveAndPlace resolves a ticker and places a market order for it in a
// single step. Resolution failures surface before any order is submitted.
func (e *Executor) ResolveAndPlace(ctx context.Context, sess *smartapi.Session, exchangeHint models.Exchange, ticker string, action models.TransactionType, quantity int) (*models.OrderResult, error) {
	inst, err := e.gateway.ResolveInstrument(ctx, sess, exchangeHint, ticker)
	if err != nil {
		return nil, err
	}
	return e.placeMarketOrder(ctx, sess, inst, action, quantity)
}

// AcceptAlert executes a NEW alert as a market order. The alert moves to
// ACCEPTED when the broker takes the order, or to FAILED with the reason
// recorded when resolution or placement fails. Authentication failures are
// not recorded on the alert: it stays NEW and can be accepted again after a
// fresh login. Alerts already in a terminal state are left untouched.
func (e *Executor) AcceptAlert(ctx context.Context, sess *smartapi.Session, alertID string) (*models.Alert, error) {
	alert, err := e.store.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status != models.AlertNew {
		return alert, fmt.Errorf("alert %s is %s: %w", alert.ID, alert.Status, errs.ErrAlertTerminal)
	}

	inst, err := e.instrumentFor(ctx, sess, alert)
	if err != nil {
		if errs.IsAuthFailure(err) {
			return alert, err
		}
		return e.failAlert(ctx, alert, err)
	}

	result, err := e.placeMarketOrder(ctx, sess, inst, alert.Action, alert.Quantity)
	if err != nil {
		if errs.IsAuthFailure(err) {
			return alert, err
		}
		return e.failAlert(ctx, alert, err)
	}
	if result.Script == "" {
		result.Script = inst.TradingSymbol
	}

	alert.Status = models.AlertAccepted
	alert.OrderResult = result
	alert.ErrorMsg = ""
	if err := e.store.Update(ctx, alert); err != nil {
		return alert, err
	}

	e.logger.Info().
		Str("alert_id", alert.ID).
		Str("tradingsymbol", inst.TradingSymbol).
		Str("order_id", result.OrderID).
		Msg("alert accepted")
	if err := e.notifier.SendOrderPlaced(ctx, alert, result); err != nil {
		e.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("order notification failed")
	}
	return alert, nil
}

// RejectAlert marks a NEW alert as rejected by the operator. No order is
// placed and the transition is terminal.
func (e *Executor) RejectAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	alert, err := e.store.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status != models.AlertNew {
		return alert, fmt.Errorf("alert %s is %s: %w", alert.ID, alert.Status, errs.ErrAlertTerminal)
	}

	alert.Status = models.AlertRejected
	if err := e.store.Update(ctx, alert); err != nil {
		return alert, err
	}

	e.logger.Info().Str("alert_id", alert.ID).Str("ticker", alert.Ticker).Msg("alert rejected")
	return alert, nil
}

// instrumentFor produces the instrument to trade for an alert. A symbol
// token carried on the alert bypasses resolution; otherwise the ticker is
// resolved through the gateway's fallback chain.
func (e *Executor) instrumentFor(ctx context.Context, sess *smartapi.Session, alert *models.Alert) (*models.Instrument, error) {
	if alert.SymbolToken != "" {
		exchange := alert.Exchange
		if exchange == "" {
			exchange = models.NSE
		}
		return &models.Instrument{
			Exchange:      exchange,
			TradingSymbol: smartapi.CanonicalSymbol(alert.Ticker),
			SymbolToken:   alert.SymbolToken,
		}, nil
	}
	return e.gateway.ResolveInstrument(ctx, sess, alert.Exchange, alert.Ticker)
}

// placeMarketOrder submits an intraday market order for the instrument.
func (e *Executor) placeMarketOrder(ctx context.Context, sess *smartapi.Session, inst *models.Instrument, action models.TransactionType, quantity int) (*models.OrderResult, error) {
	if quantity < 1 {
		quantity = 1
	}
	return e.gateway.PlaceOrder(ctx, sess, smartapi.OrderRequest{
		Variety:         models.VarietyNormal,
		TradingSymbol:   inst.TradingSymbol,
		SymbolToken:     inst.SymbolToken,
		TransactionType: action,
		Exchange:        inst.Exchange,
		OrderType:       models.OrderTypeMarket,
		ProductType:     models.ProductIntraday,
		Duration:        models.DurationDay,
		Price:           "0",
		Quantity:        quantity,
	})
}

// failAlert records a terminal execution failure on the alert and returns
// the original error.
func (e *Executor) failAlert(ctx context.Context, alert *models.Alert, cause error) (*models.Alert, error) {
	alert.Status = models.AlertFailed
	alert.ErrorMsg = cause.Error()
	if err := e.store.Update(ctx, alert); err != nil {
		e.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("recording alert failure")
	}
	e.logger.Warn().Err(cause).Str("alert_id", alert.ID).Str("ticker", alert.Ticker).Msg("alert execution failed")
	if err := e.notifier.SendAlertFailed(ctx, alert, cause.Error()); err != nil {
		e.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("failure notification failed")
	}
	return alert, cause
}
