package trading

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
)

type fakeGateway struct {
	instrument   *models.Instrument
	resolveErr   error
	placeErr     error
	resolveCalls int
	placed       []smartapi.OrderRequest
}

func (f *fakeGateway) ResolveInstrument(ctx context.Context, sess *smartapi.Session, exchange models.Exchange, ticker string) (*models.Instrument, error) {
	f.resolveCalls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.instrument, nil
}

func (f *fakeGateway) PlaceOrder(ctx context.Context, sess *smartapi.Session, req smartapi.OrderRequest) (*models.OrderResult, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &models.OrderResult{Script: req.TradingSymbol, OrderID: "240801000001", UniqueOrderID: "uo-1"}, nil
}

type fakeStore struct {
	alerts map[string]*models.Alert
}

func newFakeStore(alerts ...*models.Alert) *fakeStore {
	s := &fakeStore{alerts: make(map[string]*models.Alert)}
	for _, a := range alerts {
		copied := *a
		s.alerts[a.ID] = &copied
	}
	return s
}

func (s *fakeStore) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return nil, errs.ErrAlertNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *fakeStore) Update(ctx context.Context, a *models.Alert) error {
	if _, ok := s.alerts[a.ID]; !ok {
		return errs.ErrAlertNotFound
	}
	copied := *a
	s.alerts[a.ID] = &copied
	return nil
}

func newAlert(id string, status models.AlertStatus) *models.Alert {
	return &models.Alert{
		ID:       id,
		Ticker:   "SBIN",
		Exchange: models.NSE,
		Action:   models.TransactionBuy,
		Quantity: 4,
		Status:   status,
	}
}

func newTestExecutor(gw Gateway, store AlertStore) *Executor {
	return NewExecutor(gw, store, nil, zerolog.Nop())
}

func TestAcceptAlertPlacesMarketOrder(t *testing.T) {
	gw := &fakeGateway{instrument: &models.Instrument{
		Exchange: models.NSE, TradingSymbol: "SBIN-EQ", SymbolToken: "3045",
	}}
	store := newFakeStore(newAlert("a-1", models.AlertNew))
	exec := newTestExecutor(gw, store)

	alert, err := exec.AcceptAlert(context.Background(), nil, "a-1")
	if err != nil {
		t.Fatalf("AcceptAlert: %v", err)
	}
	if alert.Status != models.AlertAccepted {
		t.Errorf("Status = %s", alert.Status)
	}
	if alert.OrderResult == nil || alert.OrderResult.OrderID != "240801000001" {
		t.Errorf("OrderResult = %+v", alert.OrderResult)
	}

	if len(gw.placed) != 1 {
		t.Fatalf("placed %d orders", len(gw.placed))
	}
	req := gw.placed[0]
	if req.TradingSymbol != "SBIN-EQ" || req.SymbolToken != "3045" {
		t.Errorf("order %+v", req)
	}
	if req.OrderType != models.OrderTypeMarket || req.ProductType != models.ProductIntraday ||
		req.Duration != models.DurationDay || req.Price != "0" {
		t.Errorf("order not a market intraday day order: %+v", req)
	}
	if req.Quantity != 4 {
		t.Errorf("Quantity = %d", req.Quantity)
	}

	stored, _ := store.FindByID(context.Background(), "a-1")
	if stored.Status != models.AlertAccepted {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestAcceptAlertUsesProvidedSymbolToken(t *testing.T) {
	gw := &fakeGateway{}
	alert := newAlert("a-2", models.AlertNew)
	alert.Ticker = "RELIANCE"
	alert.SymbolToken = "2885"
	store := newFakeStore(alert)
	exec := newTestExecutor(gw, store)

	if _, err := exec.AcceptAlert(context.Background(), nil, "a-2"); err != nil {
		t.Fatalf("AcceptAlert: %v", err)
	}
	if gw.resolveCalls != 0 {
		t.Errorf("resolution ran %d times despite provided token", gw.resolveCalls)
	}
	if len(gw.placed) != 1 {
		t.Fatalf("placed %d orders", len(gw.placed))
	}
	if gw.placed[0].SymbolToken != "2885" || gw.placed[0].TradingSymbol != "RELIANCE-EQ" {
		t.Errorf("order %+v", gw.placed[0])
	}
}

func TestAcceptAlertResolutionFailureIsTerminal(t *testing.T) {
	gw := &fakeGateway{resolveErr: errs.ErrInstrumentNotFound}
	store := newFakeStore(newAlert("a-3", models.AlertNew))
	exec := newTestExecutor(gw, store)

	_, err := exec.AcceptAlert(context.Background(), nil, "a-3")
	if !errs.Is(err, errs.ErrInstrumentNotFound) {
		t.Fatalf("want ErrInstrumentNotFound, got %v", err)
	}
	if len(gw.placed) != 0 {
		t.Error("order placed despite failed resolution")
	}

	stored, _ := store.FindByID(context.Background(), "a-3")
	if stored.Status != models.AlertFailed {
		t.Errorf("stored status = %s, want FAILED", stored.Status)
	}
	if stored.ErrorMsg == "" {
		t.Error("failure reason not recorded")
	}
}

func TestAcceptAlertAuthFailureLeavesAlertNew(t *testing.T) {
	gw := &fakeGateway{resolveErr: errs.ErrNotAuthenticated}
	store := newFakeStore(newAlert("a-7", models.AlertNew))
	exec := newTestExecutor(gw, store)

	_, err := exec.AcceptAlert(context.Background(), nil, "a-7")
	if !errs.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
	if len(gw.placed) != 0 {
		t.Error("order placed without authentication")
	}

	// The alert is not consumed; it can be accepted again after a login.
	stored, _ := store.FindByID(context.Background(), "a-7")
	if stored.Status != models.AlertNew {
		t.Errorf("stored status = %s, want NEW", stored.Status)
	}
	if stored.ErrorMsg != "" {
		t.Errorf("ErrorMsg = %q, want empty", stored.ErrorMsg)
	}

	gw.resolveErr = nil
	gw.instrument = &models.Instrument{Exchange: models.NSE, TradingSymbol: "SBIN-EQ", SymbolToken: "3045"}
	alert, err := exec.AcceptAlert(context.Background(), nil, "a-7")
	if err != nil {
		t.Fatalf("AcceptAlert after re-login: %v", err)
	}
	if alert.Status != models.AlertAccepted {
		t.Errorf("Status = %s after re-login", alert.Status)
	}
}

func TestAcceptAlertBrokerRejectionIsTerminal(t *testing.T) {
	gw := &fakeGateway{
		instrument: &models.Instrument{Exchange: models.NSE, TradingSymbol: "SBIN-EQ", SymbolToken: "3045"},
		placeErr:   errs.NewOrderRejectedError("placeOrder", "Insufficient funds"),
	}
	store := newFakeStore(newAlert("a-4", models.AlertNew))
	exec := newTestExecutor(gw, store)

	_, err := exec.AcceptAlert(context.Background(), nil, "a-4")
	var rejected *errs.OrderRejectedError
	if !errs.As(err, &rejected) {
		t.Fatalf("want *OrderRejectedError, got %v", err)
	}

	stored, _ := store.FindByID(context.Background(), "a-4")
	if stored.Status != models.AlertFailed {
		t.Errorf("stored status = %s, want FAILED", stored.Status)
	}
}

func TestAcceptAlertRejectsTerminalStates(t *testing.T) {
	for _, status := range []models.AlertStatus{models.AlertAccepted, models.AlertRejected, models.AlertFailed} {
		gw := &fakeGateway{instrument: &models.Instrument{TradingSymbol: "SBIN-EQ", SymbolToken: "3045"}}
		store := newFakeStore(newAlert("a-5", status))
		exec := newTestExecutor(gw, store)

		_, err := exec.AcceptAlert(context.Background(), nil, "a-5")
		if !errs.Is(err, errs.ErrAlertTerminal) {
			t.Errorf("status %s: want ErrAlertTerminal, got %v", status, err)
		}
		if len(gw.placed) != 0 {
			t.Errorf("status %s: order placed for terminal alert", status)
		}
	}
}

func TestRejectAlert(t *testing.T) {
	store := newFakeStore(newAlert("a-6", models.AlertNew))
	exec := newTestExecutor(&fakeGateway{}, store)

	alert, err := exec.RejectAlert(context.Background(), "a-6")
	if err != nil {
		t.Fatalf("RejectAlert: %v", err)
	}
	if alert.Status != models.AlertRejected {
		t.Errorf("Status = %s", alert.Status)
	}

	// Rejection is terminal; a second transition attempt fails.
	if _, err := exec.RejectAlert(context.Background(), "a-6"); !errs.Is(err, errs.ErrAlertTerminal) {
		t.Errorf("want ErrAlertTerminal on second reject, got %v", err)
	}
	if _, err := exec.AcceptAlert(context.Background(), nil, "a-6"); !errs.Is(err, errs.ErrAlertTerminal) {
		t.Errorf("want ErrAlertTerminal accepting a rejected alert, got %v", err)
	}
}

func TestResolveAndPlace(t *testing.T) {
	gw := &fakeGateway{instrument: &models.Instrument{
		Exchange: models.NSE, TradingSymbol: "INFY-EQ", SymbolToken: "1594",
	}}
	exec := newTestExecutor(gw, newFakeStore())

	result, err := exec.ResolveAndPlace(context.Background(), nil, models.NSE, "INFY", models.TransactionSell, 0)
	if err != nil {
		t.Fatalf("ResolveAndPlace: %v", err)
	}
	if result.OrderID == "" {
		t.Error("no order id")
	}
	if gw.placed[0].Quantity != 1 {
		t.Errorf("Quantity = %d, want clamp to 1", gw.placed[0].Quantity)
	}
	if gw.placed[0].TransactionType != models.TransactionSell {
		t.Errorf("TransactionType = %s", gw.placed[0].TransactionType)
	}
}
