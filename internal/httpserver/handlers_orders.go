package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
)

type placeOrderRequest struct {
	Ticker          string `json:"ticker"`
	TradingSymbol   string `json:"tradingsymbol"`
	SymbolToken     string `json:"symboltoken"`
	Exchange        string `json:"exchange"`
	TransactionType string `json:"transactiontype"`
	OrderType       string `json:"ordertype"`
	ProductType     string `json:"producttype"`
	Duration        string `json:"duration"`
	Variety         string `json:"variety"`
	Price           string `json:"price"`
	Quantity        int    `json:"quantity"`
}

// PlaceOrder places an order. A request carrying only a ticker goes through
// instrument resolution first; a request with tradingsymbol and symboltoken
// is sent as-is.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)

	var req placeOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TransactionType == "" {
		writeError(w, http.StatusBadRequest, "transactiontype is required")
		return
	}

	symbol, token := req.TradingSymbol, req.SymbolToken
	exchange := models.Exchange(req.Exchange)
	if token == "" {
		ticker := req.Ticker
		if ticker == "" {
			ticker = req.TradingSymbol
		}
		if ticker == "" {
			writeError(w, http.StatusBadRequest, "ticker or tradingsymbol+symboltoken is required")
			return
		}
		inst, err := h.client.ResolveInstrument(r.Context(), sess, exchange, ticker)
		if err != nil {
			writeBrokerError(w, err)
			return
		}
		symbol, token, exchange = inst.TradingSymbol, inst.SymbolToken, inst.Exchange
	}

	result, err := h.client.PlaceOrder(r.Context(), sess, smartapi.OrderRequest{
		Variety:         models.Variety(req.Variety),
		TradingSymbol:   symbol,
		SymbolToken:     token,
		TransactionType: models.TransactionType(req.TransactionType),
		Exchange:        exchange,
		OrderType:       models.OrderType(req.OrderType),
		ProductType:     models.ProductType(req.ProductType),
		Duration:        models.Duration(req.Duration),
		Price:           req.Price,
		Quantity:        req.Quantity,
	})
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type modifyOrderRequest struct {
	Variety       string `json:"variety"`
	OrderType     string `json:"ordertype"`
	ProductType   string `json:"producttype"`
	Duration      string `json:"duration"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	TradingSymbol string `json:"tradingsymbol"`
	SymbolToken   string `json:"symboltoken"`
	Exchange      string `json:"exchange"`
}

// ModifyOrder amends an open order. Empty fields are left out of the
// upstream payload so the broker keeps their current values.
func (h *Handler) ModifyOrder(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)

	var req modifyOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.client.ModifyOrder(r.Context(), sess, chi.URLParam(r, "id"), smartapi.ModifyRequest{
		Variety:       models.Variety(req.Variety),
		OrderType:     models.OrderType(req.OrderType),
		ProductType:   models.ProductType(req.ProductType),
		Duration:      models.Duration(req.Duration),
		Price:         req.Price,
		Quantity:      req.Quantity,
		TradingSymbol: req.TradingSymbol,
		SymbolToken:   req.SymbolToken,
		Exchange:      models.Exchange(req.Exchange),
	})
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CancelOrder cancels an open order by broker order id.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	result, err := h.client.CancelOrder(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// OrderBook returns the day's order book.
func (h *Handler) OrderBook(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	orders, err := h.client.GetOrderBook(r.Context(), sess)
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// TradeBook returns the day's executed trades.
func (h *Handler) TradeBook(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	trades, err := h.client.GetTradeBook(r.Context(), sess)
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// OrderDetails returns a single order by its unique order id. When the
// dedicated endpoint does not know the id yet, the order book is scanned as
// a fallback before reporting not found.
func (h *Handler) OrderDetails(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	id := chi.URLParam(r, "id")

	order, err := h.client.GetOrderDetails(r.Context(), sess, id)
	if err == nil {
		writeJSON(w, http.StatusOK, order)
		return
	}
	if !errs.Is(err, errs.ErrOrderNotFound) {
		writeBrokerError(w, err)
		return
	}

	book, bookErr := h.client.GetOrderBook(r.Context(), sess)
	if bookErr != nil {
		writeBrokerError(w, bookErr)
		return
	}
	for i := range book {
		if book[i].UniqueOrderID == id || book[i].OrderID == id {
			writeJSON(w, http.StatusOK, &book[i])
			return
		}
	}
	writeBrokerError(w, err)
}

// SearchScrip runs an instrument search. ?exchange= scopes the search,
// ?q= is the free-text query.
func (h *Handler) SearchScrip(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	exchange := models.Exchange(r.URL.Query().Get("exchange"))
	if exchange == "" {
		exchange = models.NSE
	}

	results, err := h.client.SearchScrip(r.Context(), sess, exchange, query)
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// LTP returns the last traded price for an instrument.
func (h *Handler) LTP(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)

	q := r.URL.Query()
	symbol, token := q.Get("tradingsymbol"), q.Get("symboltoken")
	if symbol == "" || token == "" {
		writeError(w, http.StatusBadRequest, "tradingsymbol and symboltoken are required")
		return
	}
	exchange := models.Exchange(q.Get("exchange"))
	if exchange == "" {
		exchange = models.NSE
	}

	ltp, err := h.client.GetLTP(r.Context(), sess, exchange, symbol, token)
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ltp)
}
