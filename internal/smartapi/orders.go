package smartapi

import (
	"context"
	"net/http"
	"strconv"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// PlaceOrder submits a new order. Quantity is clamped to a minimum of 1 and
// an empty price is sent as "0" (market-order convention). A Status=false
// envelope surfaces as *errors.OrderRejectedError with the broker's message
// verbatim.
func (c *Client) PlaceOrder(ctx context.Context, sess *Session, req OrderRequest) (*models.OrderResult, error) {
	params := buildOrderParams(req, sess.ClientCode())

	if err := c.orderLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	env, err := c.callAuthenticated(ctx, sess, http.MethodPost, placePath, params)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("placeOrder", env.Message)
	}

	var result models.OrderResult
	if err := decodeData(env, &result); err != nil {
		return nil, errs.Wrap(err, "placeOrder: decoding result")
	}

	c.logger.Info().
		Str("tradingsymbol", params.TradingSymbol).
		Str("transactiontype", params.TransactionType).
		Str("quantity", params.Quantity).
		Str("order_id", result.OrderID).
		Msg("order placed")
	return &result, nil
}

// buildOrderParams maps a domain order request onto the wire payload shape,
// applying the quantity clamp and the market-order price convention.
func buildOrderParams(req OrderRequest, clientCode string) orderParams {
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	price := req.Price
	if price == "" || req.OrderType == models.OrderTypeMarket {
		price = "0"
	}
	variety := req.Variety
	if variety == "" {
		variety = models.VarietyNormal
	}
	duration := req.Duration
	if duration == "" {
		duration = models.DurationDay
	}

	return orderParams{
		Variety:         string(variety),
		TradingSymbol:   req.TradingSymbol,
		SymbolToken:     req.SymbolToken,
		TransactionType: string(req.TransactionType),
		Exchange:        string(req.Exchange),
		OrderType:       string(req.OrderType),
		ProductType:     string(req.ProductType),
		Duration:        string(duration),
		Price:           price,
		Quantity:        strconv.Itoa(qty),
		ClientCode:      clientCode,
	}
}

// ModifyOrder modifies an existing order. Only the supplied fields of mods
// are sent; the upstream treats absent fields as "leave unchanged".
func (c *Client) ModifyOrder(ctx context.Context, sess *Session, orderID string, mods ModifyRequest) (*models.OrderResult, error) {
	variety := mods.Variety
	if variety == "" {
		variety = models.VarietyNormal
	}
	params := modifyParams{
		Variety:       string(variety),
		OrderID:       orderID,
		OrderType:     string(mods.OrderType),
		ProductType:   string(mods.ProductType),
		Duration:      string(mods.Duration),
		Price:         mods.Price,
		Quantity:      mods.Quantity,
		TradingSymbol: mods.TradingSymbol,
		SymbolToken:   mods.SymbolToken,
		Exchange:      string(mods.Exchange),
	}

	if err := c.orderLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	env, err := c.callAuthenticated(ctx, sess, http.MethodPost, modifyPath, params)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("modifyOrder", env.Message)
	}

	var result models.OrderResult
	if err := decodeData(env, &result); err != nil {
		return nil, errs.Wrap(err, "modifyOrder: decoding result")
	}
	c.logger.Info().Str("order_id", orderID).Msg("order modified")
	return &result, nil
}

// CancelOrder cancels an existing order.
func (c *Client) CancelOrder(ctx context.Context, sess *Session, orderID string) (*models.OrderResult, error) {
	params := cancelParams{Variety: string(models.VarietyNormal), OrderID: orderID}

	if err := c.orderLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	env, err := c.callAuthenticated(ctx, sess, http.MethodPost, cancelPath, params)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("cancelOrder", env.Message)
	}

	var result models.OrderResult
	if err := decodeData(env, &result); err != nil {
		return nil, errs.Wrap(err, "cancelOrder: decoding result")
	}
	c.logger.Info().Str("order_id", orderID).Msg("order cancelled")
	return &result, nil
}

// GetOrderBook fetches the day's orders in the broker-defined sequence.
func (c *Client) GetOrderBook(ctx context.Context, sess *Session) ([]OrderSummary, error) {
	env, err := c.callAuthenticated(ctx, sess, http.MethodGet, orderBookPath, nil)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("getOrderBook", env.Message)
	}

	var orders []OrderSummary
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := decodeData(env, &orders); err != nil {
			return nil, errs.Wrap(err, "getOrderBook: decoding result")
		}
	}
	return orders, nil
}

// GetTradeBook fetches the day's fills in the broker-defined sequence.
func (c *Client) GetTradeBook(ctx context.Context, sess *Session) ([]TradeSummary, error) {
	env, err := c.callAuthenticated(ctx, sess, http.MethodGet, tradeBookPath, nil)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("getTradeBook", env.Message)
	}

	var trades []TradeSummary
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := decodeData(env, &trades); err != nil {
			return nil, errs.Wrap(err, "getTradeBook: decoding result")
		}
	}
	return trades, nil
}

// GetOrderDetails looks an order up by its unique order id. A rejected
// envelope surfaces as ErrOrderNotFound; falling back to an order-book scan
// by broker order id is the caller's concern, not this gateway's.
func (c *Client) GetOrderDetails(ctx context.Context, sess *Session, uniqueOrderID string) (*OrderSummary, error) {
	env, err := c.callAuthenticated(ctx, sess, http.MethodGet, detailsPath+uniqueOrderID, nil)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.Wrapf(errs.ErrOrderNotFound, "unique order id %s", uniqueOrderID)
	}

	var order OrderSummary
	if err := decodeData(env, &order); err != nil {
		return nil, errs.Wrap(err, "getOrderDetails: decoding result")
	}
	return &order, nil
}
