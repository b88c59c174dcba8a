// Package models provides domain models for the trading application.
package models

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
	NFO Exchange = "NFO" // F&O
	MCX Exchange = "MCX" // Commodity
)

// TransactionType represents the side of an order.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStopLoss  OrderType = "STOPLOSS_LIMIT"
	OrderTypeStopLossM OrderType = "STOPLOSS_MARKET"
)

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductIntraday ProductType = "INTRADAY"
	ProductDelivery ProductType = "DELIVERY"
	ProductMargin   ProductType = "MARGIN"
	ProductCarry    ProductType = "CARRYFORWARD"
)

// Variety represents the order variety.
type Variety string

const (
	VarietyNormal   Variety = "NORMAL"
	VarietyStopLoss Variety = "STOPLOSS"
	VarietyAMO      Variety = "AMO"
)

// Duration represents the order validity.
type Duration string

const (
	DurationDay Duration = "DAY"
	DurationIOC Duration = "IOC"
)

// Instrument is the canonical exchange/symbol/token triple identifying a
// tradable instrument. Produced only by the resolver; immutable once
// constructed and never cached across resolutions (the upstream catalog can
// change).
type Instrument struct {
	Exchange      Exchange `json:"exchange"`
	TradingSymbol string   `json:"tradingsymbol"`
	SymbolToken   string   `json:"symboltoken"`
}

// EquitySuffix is the trading-symbol suffix that denotes an equity
// instrument on NSE.
const EquitySuffix = "-EQ"
