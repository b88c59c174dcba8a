package smartapi

import (
	"encoding/json"

	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// envelope is the uniform {status, message, data} wrapper every SmartAPI
// response carries. A 2xx response with Status=false is an application-level
// rejection; only the caller knows whether that is auth-related or a
// different domain failure, so the transport returns it undecoded.
type envelope struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

// unauthorizedCodes are the SmartAPI error codes that signal an invalid or
// expired access token inside a 2xx envelope.
var unauthorizedCodes = map[string]bool{
	"AG8001": true, // Invalid Token
	"AG8002": true, // Token Expired
	"AB8050": true, // Invalid Refresh Token
	"AB8051": true, // Refresh Token Expired
}

func (e *envelope) unauthorized() bool {
	return !e.Status && unauthorizedCodes[e.ErrorCode]
}

type loginRequest struct {
	ClientCode string `json:"clientcode"`
	Password   string `json:"password"`
	TOTP       string `json:"totp"`
	State      string `json:"state"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	ClientCode string `json:"clientcode"`
}

type tokenData struct {
	JWTToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
	FeedToken    string `json:"feedToken"`
}

// OrderRequest describes a new order. Quantity is clamped to a minimum of 1
// before submission; Price is sent as "0" for market orders per the wire
// convention.
type OrderRequest struct {
	Variety         models.Variety
	TradingSymbol   string
	SymbolToken     string
	TransactionType models.TransactionType
	Exchange        models.Exchange
	OrderType       models.OrderType
	ProductType     models.ProductType
	Duration        models.Duration
	Price           string
	Quantity        int
}

// orderParams is the wire shape of a place-order payload. All numeric
// values are sent as strings per the upstream contract.
type orderParams struct {
	Variety         string `json:"variety"`
	TradingSymbol   string `json:"tradingsymbol"`
	SymbolToken     string `json:"symboltoken"`
	TransactionType string `json:"transactiontype"`
	Exchange        string `json:"exchange"`
	OrderType       string `json:"ordertype"`
	ProductType     string `json:"producttype"`
	Duration        string `json:"duration"`
	Price           string `json:"price"`
	Quantity        string `json:"quantity"`
	ClientCode      string `json:"clientcode,omitempty"`
}

// ModifyRequest carries the fields of an order modification. Only supplied
// fields are sent on the wire; the upstream API treats absence as "leave
// unchanged", so unset fields must be omitted rather than defaulted.
type ModifyRequest struct {
	Variety       models.Variety
	OrderType     models.OrderType
	ProductType   models.ProductType
	Duration      models.Duration
	Price         string
	Quantity      string
	TradingSymbol string
	SymbolToken   string
	Exchange      models.Exchange
}

type modifyParams struct {
	Variety       string `json:"variety"`
	OrderID       string `json:"orderid"`
	OrderType     string `json:"ordertype,omitempty"`
	ProductType   string `json:"producttype,omitempty"`
	Duration      string `json:"duration,omitempty"`
	Price         string `json:"price,omitempty"`
	Quantity      string `json:"quantity,omitempty"`
	TradingSymbol string `json:"tradingsymbol,omitempty"`
	SymbolToken   string `json:"symboltoken,omitempty"`
	Exchange      string `json:"exchange,omitempty"`
}

type cancelParams struct {
	Variety string `json:"variety"`
	OrderID string `json:"orderid"`
}

type searchScripRequest struct {
	Exchange    string `json:"exchange"`
	SearchScrip string `json:"searchscrip"`
}

// ScripResult is one row of a searchScrip response.
type ScripResult struct {
	Exchange      string `json:"exchange"`
	TradingSymbol string `json:"tradingsymbol"`
	SymbolToken   string `json:"symboltoken"`
}

// OrderSummary is one entry of the order book, in the broker's own field
// vocabulary. The sequence order is broker-defined and never re-sorted.
type OrderSummary struct {
	Variety         string `json:"variety"`
	OrderType       string `json:"ordertype"`
	ProductType     string `json:"producttype"`
	Duration        string `json:"duration"`
	Price           string `json:"price"`
	Quantity        string `json:"quantity"`
	TradingSymbol   string `json:"tradingsymbol"`
	TransactionType string `json:"transactiontype"`
	Exchange        string `json:"exchange"`
	SymbolToken     string `json:"symboltoken"`
	OrderID         string `json:"orderid"`
	UniqueOrderID   string `json:"uniqueorderid"`
	Status          string `json:"status"`
	OrderStatus     string `json:"orderstatus"`
	Text            string `json:"text"`
	UpdateTime      string `json:"updatetime"`
}

// TradeSummary is one entry of the trade book.
type TradeSummary struct {
	Exchange        string `json:"exchange"`
	ProductType     string `json:"producttype"`
	TradingSymbol   string `json:"tradingsymbol"`
	InstrumentType  string `json:"instrumenttype"`
	TransactionType string `json:"transactiontype"`
	FillPrice       string `json:"fillprice"`
	FillSize        string `json:"fillsize"`
	OrderID         string `json:"orderid"`
	FillID          string `json:"fillid"`
	FillTime        string `json:"filltime"`
}

// Profile is the account profile returned by getProfile.
type Profile struct {
	ClientCode string   `json:"clientcode"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Mobile     string   `json:"mobileno"`
	Exchanges  []string `json:"exchanges"`
	Products   []string `json:"products"`
	LastLogin  string   `json:"lastlogintime"`
	Broker     string   `json:"brokerid"`
}

// LTPData is the last-traded-price snapshot returned by getLtpData.
type LTPData struct {
	Exchange      string  `json:"exchange"`
	TradingSymbol string  `json:"tradingsymbol"`
	SymbolToken   string  `json:"symboltoken"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	LTP           float64 `json:"ltp"`
}
