package smartapi

import (
	"context"
	"encoding/json"
	"net/http"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// GetProfile fetches the account profile and backfills the session's client
// code when the upstream returns one.
func (c *Client) GetProfile(ctx context.Context, sess *Session) (*Profile, error) {
	env, err := c.callAuthenticated(ctx, sess, http.MethodGet, profilePath, nil)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("getProfile", env.Message)
	}

	var profile Profile
	if err := decodeData(env, &profile); err != nil {
		return nil, errs.Wrap(err, "getProfile: decoding result")
	}
	sess.setClientCode(profile.ClientCode)
	return &profile, nil
}

// GetRMS fetches the risk management limits as an opaque payload; the
// gateway does not interpret margin figures.
func (c *Client) GetRMS(ctx context.Context, sess *Session) (json.RawMessage, error) {
	env, err := c.callAuthenticated(ctx, sess, http.MethodGet, rmsPath, nil)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("getRMS", env.Message)
	}
	return env.Data, nil
}

// GetHoldings fetches the portfolio holdings as an opaque payload.
func (c *Client) GetHoldings(ctx context.Context, sess *Session) (json.RawMessage, error) {
	env, err := c.callAuthenticated(ctx, sess, http.MethodGet, holdingsPath, nil)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("getAllHolding", env.Message)
	}
	return env.Data, nil
}

type ltpRequest struct {
	Exchange      string `json:"exchange"`
	TradingSymbol string `json:"tradingsymbol"`
	SymbolToken   string `json:"symboltoken,omitempty"`
}

// GetLTP fetches the last-traded-price snapshot for one instrument.
func (c *Client) GetLTP(ctx context.Context, sess *Session, exchange models.Exchange, tradingSymbol, symbolToken string) (*LTPData, error) {
	req := ltpRequest{
		Exchange:      string(exchange),
		TradingSymbol: tradingSymbol,
		SymbolToken:   symbolToken,
	}

	env, err := c.callAuthenticated(ctx, sess, http.MethodPost, ltpPath, req)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("getLtpData", env.Message)
	}

	var ltp LTPData
	if err := decodeData(env, &ltp); err != nil {
		return nil, errs.Wrap(err, "getLtpData: decoding result")
	}
	return &ltp, nil
}
