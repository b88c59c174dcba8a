package smartapi

import (
	"context"
	"net/http"
	"strings"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// manualOverrides maps tickers that must resolve to a specific suffixed
// trading symbol before any search is attempted.
var manualOverrides = map[string]string{
	"RELIANCE": "RELIANCE-EQ",
}

// CanonicalSymbol normalizes a free-text ticker and applies the manual
// override table. An empty string means the ticker is unusable.
func CanonicalSymbol(ticker string) string {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if override, ok := manualOverrides[symbol]; ok {
		return override
	}
	return symbol
}

// ResolveInstrument resolves a free-text ticker to the canonical
// (exchange, tradingsymbol, symboltoken) triple. The fallback chain is
// deterministic and ordered:
//
//  1. apply the manual override table to the upper-cased ticker;
//  2. if an exchange is given, search scoped to that exchange and take the
//     first equity match;
//  3. otherwise, or when step 2 yields nothing, run the broad search and
//     take the first result whose trading symbol carries the equity suffix.
//
// A failure of the broad search is treated as "no match", never as a fatal
// error; callers get a uniform ErrInstrumentNotFound when the chain is
// exhausted. Authentication failures are the exception: a dead session
// propagates from either search instead of degrading into a not-found
// result. Results are never cached: the upstream catalog can change.
func (c *Client) ResolveInstrument(ctx context.Context, sess *Session, exchange models.Exchange, ticker string) (*models.Instrument, error) {
	if !sess.Authenticated() {
		return nil, errs.ErrNotAuthenticated
	}

	symbol := CanonicalSymbol(ticker)
	if symbol == "" {
		return nil, errs.ErrInstrumentNotFound
	}

	if exchange != "" {
		if inst, err := c.searchScoped(ctx, sess, exchange, symbol); err == nil && inst != nil {
			return inst, nil
		} else if err != nil {
			if errs.IsAuthFailure(err) {
				return nil, err
			}
			c.logger.Debug().Err(err).Str("ticker", symbol).Str("exchange", string(exchange)).
				Msg("scoped instrument search failed, falling back to broad search")
		}
	}

	inst, err := c.searchBroad(ctx, sess, symbol)
	if err != nil {
		return nil, err
	}
	if inst != nil {
		return inst, nil
	}

	return nil, errs.ErrInstrumentNotFound
}

// searchScoped queries the search endpoint scoped to one exchange and
// returns the first equity instrument, or nil when the exchange has none.
func (c *Client) searchScoped(ctx context.Context, sess *Session, exchange models.Exchange, symbol string) (*models.Instrument, error) {
	results, err := c.SearchScrip(ctx, sess, exchange, symbol)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if strings.HasSuffix(strings.ToUpper(r.TradingSymbol), models.EquitySuffix) {
			return &models.Instrument{
				Exchange:      exchange,
				TradingSymbol: r.TradingSymbol,
				SymbolToken:   r.SymbolToken,
			}, nil
		}
	}
	return nil, nil
}

// searchBroad runs the unscoped search (the upstream default catalog),
// filters to equity instruments and takes the first match in upstream
// order. Errors other than authentication failures are swallowed: a
// best-effort lookup that fails is simply no match.
func (c *Client) searchBroad(ctx context.Context, sess *Session, symbol string) (*models.Instrument, error) {
	results, err := c.SearchScrip(ctx, sess, models.NSE, symbol)
	if err != nil {
		if errs.IsAuthFailure(err) {
			return nil, err
		}
		c.logger.Debug().Err(err).Str("ticker", symbol).Msg("broad instrument search failed, treating as no match")
		return nil, nil
	}
	for _, r := range results {
		if strings.HasSuffix(strings.ToUpper(r.TradingSymbol), models.EquitySuffix) {
			exchange := models.Exchange(r.Exchange)
			if exchange == "" {
				exchange = models.NSE
			}
			return &models.Instrument{
				Exchange:      exchange,
				TradingSymbol: r.TradingSymbol,
				SymbolToken:   r.SymbolToken,
			}, nil
		}
	}
	return nil, nil
}

// SearchScrip queries the searchScrip endpoint and returns the raw result
// rows in upstream order. The search term is upper-cased before sending.
func (c *Client) SearchScrip(ctx context.Context, sess *Session, exchange models.Exchange, query string) ([]ScripResult, error) {
	req := searchScripRequest{
		Exchange:    string(exchange),
		SearchScrip: strings.ToUpper(query),
	}

	env, err := c.callAuthenticated(ctx, sess, http.MethodPost, searchPath, req)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, errs.NewOrderRejectedError("searchScrip", env.Message)
	}

	var results []ScripResult
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := decodeData(env, &results); err != nil {
			return nil, errs.Wrap(err, "searchScrip: decoding result")
		}
	}
	return results, nil
}
