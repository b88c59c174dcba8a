package smartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/logging"
)

// exchange performs a single HTTP exchange against the upstream API and
// decodes the response envelope. It distinguishes three outcomes:
//
//   - connection or timeout failure: *errors.TransportError
//   - non-2xx HTTP status: *errors.HTTPError
//   - 2xx with a decoded envelope: returned as-is, even when the envelope
//     itself reports Status=false; interpreting a body-level rejection is
//     the caller's concern.
//
// There is no retry at this layer. A circuit breaker guards the upstream:
// connection failures and 5xx responses trip it, and while it is open calls
// fail immediately as *errors.TransportError without reaching the network.
func (c *Client) exchange(ctx context.Context, method, path string, headers http.Header, body interface{}) (*envelope, error) {
	url := c.baseURL + path

	if err := c.breaker.Allow(); err != nil {
		return nil, &errs.TransportError{URL: url, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body for %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header = headers

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	logging.LogAPICall(c.logger, method, path, time.Since(start), err)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, &errs.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, &errs.TransportError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 4xx means the upstream is answering; only server errors trip
		// the breaker.
		if resp.StatusCode >= 500 {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return nil, &errs.HTTPError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       string(raw),
		}
	}
	c.breaker.RecordSuccess()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return &env, nil
}

// decodeData decodes the envelope's data payload into out.
func decodeData(env *envelope, out interface{}) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("response envelope carries no data")
	}
	return json.Unmarshal(env.Data, out)
}
