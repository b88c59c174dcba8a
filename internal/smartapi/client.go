// Package smartapi implements the Angel One SmartAPI broker session gateway:
// authenticated session management, instrument resolution and order
// lifecycle operations with single-retry recovery from token expiry.
package smartapi

import (
	"context"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"

	"github.com/BooraVinay/AlgoTradeEngine/internal/config"
	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/performance"
	"github.com/BooraVinay/AlgoTradeEngine/internal/resilience"
)

// SmartAPI endpoint paths, relative to the configured base URL.
const (
	loginPath     = "/auth/angelbroking/user/v1/loginByPassword"
	tokensPath    = "/auth/angelbroking/jwt/v1/generateTokens"
	profilePath   = "/secure/angelbroking/user/v1/getProfile"
	rmsPath       = "/secure/angelbroking/user/v1/getRMS"
	logoutPath    = "/secure/angelbroking/user/v1/logout"
	placePath     = "/secure/angelbroking/order/v1/placeOrder"
	modifyPath    = "/secure/angelbroking/order/v1/modifyOrder"
	cancelPath    = "/secure/angelbroking/order/v1/cancelOrder"
	orderBookPath = "/secure/angelbroking/order/v1/getOrderBook"
	tradeBookPath = "/secure/angelbroking/order/v1/getTradeBook"
	ltpPath       = "/secure/angelbroking/order/v1/getLtpData"
	detailsPath   = "/secure/angelbroking/order/v1/details/"
	searchPath    = "/secure/angelbroking/order/v1/searchScrip"
	holdingsPath  = "/secure/angelbroking/portfolio/v1/getAllHolding"
)

// Client talks to the Angel One SmartAPI. It is safe for concurrent use;
// all mutable state lives in the Session values passed to each call.
type Client struct {
	baseURL    string
	apiKey     string
	pin        string
	localIP    string
	publicIP   string
	macAddress string
	httpClient *http.Client
	// orderLimiter throttles order mutations to the published SmartAPI
	// limit of 10 requests per second.
	orderLimiter *performance.RateLimiter
	// breaker trips on consecutive connection failures or 5xx responses.
	breaker *resilience.Breaker
	logger  zerolog.Logger
}

// ClientConfig holds the static configuration of a Client.
type ClientConfig struct {
	Broker      config.BrokerConfig
	Credentials config.AngelCredentials
	Logger      zerolog.Logger
}

// NewClient creates a SmartAPI client. The HTTP client timeout bounds every
// exchange, including the single retried call after a refresh.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Broker.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      cfg.Broker.BaseURL,
		apiKey:       cfg.Credentials.APIKey,
		pin:          cfg.Credentials.PIN,
		localIP:      cfg.Broker.ClientLocalIP,
		publicIP:     cfg.Broker.ClientPublicIP,
		macAddress:   cfg.Broker.MACAddress,
		httpClient:   &http.Client{Timeout: timeout},
		orderLimiter: performance.NewRateLimiter(10, 10),
		breaker:      resilience.NewBreaker("smartapi", resilience.DefaultBreakerConfig()),
		logger:       cfg.Logger.With().Str("component", "smartapi").Logger(),
	}
}

// BreakerStats reports the state of the upstream circuit breaker.
func (c *Client) BreakerStats() resilience.BreakerStats {
	return c.breaker.Stats()
}

// Login performs the loginByPassword exchange and returns a freshly
// authenticated session. The configured PIN is sent as the password field.
func (c *Client) Login(ctx context.Context, clientCode, totpCode string) (*Session, error) {
	body := loginRequest{
		ClientCode: clientCode,
		Password:   c.pin,
		TOTP:       totpCode,
		State:      "STATE",
	}

	env, err := c.exchange(ctx, http.MethodPost, loginPath, c.baseHeaders(), body)
	if err != nil {
		return nil, errs.NewAuthError("login", "exchange failed", err)
	}
	if !env.Status {
		return nil, errs.NewAuthError("login", env.Message, nil)
	}

	var data tokenData
	if err := decodeData(env, &data); err != nil {
		return nil, errs.NewAuthError("login", "malformed token data", err)
	}
	if data.JWTToken == "" {
		return nil, errs.NewAuthError("login", "login succeeded but no token data returned", nil)
	}

	sess := NewSession(clientCode)
	sess.setTokens(data.JWTToken, data.RefreshToken, data.FeedToken)

	c.logger.Info().Str("client_code", clientCode).Msg("login succeeded")
	return sess, nil
}

// LoginWithTOTPSecret generates the current TOTP code from the configured
// secret and logs in with it.
func (c *Client) LoginWithTOTPSecret(ctx context.Context, clientCode, totpSecret string) (*Session, error) {
	code, err := totp.GenerateCode(totpSecret, time.Now())
	if err != nil {
		return nil, errs.NewAuthError("login", "TOTP generation failed", err)
	}
	return c.Login(ctx, clientCode, code)
}

// Refresh exchanges the session's refresh token for a new token pair,
// mutating the session in place. Callers holding the same session observe
// the new tokens. On rejection the session is invalidated and the caller
// must log in again.
func (c *Client) Refresh(ctx context.Context, sess *Session) error {
	snap := sess.snapshot()
	if snap.refreshToken == "" {
		return errs.NewAuthError("refresh", "no refresh token", errs.ErrNoRefreshToken)
	}

	env, err := c.exchange(ctx, http.MethodPost, tokensPath, c.authHeaders(snap), refreshRequest{RefreshToken: snap.refreshToken})
	if err != nil {
		// A 4xx answer means the upstream refused the token pair; those
		// tokens will never authenticate again. Transport failures and 5xx
		// leave the session intact for a later attempt.
		var httpErr *errs.HTTPError
		if errs.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			sess.Invalidate()
		}
		return errs.NewAuthError("refresh", "exchange failed", err)
	}
	if !env.Status {
		sess.Invalidate()
		return errs.NewAuthError("refresh", env.Message, nil)
	}

	var data tokenData
	if err := decodeData(env, &data); err != nil {
		return errs.NewAuthError("refresh", "malformed token data", err)
	}
	if data.JWTToken == "" {
		sess.Invalidate()
		return errs.NewAuthError("refresh", "refresh returned no token data", nil)
	}

	sess.setTokens(data.JWTToken, data.RefreshToken, data.FeedToken)
	c.logger.Info().Str("client_code", snap.clientCode).Msg("session tokens refreshed")
	return nil
}

// Logout invalidates the session upstream, best effort, and clears it
// locally regardless of the outcome.
func (c *Client) Logout(ctx context.Context, sess *Session) {
	snap := sess.snapshot()
	if snap.accessToken != "" && snap.clientCode != "" {
		if _, err := c.exchange(ctx, http.MethodPost, logoutPath, c.authHeaders(snap), logoutRequest{ClientCode: snap.clientCode}); err != nil {
			c.logger.Warn().Err(err).Msg("upstream logout failed, invalidating locally")
		}
	}
	sess.Invalidate()
}

// callAuthenticated performs one authenticated exchange with the bounded
// retry policy of the gateway: on an unauthenticated signal, refresh the
// session exactly once and re-issue the exact same request exactly once.
// A second unauthenticated signal surfaces ErrAuthExpired. This is the only
// place retry policy is decided.
func (c *Client) callAuthenticated(ctx context.Context, sess *Session, method, path string, body interface{}) (*envelope, error) {
	snap := sess.snapshot()
	if snap.accessToken == "" {
		return nil, errs.ErrNotAuthenticated
	}

	env, err := c.exchange(ctx, method, path, c.authHeaders(snap), body)
	if !isUnauthorized(env, err) {
		return env, err
	}

	c.logger.Info().Str("path", path).Msg("unauthenticated response, refreshing session and retrying once")
	if err := c.refreshSerialized(ctx, sess, snap.generation); err != nil {
		return nil, err
	}

	snap = sess.snapshot()
	if snap.accessToken == "" {
		return nil, errs.ErrAuthExpired
	}

	env, err = c.exchange(ctx, method, path, c.authHeaders(snap), body)
	if isUnauthorized(env, err) {
		return nil, errs.ErrAuthExpired
	}
	return env, err
}

// refreshSerialized runs Refresh inside the session's refresh critical
// section. If another caller refreshed the session after seenGeneration was
// observed, the network refresh is skipped and the fresh tokens are reused.
func (c *Client) refreshSerialized(ctx context.Context, sess *Session, seenGeneration uint64) error {
	sess.refreshMu.Lock()
	defer sess.refreshMu.Unlock()

	if sess.snapshot().generation != seenGeneration {
		return nil
	}
	return c.Refresh(ctx, sess)
}

// isUnauthorized reports whether an exchange outcome signals an expired or
// invalid access token, either as HTTP 401 or as the equivalent error code
// embedded in a 2xx envelope.
func isUnauthorized(env *envelope, err error) bool {
	if err != nil {
		var httpErr *errs.HTTPError
		return errs.As(err, &httpErr) && httpErr.IsUnauthorized()
	}
	return env != nil && env.unauthorized()
}
