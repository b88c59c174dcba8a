package smartapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BooraVinay/AlgoTradeEngine/internal/config"
	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/resilience"
)

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		Broker: config.BrokerConfig{
			BaseURL:        baseURL,
			ClientLocalIP:  "192.168.1.10",
			ClientPublicIP: "103.10.10.10",
			MACAddress:     "aa:bb:cc:dd:ee:ff",
		},
		Credentials: config.AngelCredentials{
			APIKey:     "test-api-key",
			ClientCode: "A100200",
			PIN:        "4321",
		},
		Logger: zerolog.Nop(),
	})
}

func authedSession(token string) *Session {
	sess := NewSession("A100200")
	sess.setTokens(token, "refresh-1", "feed-1")
	return sess
}

func writeEnvelope(w http.ResponseWriter, status bool, message, errorcode string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	env := map[string]interface{}{
		"status":    status,
		"message":   message,
		"errorcode": errorcode,
		"data":      data,
	}
	json.NewEncoder(w).Encode(env)
}

func TestLoginSendsWireContract(t *testing.T) {
	var gotBody map[string]string
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != loginPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotHeaders = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, true, "SUCCESS", "", map[string]string{
			"jwtToken":     "jwt-abc",
			"refreshToken": "refresh-abc",
			"feedToken":    "feed-abc",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess, err := client.Login(context.Background(), "A100200", "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	want := map[string]string{
		"clientcode": "A100200",
		"password":   "4321",
		"totp":       "123456",
		"state":      "STATE",
	}
	for k, v := range want {
		if gotBody[k] != v {
			t.Errorf("login body %s = %q, want %q", k, gotBody[k], v)
		}
	}

	headerWant := map[string]string{
		"Content-Type":     "application/json",
		"X-Usertype":       "USER",
		"X-Sourceid":       "WEB",
		"X-Clientlocalip":  "192.168.1.10",
		"X-Clientpublicip": "103.10.10.10",
		"X-Macaddress":     "aa:bb:cc:dd:ee:ff",
		"X-Privatekey":     "test-api-key",
	}
	for k, v := range headerWant {
		if gotHeaders.Get(k) != v {
			t.Errorf("header %s = %q, want %q", k, gotHeaders.Get(k), v)
		}
	}
	if gotHeaders.Get("Authorization") != "" {
		t.Error("login must not carry an Authorization header")
	}

	if !sess.Authenticated() {
		t.Error("session not authenticated after login")
	}
	if sess.ClientCode() != "A100200" {
		t.Errorf("ClientCode = %q", sess.ClientCode())
	}
	if sess.FeedToken() != "feed-abc" {
		t.Errorf("FeedToken = %q", sess.FeedToken())
	}
}

func TestLoginRejectedSurfacesBrokerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, false, "Invalid totp", "AB1050", nil)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Login(context.Background(), "A100200", "000000")
	if err == nil {
		t.Fatal("expected error")
	}
	var authErr *errs.AuthError
	if !errs.As(err, &authErr) {
		t.Fatalf("want *AuthError, got %T: %v", err, err)
	}
	if authErr.Reason != "Invalid totp" {
		t.Errorf("Reason = %q", authErr.Reason)
	}
}

func TestCallFailsFastWithoutSession(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeEnvelope(w, true, "", "", []interface{}{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := NewSession("A100200")

	_, err := client.GetOrderBook(context.Background(), sess)
	if !errs.Is(err, errs.ErrNotAuthenticated) {
		t.Fatalf("want ErrNotAuthenticated, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("unauthenticated call reached the network %d times", n)
	}
}

// fakeBroker simulates the upstream: order book calls fail with 401 until
// the session presents a token from the accepted set; generateTokens rotates
// the token pair.
type fakeBroker struct {
	t            *testing.T
	mu           sync.Mutex
	validToken   string
	refreshCalls int32
	dataCalls    int32
	refreshFails bool
}

func (f *fakeBroker) token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validToken
}

func (f *fakeBroker) setToken(token string) {
	f.mu.Lock()
	f.validToken = token
	f.mu.Unlock()
}

func (f *fakeBroker) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(tokensPath, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.refreshCalls, 1)
		if f.refreshFails {
			writeEnvelope(w, false, "Invalid Refresh Token", "AB8050", nil)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] == "" {
			f.t.Error("generateTokens called without refreshToken")
		}
		token := fmt.Sprintf("jwt-rotated-%d", n)
		f.setToken(token)
		writeEnvelope(w, true, "SUCCESS", "", map[string]string{
			"jwtToken":     token,
			"refreshToken": "refresh-rotated",
			"feedToken":    "feed-rotated",
		})
	})
	mux.HandleFunc(orderBookPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.dataCalls, 1)
		if r.Header.Get("Authorization") != "Bearer "+f.token() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, true, "SUCCESS", "", []map[string]string{{"orderid": "1001"}})
	})
	return mux
}

func TestExpiredTokenRefreshesAndRetriesOnce(t *testing.T) {
	fake := &fakeBroker{t: t, validToken: "jwt-valid"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-stale")

	orders, err := client.GetOrderBook(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrderBook: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != "1001" {
		t.Fatalf("unexpected orders: %+v", orders)
	}

	if n := atomic.LoadInt32(&fake.refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}
	if n := atomic.LoadInt32(&fake.dataCalls); n != 2 {
		t.Errorf("data calls = %d, want exactly 2", n)
	}

	// Subsequent calls use the rotated tokens without another refresh.
	if _, err := client.GetOrderBook(context.Background(), sess); err != nil {
		t.Fatalf("second GetOrderBook: %v", err)
	}
	if n := atomic.LoadInt32(&fake.refreshCalls); n != 1 {
		t.Errorf("refresh calls after second read = %d, want 1", n)
	}
}

func TestSecondUnauthorizedIsAuthExpired(t *testing.T) {
	fake := &fakeBroker{t: t, validToken: "never-issued"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokensPath {
			atomic.AddInt32(&fake.refreshCalls, 1)
			// Refresh succeeds but the rotated token is still rejected.
			writeEnvelope(w, true, "SUCCESS", "", map[string]string{
				"jwtToken":     "jwt-still-bad",
				"refreshToken": "refresh-rotated",
			})
			return
		}
		atomic.AddInt32(&fake.dataCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-stale")

	_, err := client.GetOrderBook(context.Background(), sess)
	if !errs.Is(err, errs.ErrAuthExpired) {
		t.Fatalf("want ErrAuthExpired, got %v", err)
	}
	if n := atomic.LoadInt32(&fake.refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}
	if n := atomic.LoadInt32(&fake.dataCalls); n != 2 {
		t.Errorf("data calls = %d, want exactly 2", n)
	}
}

func TestRefreshFailurePropagatesWithoutRetry(t *testing.T) {
	fake := &fakeBroker{t: t, validToken: "never-issued", refreshFails: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-stale")

	_, err := client.GetOrderBook(context.Background(), sess)
	var authErr *errs.AuthError
	if !errs.As(err, &authErr) {
		t.Fatalf("want *AuthError, got %T: %v", err, err)
	}
	if authErr.Op != "refresh" {
		t.Errorf("Op = %q, want refresh", authErr.Op)
	}
	if n := atomic.LoadInt32(&fake.dataCalls); n != 1 {
		t.Errorf("data calls = %d, want 1 (no retry after failed refresh)", n)
	}
	if sess.Authenticated() {
		t.Error("session still authenticated after rejected refresh")
	}
}

func TestRefreshRejectedWithHTTPStatusInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != tokensPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-stale")

	err := client.Refresh(context.Background(), sess)
	var authErr *errs.AuthError
	if !errs.As(err, &authErr) {
		t.Fatalf("want *AuthError, got %T: %v", err, err)
	}
	if sess.Authenticated() {
		t.Error("session still authenticated after rejected refresh")
	}
}

func TestRefreshTransportFailureKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	if err := client.Refresh(context.Background(), sess); err == nil {
		t.Fatal("expected error")
	}
	if !sess.Authenticated() {
		t.Error("transport failure must not invalidate the session")
	}
}

func TestInvalidateClearsIdentity(t *testing.T) {
	sess := authedSession("jwt-valid")
	sess.Invalidate()

	if sess.Authenticated() {
		t.Error("session authenticated after invalidation")
	}
	if sess.ClientCode() != "" {
		t.Errorf("ClientCode = %q after invalidation", sess.ClientCode())
	}
	if sess.FeedToken() != "" {
		t.Errorf("FeedToken = %q after invalidation", sess.FeedToken())
	}
}

func TestEnvelopeLevelExpiryTriggersRefresh(t *testing.T) {
	fake := &fakeBroker{t: t, validToken: "jwt-valid"}
	var envelopeRejections int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokensPath {
			atomic.AddInt32(&fake.refreshCalls, 1)
			fake.validToken = "jwt-rotated"
			writeEnvelope(w, true, "SUCCESS", "", map[string]string{
				"jwtToken":     "jwt-rotated",
				"refreshToken": "refresh-rotated",
			})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+fake.validToken {
			// 200 OK with the token-expired error code in the envelope.
			atomic.AddInt32(&envelopeRejections, 1)
			writeEnvelope(w, false, "Token Expired", "AG8002", nil)
			return
		}
		writeEnvelope(w, true, "SUCCESS", "", []map[string]string{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-stale")

	if _, err := client.GetOrderBook(context.Background(), sess); err != nil {
		t.Fatalf("GetOrderBook: %v", err)
	}
	if n := atomic.LoadInt32(&envelopeRejections); n != 1 {
		t.Errorf("envelope rejections = %d, want 1", n)
	}
	if n := atomic.LoadInt32(&fake.refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}
}

func TestTransportErrorOnConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := newTestClient(srv.URL)
	_, err := client.Login(context.Background(), "A100200", "123456")
	var transportErr *errs.TransportError
	if !errs.As(err, &transportErr) {
		t.Fatalf("want *TransportError, got %T: %v", err, err)
	}
}

func TestHTTPErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	_, err := client.GetOrderBook(context.Background(), sess)
	var httpErr *errs.HTTPError
	if !errs.As(err, &httpErr) {
		t.Fatalf("want *HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
	if httpErr.Body != "upstream unavailable" {
		t.Errorf("Body = %q", httpErr.Body)
	}
	if httpErr.IsUnauthorized() {
		t.Error("502 must not classify as unauthorized")
	}
}

func TestLogoutInvalidatesLocallyEvenWhenUpstreamFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	client.Logout(context.Background(), sess)
	if sess.Authenticated() {
		t.Error("session still authenticated after logout")
	}
}

func TestConcurrentCallsShareOneRefresh(t *testing.T) {
	fake := &fakeBroker{t: t, validToken: "jwt-valid"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-stale")

	const workers = 8
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := client.GetOrderBook(context.Background(), sess)
			errCh <- err
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errCh; err != nil {
			t.Errorf("worker: %v", err)
		}
	}

	// Workers that lose the refresh race reuse the rotated tokens instead of
	// refreshing again.
	if n := atomic.LoadInt32(&fake.refreshCalls); n != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", n)
	}
}

func TestRepeatedConnectionFailuresOpenCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(srv.URL)

	// Trip the breaker with consecutive connection failures.
	for i := 0; i < 5; i++ {
		if _, err := client.Login(context.Background(), "A100200", "123456"); err == nil {
			t.Fatalf("call %d succeeded against a closed server", i)
		}
	}

	// The next call is rejected before reaching the network.
	start := time.Now()
	_, err := client.Login(context.Background(), "A100200", "123456")
	var transportErr *errs.TransportError
	if !errs.As(err, &transportErr) {
		t.Fatalf("want *TransportError, got %T: %v", err, err)
	}
	if !errs.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("err = %v, want circuit-open cause", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("rejected call took %s, expected fail-fast", elapsed)
	}
}
