package smartapi

import (
	"sync"
)

// Session is the authenticated context for one logged-in actor: the token
// triple plus the account identifier. It is owned by the caller's logical
// unit of work and passed to every gateway operation; there is no ambient
// or global session lookup.
//
// The zero value is an unauthenticated session. Sessions are not persisted
// across process restarts.
type Session struct {
	mu sync.Mutex

	clientCode   string
	accessToken  string
	refreshToken string
	feedToken    string

	// generation increments on every token change. A caller that observed a
	// 401 under an older generation knows another caller already refreshed
	// and must re-read instead of refreshing again.
	generation uint64

	// refreshMu serializes the refresh critical section. At most one token
	// refresh is in flight per session; other callers block here and then
	// re-read the now-current tokens.
	refreshMu sync.Mutex
}

// sessionSnapshot is an immutable view of session state at one instant.
type sessionSnapshot struct {
	clientCode   string
	accessToken  string
	refreshToken string
	generation   uint64
}

// NewSession creates an unauthenticated session for the given client code.
func NewSession(clientCode string) *Session {
	return &Session{clientCode: clientCode}
}

func (s *Session) snapshot() sessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sessionSnapshot{
		clientCode:   s.clientCode,
		accessToken:  s.accessToken,
		refreshToken: s.refreshToken,
		generation:   s.generation,
	}
}

// setTokens replaces the token triple and bumps the generation. Every holder
// of the session observes the new tokens on the next read.
func (s *Session) setTokens(access, refresh, feed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
	s.feedToken = feed
	s.generation++
}

func (s *Session) setClientCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code != "" {
		s.clientCode = code
	}
}

// Invalidate clears all session state, the account identifier included.
// Idempotent.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCode = ""
	s.accessToken = ""
	s.refreshToken = ""
	s.feedToken = ""
	s.generation++
}

// Authenticated reports whether the session holds an access token.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != ""
}

// ClientCode returns the account identifier for this session.
func (s *Session) ClientCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientCode
}

// FeedToken returns the market data feed token, if any.
func (s *Session) FeedToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedToken
}
