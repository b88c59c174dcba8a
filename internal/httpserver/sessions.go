package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
)

// sessionCookie keys the browser onto a broker session held server-side.
// Tokens never leave the process.
const sessionCookie = "algotrade_session"

type ctxKey string

const sessionKey ctxKey = "broker_session"

// SessionRegistry maps opaque cookie values to live broker sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*smartapi.Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*smartapi.Session),
	}
}

// Put registers a session and returns the opaque key for the cookie.
func (sr *SessionRegistry) Put(sess *smartapi.Session) string {
	key := uuid.NewString()
	sr.mu.Lock()
	sr.sessions[key] = sess
	sr.mu.Unlock()
	return key
}

// Get returns the session for a cookie value, or nil.
func (sr *SessionRegistry) Get(key string) *smartapi.Session {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.sessions[key]
}

// Remove drops a session from the registry.
func (sr *SessionRegistry) Remove(key string) {
	sr.mu.Lock()
	delete(sr.sessions, key)
	sr.mu.Unlock()
}

// WithSession resolves the broker session from the request cookie and
// rejects requests that have none.
func WithSession(reg *SessionRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookie)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			sess := reg.Get(cookie.Value)
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "session expired, log in again")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the broker session attached by WithSession.
func SessionFrom(r *http.Request) (*smartapi.Session, bool) {
	sess, ok := r.Context().Value(sessionKey).(*smartapi.Session)
	return sess, ok && sess != nil
}

func setSessionCookie(w http.ResponseWriter, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
