package httpserver

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/BooraVinay/AlgoTradeEngine/internal/alerts"
	"github.com/BooraVinay/AlgoTradeEngine/internal/config"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/notify"
	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
	"github.com/BooraVinay/AlgoTradeEngine/internal/stream"
	"github.com/BooraVinay/AlgoTradeEngine/internal/trading"
)

// Handler carries the dependencies shared by all HTTP endpoints.
type Handler struct {
	client   *smartapi.Client
	store    *alerts.Store
	executor *trading.Executor
	registry *SessionRegistry
	notifier notify.Notifier
	hub      *stream.Hub
	creds    config.AngelCredentials
	defaults alerts.Defaults
	logger   zerolog.Logger
}

// HandlerDeps bundles the collaborators a Handler needs.
type HandlerDeps struct {
	Client      *smartapi.Client
	Store       *alerts.Store
	Executor    *trading.Executor
	Registry    *SessionRegistry
	Notifier    notify.Notifier
	Hub         *stream.Hub
	Credentials config.AngelCredentials
	Defaults    alerts.Defaults
	Logger      zerolog.Logger
}

// NewHandler creates a Handler. A nil notifier is replaced with a no-op.
func NewHandler(d HandlerDeps) *Handler {
	if d.Notifier == nil {
		d.Notifier = notify.NopNotifier{}
	}
	return &Handler{
		client:   d.Client,
		store:    d.Store,
		executor: d.Executor,
		registry: d.Registry,
		notifier: d.Notifier,
		hub:      d.Hub,
		creds:    d.Credentials,
		defaults: d.Defaults,
		logger:   d.Logger.With().Str("component", "http").Logger(),
	}
}

// publish forwards a lifecycle event to the stream hub when one is wired.
func (h *Handler) publish(evType stream.EventType, alert *models.Alert, message string) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(stream.Event{Type: evType, Alert: alert, Message: message})
}

type loginRequest struct {
	ClientCode string `json:"clientcode"`
	TOTP       string `json:"totp"`
}

type loginResponse struct {
	ClientCode string `json:"clientcode"`
	FeedToken  string `json:"feedtoken,omitempty"`
}

// Login authenticates with the broker and keys the resulting session to a
// cookie. An explicit TOTP code in the body wins; otherwise the configured
// TOTP secret generates one.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	clientCode := req.ClientCode
	if clientCode == "" {
		clientCode = h.creds.ClientCode
	}
	if clientCode == "" {
		writeError(w, http.StatusBadRequest, "clientcode is required")
		return
	}

	var (
		sess *smartapi.Session
		err  error
	)
	if req.TOTP != "" {
		sess, err = h.client.Login(r.Context(), clientCode, req.TOTP)
	} else if h.creds.TOTPSecret != "" {
		sess, err = h.client.LoginWithTOTPSecret(r.Context(), clientCode, h.creds.TOTPSecret)
	} else {
		writeError(w, http.StatusBadRequest, "totp is required")
		return
	}
	if err != nil {
		writeBrokerError(w, err)
		return
	}

	key := h.registry.Put(sess)
	setSessionCookie(w, key)
	h.logger.Info().Str("clientcode", clientCode).Msg("session established")
	writeJSON(w, http.StatusOK, loginResponse{
		ClientCode: sess.ClientCode(),
		FeedToken:  sess.FeedToken(),
	})
}

// Logout terminates the broker session and drops it from the registry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess := h.registry.Get(cookie.Value); sess != nil {
			h.client.Logout(r.Context(), sess)
		}
		h.registry.Remove(cookie.Value)
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Profile returns the broker account profile for the current session.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	profile, err := h.client.GetProfile(r.Context(), sess)
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// RMS returns the risk management summary (funds and margins).
func (h *Handler) RMS(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	data, err := h.client.GetRMS(r.Context(), sess)
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Holdings returns the long-term holdings of the account.
func (h *Handler) Holdings(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	data, err := h.client.GetHoldings(r.Context(), sess)
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
