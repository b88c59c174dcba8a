// Package httpserver exposes the gateway over HTTP: alert ingestion,
// the alert review surface and a thin passthrough to the broker API.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires every endpoint onto a chi router. Broker-facing routes
// require a session cookie; the webhook and alert listing do not, so
// signal sources can post without a broker login.
func NewRouter(h *Handler, reg *SessionRegistry, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/webhook/alert", h.Webhook)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Get("/alerts", h.ListAlerts)
		r.Get("/events", h.Events)
		r.Get("/stats", h.Stats)
		r.Post("/alerts/toggle", h.ToggleAlerts)
		r.Post("/alerts/{id}/reject", h.RejectAlert)

		r.Group(func(r chi.Router) {
			r.Use(WithSession(reg))

			r.Post("/alerts/{id}/accept", h.AcceptAlert)

			r.Get("/profile", h.Profile)
			r.Get("/rms", h.RMS)
			r.Get("/holdings", h.Holdings)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.OrderBook)
			r.Get("/orders/{id}", h.OrderDetails)
			r.Put("/orders/{id}", h.ModifyOrder)
			r.Delete("/orders/{id}", h.CancelOrder)
			r.Get("/trades", h.TradeBook)

			r.Get("/scrip/search", h.SearchScrip)
			r.Get("/ltp", h.LTP)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
