package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BooraVinay/AlgoTradeEngine/internal/alerts"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/stream"
)

// Webhook ingests a TradingView-style alert payload. Unknown fields are
// tolerated and missing ones fall back to configured defaults, so a
// misconfigured strategy still produces a reviewable NEW alert. When intake
// is stopped the payload is acknowledged but not stored.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert payload")
		return
	}

	stopped, err := h.store.Stopped(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stopped {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "alert intake is stopped"})
		return
	}

	alert := alerts.FromPayload(payload, h.defaults)
	if err := h.store.Save(r.Context(), alert); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info().
		Str("alert_id", alert.ID).
		Str("ticker", alert.Ticker).
		Str("action", string(alert.Action)).
		Int("quantity", alert.Quantity).
		Msg("alert ingested")
	if err := h.notifier.SendAlertReceived(r.Context(), alert); err != nil {
		h.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("alert notification failed")
	}
	h.publish(stream.EventAlertReceived, alert, "")

	writeJSON(w, http.StatusOK, map[string]string{"id": alert.ID, "status": string(alert.Status)})
}

// ListAlerts returns stored alerts, newest first. ?status= filters by
// lifecycle state, ?limit= caps the result.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	status := models.AlertStatus(r.URL.Query().Get("status"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.store.List(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AcceptAlert executes a NEW alert as a broker order.
func (h *Handler) AcceptAlert(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r)
	alert, err := h.executor.AcceptAlert(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		if alert != nil && alert.Status == models.AlertFailed {
			h.publish(stream.EventAlertFailed, alert, alert.ErrorMsg)
		}
		writeBrokerError(w, err)
		return
	}
	h.publish(stream.EventAlertAccepted, alert, "")
	writeJSON(w, http.StatusOK, alert)
}

// RejectAlert marks a NEW alert as rejected without placing an order.
func (h *Handler) RejectAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.executor.RejectAlert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBrokerError(w, err)
		return
	}
	h.publish(stream.EventAlertRejected, alert, "")
	writeJSON(w, http.StatusOK, alert)
}

// ToggleAlerts flips the intake stop switch and returns the new state.
func (h *Handler) ToggleAlerts(w http.ResponseWriter, r *http.Request) {
	stopped, err := h.store.Stopped(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.SetStopped(r.Context(), !stopped); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Info().Bool("stopped", !stopped).Msg("alert intake toggled")
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": !stopped})
}
