package httpserver

import (
	"encoding/json"
	"net/http"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeBrokerError maps the gateway error taxonomy onto HTTP status codes.
func writeBrokerError(w http.ResponseWriter, err error) {
	var (
		rejected  *errs.OrderRejectedError
		httpErr   *errs.HTTPError
		transport *errs.TransportError
		auth      *errs.AuthError
	)
	switch {
	case errs.Is(err, errs.ErrNotAuthenticated), errs.Is(err, errs.ErrAuthExpired),
		errs.Is(err, errs.ErrNoRefreshToken), errs.As(err, &auth):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errs.Is(err, errs.ErrInstrumentNotFound), errs.Is(err, errs.ErrOrderNotFound),
		errs.Is(err, errs.ErrAlertNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errs.Is(err, errs.ErrAlertTerminal):
		writeError(w, http.StatusConflict, err.Error())
	case errs.As(err, &rejected):
		writeError(w, http.StatusUnprocessableEntity, rejected.Message)
	case errs.As(err, &httpErr), errs.As(err, &transport):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
