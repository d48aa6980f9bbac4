package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/cartclash/internal/apperr"
)

const unexpectedError = "An unexpected error occurred."

type errorBody struct {
	Error string `json:"error"`
}

type watchErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON writes v with the cache and framing headers every reply carries.
func writeJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response failed", zap.Error(err))
	}
}

func errorStatus(err error) (int, string) {
	kind := apperr.KindOf(err)
	return apperr.HTTPStatus(kind), apperr.MessageOf(err, unexpectedError)
}

// writeError replies {error} with the status of err's kind.
func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeJSON(w, status, errorBody{Error: msg})
}

// writeWatchError replies {success:false, error} with the status of err's kind.
func writeWatchError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeJSON(w, status, watchErrorBody{Success: false, Error: msg})
}
