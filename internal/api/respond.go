package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iammorganparry/recall/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the engine's error taxonomy onto HTTP statuses.
// Validation and query-syntax errors are the caller's to fix; retryable
// storage errors (lock timeout) get a 503 so clients back off and retry.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	var qerr *models.QuerySyntaxError
	if errors.As(err, &qerr) {
		writeError(w, http.StatusBadRequest, qerr.Error())
		return
	}

	var serr *models.StorageError
	if errors.As(err, &serr) {
		if serr.Retryable {
			writeError(w, http.StatusServiceUnavailable, "storage busy, retry")
			return
		}
		writeError(w, http.StatusConflict, serr.Error())
		return
	}

	writeError(w, http.StatusInternalServerError, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
