package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qdispatch/qdispatch/dispatcher"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusForDispatchError maps a Dispatcher error to the HTTP status the
// external interfaces contract documents.
func statusForDispatchError(err error) int {
	var validation *dispatcher.ValidationError
	var unauthorized *dispatcher.Unauthorized
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}
