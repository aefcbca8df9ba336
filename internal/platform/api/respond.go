// Package api defines the JSON response and error envelope every gateway
// endpoint speaks.
package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as the response body with the given status. Encoding
// failures after the header is out can only be logged by middleware, so
// they are dropped here.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
