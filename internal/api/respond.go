// Package api holds the JSON response helpers and error mapping shared
// by every handler, so no endpoint ever returns a non-JSON failure body.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/shelfscape/backend/internal/store"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error writes the standard {"error": msg} failure body.
func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// Message writes the standard {"message": msg} success body.
func Message(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// StoreError maps store sentinel errors onto HTTP statuses. Not-found
// and access-denied are deliberately the same response so callers
// cannot probe for the existence of other users' resources.
func StoreError(w http.ResponseWriter, err error, notFoundMsg, conflictMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, store.ErrDuplicate):
		Error(w, http.StatusConflict, conflictMsg)
	default:
		log.Printf("store error: %v", err)
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// NotFound is the router-level 404 handler.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed is the router-level 405 handler.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
