// Package service implements the HTTP surfaces of the Paymi backend:
// identity, ledger, and receipt services, each registering its routes on a
// gorilla/mux router.
package service

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/paymi/backend/internal/storage"
)

// errorBody is the error envelope shared by all endpoints.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// healthHandler reports whether the backing database is reachable, in the
// shape the frontend has always consumed.
func healthHandler(db storage.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":   "unhealthy",
				"database": "disconnected",
				"error":    err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	}
}
