package handlers

import (
	"encoding/json"
	"net/http"

	"clementus360/behavior-intel/orchestrator"
)

// Handler bundles the HTTP surface around the injected orchestrator.
type Handler struct {
	Orch *orchestrator.Orchestrator
}

func New(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{Orch: orch}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
