package routes

import (
	"net/http"

	"clementus360/behavior-intel/handlers"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(mux *http.ServeMux, h *handlers.Handler) {
	mux.HandleFunc("POST /feedback", h.SubmitFeedbackHandler)

	mux.HandleFunc("GET /users/summary", h.GetUserSummaryHandler)
	mux.HandleFunc("POST /users/init", h.InitializeUserHandler)

	mux.HandleFunc("GET /system/status", h.SystemStatusHandler)
	mux.HandleFunc("POST /system/orchestrate", h.OrchestrateHandler)
	mux.HandleFunc("POST /validations/start", h.StartValidationsHandler)
}
