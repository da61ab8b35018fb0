package handlers

import (
	"errors"
	"net/http"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/middleware"
	"clementus360/behavior-intel/types"
)

// GetUserSummaryHandler returns the authenticated user's intelligence view.
func (h *Handler) GetUserSummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserFromRequest(r)
	if err != nil {
		config.Logger.Error("Failed to authenticate summary request:", err)
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary, err := h.Orch.GetUserSummary(userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			writeError(w, "No profile for user", http.StatusNotFound)
			return
		}
		config.Logger.Error("Failed to build user summary:", err)
		writeError(w, "Failed to build user summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, types.UserSummaryResponse{
		Success: true,
		Summary: &summary,
	})
}

// InitializeUserHandler creates an empty intelligence profile for the
// authenticated user if none exists yet.
func (h *Handler) InitializeUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserFromRequest(r)
	if err != nil {
		config.Logger.Error("Failed to authenticate init request:", err)
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Orch.InitializeUser(userID); err != nil {
		config.Logger.Error("Failed to initialize user:", err)
		writeError(w, "Failed to initialize user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
