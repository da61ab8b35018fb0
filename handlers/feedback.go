package handlers

import (
	"encoding/json"
	"net/http"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/middleware"
	"clementus360/behavior-intel/types"
)

// SubmitFeedbackHandler records one feedback event for the authenticated
// user and pushes it through the realtime learning path.
func (h *Handler) SubmitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserFromRequest(r)
	if err != nil {
		config.Logger.Error("Failed to authenticate feedback request:", err)
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body types.SubmitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Kind == "" {
		config.Logger.Warn("Invalid feedback request body:", err)
		writeError(w, "Invalid or missing interaction kind", http.StatusBadRequest)
		return
	}

	resp, err := h.Orch.ProcessRealtimeFeedback(userID, body.Kind, body.Payload, body.SessionID)
	if err != nil {
		config.Logger.Error("Failed to process feedback:", err)
		writeError(w, "Failed to process feedback", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
