package handlers

import (
	"net/http"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/types"
)

// SystemStatusHandler reports backlog and health for dashboards.
func (h *Handler) SystemStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := h.Orch.GetStatus()

	writeJSON(w, http.StatusOK, types.SystemStatusResponse{
		Success: true,
		Status:  &status,
	})
}

// OrchestrateHandler runs one full orchestration pass. Wired to the
// scheduler's cron hook, not end users.
func (h *Handler) OrchestrateHandler(w http.ResponseWriter, r *http.Request) {
	result := h.Orch.RunOrchestration()

	writeJSON(w, http.StatusOK, types.OrchestrationResponse{
		Success: true,
		Result:  &result,
	})
}

// StartValidationsHandler starts experiments for qualifying discovered
// patterns.
func (h *Handler) StartValidationsHandler(w http.ResponseWriter, r *http.Request) {
	started := h.Orch.StartPendingValidations()

	config.Logger.Infof("Started %d validation experiments", len(started))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"started": len(started),
	})
}
