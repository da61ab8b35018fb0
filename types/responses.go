package types

import "time"

// System health classifications derived from the unprocessed-event backlog.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthError    = "error"
)

// SystemStatus is the operational snapshot the orchestrator reports.
type SystemStatus struct {
	Health            string     `json:"health"`
	QueueBacklog      int        `json:"queue_backlog"`
	ActiveExperiments int        `json:"active_experiments"`
	LastBatchRun      *time.Time `json:"last_batch_run,omitempty"`
	LastDiscoveryRun  *time.Time `json:"last_discovery_run,omitempty"`
	CheckedAt         time.Time  `json:"checked_at"`
}

// BatchResult summarizes one batch processing pass.
type BatchResult struct {
	EventsProcessed int           `json:"events_processed"`
	EventsFailed    int           `json:"events_failed"`
	ProfilesUpdated int           `json:"profiles_updated"`
	PatternsFound   int           `json:"patterns_found"`
	Elapsed         time.Duration `json:"elapsed"`
}

// OrchestrationResult is what one full orchestration pass returns. Sub-step
// failures surface here as zero-valued sections plus degraded status, never
// as an error past the orchestrator boundary.
type OrchestrationResult struct {
	Batch             BatchResult         `json:"batch"`
	NewPatterns       []DiscoveredPattern `json:"new_patterns,omitempty"`
	ValidationUpdates int                 `json:"validation_updates"`
	Status            SystemStatus        `json:"status"`
}

// PerformanceMetrics is the derived display block in a user summary.
type PerformanceMetrics struct {
	ContactRate        float64 `json:"contact_rate"`
	EfficiencyScore    float64 `json:"efficiency_score"`
	LearningProgress   float64 `json:"learning_progress"`
	SessionConsistency float64 `json:"session_consistency"`
}

// UserSummary is the per-user intelligence view consumed by the UI layer.
type UserSummary struct {
	Profile         UserIntelligenceProfile `json:"profile"`
	TopInsights     []Insight               `json:"top_insights,omitempty"`
	ActivePatterns  []DiscoveredPattern     `json:"active_patterns,omitempty"`
	Recommendations []string                `json:"recommendations,omitempty"`
	Performance     PerformanceMetrics      `json:"performance"`
}

type UserSummaryResponse struct {
	Success      bool         `json:"success"`
	Summary      *UserSummary `json:"summary,omitempty"`
	ErrorMessage string       `json:"error,omitempty"`
}

type SystemStatusResponse struct {
	Success      bool          `json:"success"`
	Status       *SystemStatus `json:"status,omitempty"`
	ErrorMessage string        `json:"error,omitempty"`
}

type OrchestrationResponse struct {
	Success      bool                 `json:"success"`
	Result       *OrchestrationResult `json:"result,omitempty"`
	ErrorMessage string               `json:"error,omitempty"`
}
