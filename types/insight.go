package types

import "time"

// Insight sources
const (
	InsightSourcePattern = "validated_pattern"
	InsightSourceTrend   = "trend_detection"
	InsightSourceProfile = "profile_recommendation"
)

// Insight is one user-facing piece of derived intelligence.
type Insight struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	Actionable  bool      `json:"actionable"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ImprovementLogEntry is the audit record written for every experiment start
// and conclusion.
type ImprovementLogEntry struct {
	ID            string                 `json:"id,omitempty"`
	ExperimentID  string                 `json:"experiment_id"`
	PatternID     string                 `json:"pattern_id"`
	Action        string                 `json:"action"` // "started" | "concluded"
	ControlSize   int                    `json:"control_size"`
	TreatmentSize int                    `json:"treatment_size"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     time.Time              `json:"created_at,omitempty"`
}
