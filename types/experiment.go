package types

import "time"

// Experiment statuses and terminal decisions.
const (
	ExperimentRunning   = "running"
	ExperimentCompleted = "completed"

	DecisionValidated = "validated"
	DecisionRejected  = "rejected"
)

// Metric names tracked for every experiment.
const (
	MetricContactRate  = "contact_rate"
	MetricDuration     = "session_duration"
	MetricSatisfaction = "satisfaction"
	MetricEfficiency   = "efficiency"
	MetricRetention    = "retention"
)

// ExperimentConfig controls how a validation experiment runs.
type ExperimentConfig struct {
	MinUsersPerGroup      int           `json:"min_users_per_group"`
	Duration              time.Duration `json:"duration"`
	SignificanceThreshold float64       `json:"significance_threshold"`
	MinEffectSize         float64       `json:"min_effect_size"`
	EarlyStopping         bool          `json:"early_stopping"`
}

// ExperimentGroup is one cohort of a validation experiment. Membership is
// frozen at start time.
type ExperimentGroup struct {
	UserIDs        []string     `json:"user_ids"`
	PatternEnabled bool         `json:"pattern_enabled"`
	Metrics        GroupMetrics `json:"metrics"`
}

// GroupMetrics is the latest metric snapshot for one cohort.
type GroupMetrics struct {
	SampleSessions int     `json:"sample_sessions"`
	ContactRate    float64 `json:"contact_rate"`
	AvgDuration    float64 `json:"avg_duration"`
	Satisfaction   float64 `json:"satisfaction"`
	Efficiency     float64 `json:"efficiency"`
	Retention      float64 `json:"retention"`
}

// MetricComparison is the statistical comparison of one metric between the
// control and treatment cohorts. EffectSize is the raw relative difference
// (treatment-control)/control; thresholds elsewhere are tuned against that,
// not a standardized effect size.
type MetricComparison struct {
	Metric                 string  `json:"metric"`
	ControlValue           float64 `json:"control_value"`
	TreatmentValue         float64 `json:"treatment_value"`
	EffectSize             float64 `json:"effect_size"`
	PValue                 float64 `json:"p_value"`
	Significant            bool    `json:"significant"`
	PracticallySignificant bool    `json:"practically_significant"`
}

// SignificanceResult aggregates all metric comparisons for an experiment.
type SignificanceResult struct {
	Comparisons        []MetricComparison `json:"comparisons"`
	OverallSignificant bool               `json:"overall_significant"`
	ComputedAt         time.Time          `json:"computed_at"`
}

// ValidationExperiment is an A/B test bound to exactly one pattern. Control
// and treatment user sets are disjoint and fixed for its lifetime, and it
// carries exactly one terminal decision.
type ValidationExperiment struct {
	ID             string              `json:"id,omitempty"`
	PatternID      string              `json:"pattern_id"`
	Hypothesis     string              `json:"hypothesis"`
	ControlGroup   ExperimentGroup     `json:"control_group"`
	TreatmentGroup ExperimentGroup     `json:"treatment_group"`
	MetricsTracked []string            `json:"metrics_tracked"`
	Status         string              `json:"status"`
	Config         ExperimentConfig    `json:"config"`
	Significance   *SignificanceResult `json:"significance,omitempty"`
	FinalDecision  string              `json:"final_decision,omitempty"`
	DecisionReason string              `json:"decision_reason,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	EndsAt         time.Time           `json:"ends_at"`
	ConcludedAt    *time.Time          `json:"concluded_at,omitempty"`
}
