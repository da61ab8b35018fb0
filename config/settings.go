package config

import "time"

// DiscoveryConfig holds the thresholds the pattern discovery engine runs
// with. Values mirror what the analyses were tuned against; change with care.
type DiscoveryConfig struct {
	LookbackDays          int
	BatchCap              int
	MinSupportingSessions int
	MinConfidence         float64
	MinPreferenceSessions int
	PreferenceContactRate float64
	IndustryContactRate   float64
	IndustryMinConfidence float64 // on the 1-10 session scale
	TimingMinSessions     int
	TimingContactRate     float64
	DurationGapRatio      float64
	SuccessFrequencyRatio float64
	SuccessMinOccurrences int
	EngagementMinDuration float64 // seconds
	EngagementMinSections int
	EngagementContactRate float64
	QualityMinRelevance   float64
	QualityDominantShare  float64
	ContextMinSessions    int
	ContextContactRate    float64
}

// ValidationConfig holds experiment defaults and eligibility rules.
type ValidationConfig struct {
	MinUsersPerGroup      int
	ExperimentDuration    time.Duration
	SignificanceThreshold float64
	MinEffectSize         float64
	EarlyStopping         bool
	EligibilityWindowDays int
	MinSessionsPerUser    int
	AssignmentSeed        int64 // 0 = time-seeded
}

// LearningConfig holds the learning processor's knobs.
type LearningConfig struct {
	BatchSize            int
	BatchBudget          time.Duration
	RealtimeThreshold    float64 // learning value above which a profile refresh runs inline
	HighValueThreshold   float64 // learning value above which batch results update a profile
	MinInsightConfidence float64
	MaxInsightsPerUser   int
	RunDiscoveryInBatch  bool
}

// OrchestratorConfig controls the scheduled pass.
type OrchestratorConfig struct {
	DiscoveryInterval    time.Duration
	MaxPendingStarts     int
	PendingMinConfidence float64
	PendingMinSupport    int
	BacklogDegraded      int
	BacklogError         int
}

// Defaults used when the caller does not override anything.
var (
	Discovery = DiscoveryConfig{
		LookbackDays:          30,
		BatchCap:              1000,
		MinSupportingSessions: 3,
		MinConfidence:         0.5,
		MinPreferenceSessions: 3,
		PreferenceContactRate: 0.6,
		IndustryContactRate:   0.7,
		IndustryMinConfidence: 7,
		TimingMinSessions:     2,
		TimingContactRate:     0.6,
		DurationGapRatio:      1.3,
		SuccessFrequencyRatio: 1.5,
		SuccessMinOccurrences: 3,
		EngagementMinDuration: 120,
		EngagementMinSections: 3,
		EngagementContactRate: 0.6,
		QualityMinRelevance:   8,
		QualityDominantShare:  0.4,
		ContextMinSessions:    3,
		ContextContactRate:    0.7,
	}

	Validation = ValidationConfig{
		MinUsersPerGroup:      10,
		ExperimentDuration:    14 * 24 * time.Hour,
		SignificanceThreshold: 0.05,
		MinEffectSize:         0.1,
		EarlyStopping:         true,
		EligibilityWindowDays: 30,
		MinSessionsPerUser:    5,
	}

	Learning = LearningConfig{
		BatchSize:            100,
		BatchBudget:          5 * time.Minute,
		RealtimeThreshold:    0.5,
		HighValueThreshold:   0.3,
		MinInsightConfidence: 0.6,
		MaxInsightsPerUser:   10,
		RunDiscoveryInBatch:  true,
	}

	Orchestrator = OrchestratorConfig{
		DiscoveryInterval:    6 * time.Hour,
		MaxPendingStarts:     3,
		PendingMinConfidence: 0.7,
		PendingMinSupport:    10,
		BacklogDegraded:      500,
		BacklogError:         1000,
	}
)
