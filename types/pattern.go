package types

import "time"

// Pattern types
const (
	PatternUserPreference   = "user_preference"
	PatternIndustrySignal   = "industry_signal"
	PatternTiming           = "timing_pattern"
	PatternSuccessIndicator = "success_indicator"
	PatternEngagementSignal = "engagement_signal"
	PatternQualityIndicator = "quality_indicator"
	PatternContext          = "context_pattern"
)

// Validation lifecycle. Transitions are one-directional:
// discovered -> testing -> validated | deprecated.
const (
	StatusDiscovered = "discovered"
	StatusTesting    = "testing"
	StatusValidated  = "validated"
	StatusDeprecated = "deprecated"
)

// PatternScope limits where a pattern applies. All lists empty = global.
type PatternScope struct {
	UserIDs    []string `json:"user_ids,omitempty"`
	Industries []string `json:"industries,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

// Global reports whether the scope places no restriction at all.
func (s PatternScope) Global() bool {
	return len(s.UserIDs) == 0 && len(s.Industries) == 0 && len(s.Roles) == 0
}

// AppliesTo reports whether a user falls inside the scope. Industry/role
// restrictions are evaluated against session data by the caller; here only
// the user-id dimension is checked.
func (s PatternScope) AppliesTo(userID string) bool {
	if len(s.UserIDs) == 0 {
		return true
	}
	for _, id := range s.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DiscoveredPattern is a candidate or confirmed behavioral rule.
type DiscoveredPattern struct {
	ID                 string                 `json:"id,omitempty"`
	PatternType        string                 `json:"pattern_type"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description"`
	PatternData        map[string]interface{} `json:"pattern_data,omitempty"`
	TriggerConditions  string                 `json:"trigger_conditions,omitempty"`
	ExpectedOutcome    string                 `json:"expected_outcome,omitempty"`
	ConfidenceScore    float64                `json:"confidence_score"`
	SupportingSessions int                    `json:"supporting_sessions"`
	DiscoveryMethod    string                 `json:"discovery_method"`
	Scope              PatternScope           `json:"scope"`
	ValidationStatus   string                 `json:"validation_status"`
	LastValidatedAt    *time.Time             `json:"last_validated_at,omitempty"`
	CreatedAt          time.Time              `json:"created_at,omitempty"`
}

// ValidStatusTransition reports whether moving a pattern from one validation
// status to another is legal. Terminal states never go back to testing and
// testing never reverts to discovered.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case StatusDiscovered:
		return to == StatusTesting
	case StatusTesting:
		return to == StatusValidated || to == StatusDeprecated
	default:
		return false
	}
}
