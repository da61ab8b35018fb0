package types

import "time"

// UserIntelligenceProfile is the per-user aggregation target. It is written
// only by the learning processor's aggregation step, which recomputes every
// derived field from source data and overwrites the row, so concurrent
// writers degrade to last-aggregation-wins.
type UserIntelligenceProfile struct {
	UserID                string     `json:"user_id"`
	LearningConfidence    float64    `json:"learning_confidence"`
	IndustryFocus         []string   `json:"industry_focus,omitempty"`
	TotalResearchSessions int        `json:"total_research_sessions"`
	SuccessfulContacts    int        `json:"successful_contacts"`
	TotalFeedbackEvents   int        `json:"total_feedback_events"`
	PeakActivityHour      int        `json:"peak_activity_hour"`
	AvgSessionSeconds     float64    `json:"avg_session_seconds"`
	LastPatternUpdate     *time.Time `json:"last_pattern_update,omitempty"`
	CreatedAt             time.Time  `json:"created_at,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at,omitempty"`
}

// ContactRate returns successful contacts over total sessions.
func (p UserIntelligenceProfile) ContactRate() float64 {
	if p.TotalResearchSessions == 0 {
		return 0
	}
	return float64(p.SuccessfulContacts) / float64(p.TotalResearchSessions)
}
