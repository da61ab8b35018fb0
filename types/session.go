package types

import "time"

// Session outcomes. An empty outcome means the session is still open; only
// decided sessions feed pattern discovery and experiment metrics.
const (
	OutcomeContacted = "contacted"
	OutcomeSkipped   = "skipped"
)

// ResearchSession is one bounded unit of user activity on a subject profile.
// Outcome is write-once.
type ResearchSession struct {
	ID               string    `json:"id,omitempty"`
	UserID           string    `json:"user_id"`
	SubjectCompany   string    `json:"subject_company,omitempty"`
	SubjectIndustry  string    `json:"subject_industry,omitempty"`
	CompanySize      string    `json:"company_size,omitempty"`
	SubjectSeniority string    `json:"subject_seniority,omitempty"`
	SubjectLocation  string    `json:"subject_location,omitempty"`
	ResearchPurpose  string    `json:"research_purpose,omitempty"`
	Outcome          string    `json:"outcome,omitempty"`
	DurationSeconds  float64   `json:"duration_seconds"`
	ConfidenceLevel  float64   `json:"confidence_level,omitempty"` // 1-10
	RelevanceRating  float64   `json:"relevance_rating,omitempty"` // 1-10
	SectionsViewed   []string  `json:"sections_viewed,omitempty"`
	SectionsExpanded []string  `json:"sections_expanded,omitempty"`
	ClickPattern     string    `json:"click_pattern,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// Decided reports whether the session ended in a recorded outcome.
func (s ResearchSession) Decided() bool {
	return s.Outcome == OutcomeContacted || s.Outcome == OutcomeSkipped
}
