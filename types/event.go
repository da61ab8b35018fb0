package types

import "time"

// Interaction kinds. Every feedback event the UI layer records is one of these.
const (
	InteractionExplicitRating    = "explicit_rating"
	InteractionImplicitBehavior  = "implicit_behavior"
	InteractionContextualAction  = "contextual_action"
	InteractionOutcomeReport     = "outcome_report"
	InteractionPatternCorrection = "pattern_correction"
	InteractionPreferenceUpdate  = "preference_update"
)

// Collection methods
const (
	CollectionAutomatic = "automatic"
	CollectionPrompted  = "prompted"
	CollectionVoluntary = "voluntary"
)

// InteractionEvent is one recorded user action or signal. Events are the unit
// of work for the learning processor: processed=false rows are picked up by
// the batch pass, marked processed exactly once, and never deleted.
type InteractionEvent struct {
	ID               string                 `json:"id,omitempty"`
	UserID           string                 `json:"user_id"`
	SessionID        *string                `json:"session_id,omitempty"`
	InteractionKind  string                 `json:"interaction_kind"`
	Payload          map[string]interface{} `json:"payload,omitempty"`
	Context          map[string]interface{} `json:"context,omitempty"`
	CollectionMethod string                 `json:"collection_method"`
	Processed        bool                   `json:"processed"`
	ProcessingResult *ProcessingResult      `json:"processing_result,omitempty"`
	LearningValue    float64                `json:"learning_value"`
	CreatedAt        time.Time              `json:"created_at,omitempty"`
}

// ProcessingResult is attached to an event when it is marked processed.
type ProcessingResult struct {
	InsightTags      []string  `json:"insight_tags"`
	ConfidenceImpact float64   `json:"confidence_impact"`
	ProcessedAt      time.Time `json:"processed_at"`
}

type SubmitFeedbackRequest struct {
	Kind      string                 `json:"kind"`
	Payload   map[string]interface{} `json:"payload"`
	SessionID string                 `json:"session_id,omitempty"`
}

type SubmitFeedbackResponse struct {
	Success          bool     `json:"success"`
	EventID          string   `json:"event_id,omitempty"`
	InsightTags      []string `json:"insight_tags,omitempty"`
	ProfileRefreshed bool     `json:"profile_refreshed,omitempty"`
	ErrorMessage     string   `json:"error,omitempty"`
}
