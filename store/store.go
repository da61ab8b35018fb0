package store

import (
	"time"

	"clementus360/behavior-intel/types"
)

// Store is the access handle every pipeline component receives through its
// constructor. The production implementation is Supabase; tests inject
// MemStore. Methods that look up a single row return types.ErrNotFound
// (wrapped) when the row is absent; transport failures come back as
// *types.StoreError.
type Store interface {
	// Interaction events
	InsertEvent(event types.InteractionEvent) (types.InteractionEvent, error)
	UnprocessedEvents(limit int) ([]types.InteractionEvent, error)
	CountUnprocessedEvents() (int, error)
	MarkEventProcessed(eventID string, result types.ProcessingResult) error
	EventsSince(userID string, since time.Time, limit int) ([]types.InteractionEvent, error)
	EventsByKind(kind string, since time.Time, limit int) ([]types.InteractionEvent, error)

	// Research sessions
	InsertSession(session types.ResearchSession) (types.ResearchSession, error)
	SessionsSince(userID string, since time.Time, limit int) ([]types.ResearchSession, error)
	SessionsForUsers(userIDs []string, since time.Time) ([]types.ResearchSession, error)

	// Discovered patterns
	InsertPattern(pattern types.DiscoveredPattern) (types.DiscoveredPattern, error)
	Pattern(id string) (types.DiscoveredPattern, error)
	UpdatePattern(id string, patch map[string]interface{}) error
	PatternsByStatus(status string, limit int) ([]types.DiscoveredPattern, error)
	PatternsForUser(userID, status string) ([]types.DiscoveredPattern, error)

	// Validation experiments
	InsertExperiment(exp types.ValidationExperiment) (types.ValidationExperiment, error)
	Experiment(id string) (types.ValidationExperiment, error)
	UpdateExperiment(id string, patch map[string]interface{}) error
	RunningExperiments() ([]types.ValidationExperiment, error)

	// User intelligence profiles
	Profile(userID string) (types.UserIntelligenceProfile, error)
	UpsertProfile(profile types.UserIntelligenceProfile) error

	// Audit trail
	AppendImprovementLog(entry types.ImprovementLogEntry) error
}

// Logical table names shared by the Supabase implementation and migrations.
const (
	TableEvents         = "interaction_events"
	TableSessions       = "sessions"
	TablePatterns       = "discovered_patterns"
	TableExperiments    = "validation_experiments"
	TableProfiles       = "user_profiles"
	TableImprovementLog = "improvement_log"
)
