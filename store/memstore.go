package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"clementus360/behavior-intel/types"
)

// MemStore is an in-memory Store used as the test double across packages.
// It mirrors the Supabase semantics closely enough for the pipeline: ids are
// assigned on insert, MarkEventProcessed only touches processed=false rows,
// and queries honor time windows and limits.
type MemStore struct {
	mu sync.Mutex

	Events      map[string]*types.InteractionEvent
	Sessions    []types.ResearchSession
	Patterns    map[string]*types.DiscoveredPattern
	Experiments map[string]*types.ValidationExperiment
	Profiles    map[string]types.UserIntelligenceProfile
	AuditLog    []types.ImprovementLogEntry

	// MarkCalls counts MarkEventProcessed invocations per event id, so tests
	// can assert at-most-once processing.
	MarkCalls map[string]int

	// FailOps forces an error for the named operations, for failure-path
	// tests ("query sessions", "insert pattern", ...).
	FailOps map[string]bool
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		Events:      make(map[string]*types.InteractionEvent),
		Patterns:    make(map[string]*types.DiscoveredPattern),
		Experiments: make(map[string]*types.ValidationExperiment),
		Profiles:    make(map[string]types.UserIntelligenceProfile),
		MarkCalls:   make(map[string]int),
		FailOps:     make(map[string]bool),
	}
}

func (m *MemStore) fail(op string) error {
	if m.FailOps[op] {
		return &types.StoreError{Op: op, Err: fmt.Errorf("forced failure")}
	}
	return nil
}

func (m *MemStore) InsertEvent(event types.InteractionEvent) (types.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("insert event"); err != nil {
		return types.InteractionEvent{}, err
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	stored := event
	m.Events[event.ID] = &stored

	return event, nil
}

func (m *MemStore) UnprocessedEvents(limit int) ([]types.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query unprocessed events"); err != nil {
		return nil, err
	}

	var events []types.InteractionEvent
	for _, e := range m.Events {
		if !e.Processed {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

func (m *MemStore) CountUnprocessedEvents() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("count unprocessed events"); err != nil {
		return 0, err
	}

	count := 0
	for _, e := range m.Events {
		if !e.Processed {
			count++
		}
	}

	return count, nil
}

func (m *MemStore) MarkEventProcessed(eventID string, result types.ProcessingResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("mark event processed"); err != nil {
		return err
	}

	m.MarkCalls[eventID]++
	e, ok := m.Events[eventID]
	if !ok || e.Processed {
		return nil
	}
	e.Processed = true
	e.ProcessingResult = &result

	return nil
}

func (m *MemStore) EventsSince(userID string, since time.Time, limit int) ([]types.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query events"); err != nil {
		return nil, err
	}

	var events []types.InteractionEvent
	for _, e := range m.Events {
		if e.CreatedAt.Before(since) {
			continue
		}
		if userID != "" && e.UserID != userID {
			continue
		}
		events = append(events, *e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

func (m *MemStore) EventsByKind(kind string, since time.Time, limit int) ([]types.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query events by kind"); err != nil {
		return nil, err
	}

	var events []types.InteractionEvent
	for _, e := range m.Events {
		if e.InteractionKind != kind || e.CreatedAt.Before(since) {
			continue
		}
		events = append(events, *e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

func (m *MemStore) InsertSession(session types.ResearchSession) (types.ResearchSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("insert session"); err != nil {
		return types.ResearchSession{}, err
	}

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.Sessions = append(m.Sessions, session)

	return session, nil
}

func (m *MemStore) SessionsSince(userID string, since time.Time, limit int) ([]types.ResearchSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query sessions"); err != nil {
		return nil, err
	}

	var sessions []types.ResearchSession
	for _, s := range m.Sessions {
		if s.CreatedAt.Before(since) {
			continue
		}
		if userID != "" && s.UserID != userID {
			continue
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	return sessions, nil
}

func (m *MemStore) SessionsForUsers(userIDs []string, since time.Time) ([]types.ResearchSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query sessions for users"); err != nil {
		return nil, err
	}

	members := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		members[id] = true
	}

	var sessions []types.ResearchSession
	for _, s := range m.Sessions {
		if members[s.UserID] && !s.CreatedAt.Before(since) {
			sessions = append(sessions, s)
		}
	}

	return sessions, nil
}

func (m *MemStore) InsertPattern(pattern types.DiscoveredPattern) (types.DiscoveredPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("insert pattern"); err != nil {
		return types.DiscoveredPattern{}, err
	}

	if pattern.ID == "" {
		pattern.ID = uuid.New().String()
	}
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = time.Now()
	}
	stored := pattern
	m.Patterns[pattern.ID] = &stored

	return pattern, nil
}

func (m *MemStore) Pattern(id string) (types.DiscoveredPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("fetch pattern"); err != nil {
		return types.DiscoveredPattern{}, err
	}

	p, ok := m.Patterns[id]
	if !ok {
		return types.DiscoveredPattern{}, fmt.Errorf("pattern %s: %w", id, types.ErrNotFound)
	}

	return *p, nil
}

func (m *MemStore) UpdatePattern(id string, patch map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update pattern"); err != nil {
		return err
	}

	p, ok := m.Patterns[id]
	if !ok {
		return fmt.Errorf("pattern %s: %w", id, types.ErrNotFound)
	}
	if v, ok := patch["validation_status"].(string); ok {
		p.ValidationStatus = v
	}
	if v, ok := patch["last_validated_at"].(time.Time); ok {
		p.LastValidatedAt = &v
	}
	if v, ok := patch["confidence_score"].(float64); ok {
		p.ConfidenceScore = v
	}

	return nil
}

func (m *MemStore) PatternsByStatus(status string, limit int) ([]types.DiscoveredPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query patterns by status"); err != nil {
		return nil, err
	}

	var patterns []types.DiscoveredPattern
	for _, p := range m.Patterns {
		if p.ValidationStatus == status {
			patterns = append(patterns, *p)
		}
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ConfidenceScore > patterns[j].ConfidenceScore })
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}

	return patterns, nil
}

func (m *MemStore) PatternsForUser(userID, status string) ([]types.DiscoveredPattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query patterns for user"); err != nil {
		return nil, err
	}

	var patterns []types.DiscoveredPattern
	for _, p := range m.Patterns {
		if p.ValidationStatus == status && p.Scope.AppliesTo(userID) {
			patterns = append(patterns, *p)
		}
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ConfidenceScore > patterns[j].ConfidenceScore })

	return patterns, nil
}

func (m *MemStore) InsertExperiment(exp types.ValidationExperiment) (types.ValidationExperiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("insert experiment"); err != nil {
		return types.ValidationExperiment{}, err
	}

	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	stored := exp
	m.Experiments[exp.ID] = &stored

	return exp, nil
}

func (m *MemStore) Experiment(id string) (types.ValidationExperiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("fetch experiment"); err != nil {
		return types.ValidationExperiment{}, err
	}

	e, ok := m.Experiments[id]
	if !ok {
		return types.ValidationExperiment{}, fmt.Errorf("experiment %s: %w", id, types.ErrNotFound)
	}

	return *e, nil
}

func (m *MemStore) UpdateExperiment(id string, patch map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update experiment"); err != nil {
		return err
	}

	e, ok := m.Experiments[id]
	if !ok {
		return fmt.Errorf("experiment %s: %w", id, types.ErrNotFound)
	}
	if v, ok := patch["status"].(string); ok {
		e.Status = v
	}
	if v, ok := patch["control_group"].(types.ExperimentGroup); ok {
		e.ControlGroup = v
	}
	if v, ok := patch["treatment_group"].(types.ExperimentGroup); ok {
		e.TreatmentGroup = v
	}
	if v, ok := patch["significance"].(*types.SignificanceResult); ok {
		e.Significance = v
	}
	if v, ok := patch["final_decision"].(string); ok {
		e.FinalDecision = v
	}
	if v, ok := patch["decision_reason"].(string); ok {
		e.DecisionReason = v
	}
	if v, ok := patch["concluded_at"].(time.Time); ok {
		e.ConcludedAt = &v
	}

	return nil
}

func (m *MemStore) RunningExperiments() ([]types.ValidationExperiment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("query running experiments"); err != nil {
		return nil, err
	}

	var exps []types.ValidationExperiment
	for _, e := range m.Experiments {
		if e.Status == types.ExperimentRunning {
			exps = append(exps, *e)
		}
	}

	return exps, nil
}

func (m *MemStore) Profile(userID string) (types.UserIntelligenceProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("fetch profile"); err != nil {
		return types.UserIntelligenceProfile{}, err
	}

	p, ok := m.Profiles[userID]
	if !ok {
		return types.UserIntelligenceProfile{}, fmt.Errorf("profile %s: %w", userID, types.ErrNotFound)
	}

	return p, nil
}

func (m *MemStore) UpsertProfile(profile types.UserIntelligenceProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("upsert profile"); err != nil {
		return err
	}

	profile.UpdatedAt = time.Now()
	if existing, ok := m.Profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	m.Profiles[profile.UserID] = profile

	return nil
}

func (m *MemStore) AppendImprovementLog(entry types.ImprovementLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("append improvement log"); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.AuditLog = append(m.AuditLog, entry)

	return nil
}
