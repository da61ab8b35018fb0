// Package orchestrator is the coordination point of the behavioral
// intelligence pipeline and the only surface the outside world calls. It
// sequences batch processing, scheduled discovery and validation updates,
// serves the synchronous realtime path, and reports system health.
package orchestrator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/discovery"
	"clementus360/behavior-intel/learning"
	"clementus360/behavior-intel/store"
	"clementus360/behavior-intel/types"
	"clementus360/behavior-intel/validation"
)

type Orchestrator struct {
	store     store.Store
	cfg       config.OrchestratorConfig
	engine    *discovery.Engine
	validator *validation.System
	processor *learning.Processor

	mu            sync.Mutex
	lastBatch     time.Time
	lastDiscovery time.Time
}

func New(st store.Store, cfg config.OrchestratorConfig, engine *discovery.Engine, validator *validation.System, processor *learning.Processor) *Orchestrator {
	return &Orchestrator{
		store:     st,
		cfg:       cfg,
		engine:    engine,
		validator: validator,
		processor: processor,
	}
}

// RunOrchestration performs one full pass: batch processing first so
// discovery sees fresh aggregates, then discovery when its interval has
// elapsed, then metric updates for every running experiment. Sub-step
// failures are logged and absorbed; callers always get a result with
// whatever completed plus a status snapshot.
func (o *Orchestrator) RunOrchestration() types.OrchestrationResult {
	result := types.OrchestrationResult{}

	batch, err := o.processor.ProcessBatch()
	if err != nil {
		config.Logger.Errorf("orchestrator: batch processing failed: %v", err)
	} else {
		result.Batch = batch
		o.mu.Lock()
		o.lastBatch = time.Now()
		o.mu.Unlock()
	}

	if o.discoveryDue() {
		patterns, err := o.runDiscovery()
		if err != nil {
			config.Logger.Errorf("orchestrator: discovery failed: %v", err)
		} else {
			result.NewPatterns = patterns
		}
	}

	result.ValidationUpdates = o.updateRunningExperiments()
	result.Status = o.GetStatus()

	return result
}

func (o *Orchestrator) discoveryDue() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return time.Since(o.lastDiscovery) >= o.cfg.DiscoveryInterval
}

// runDiscovery runs the global pass and persists candidates not already in
// the discovered pool.
func (o *Orchestrator) runDiscovery() ([]types.DiscoveredPattern, error) {
	candidates, err := o.engine.DiscoverPatterns("")
	if err != nil {
		return nil, err
	}

	existing, err := o.store.PatternsByStatus(types.StatusDiscovered, 0)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.Name] = true
	}

	var persisted []types.DiscoveredPattern
	for _, candidate := range candidates {
		if known[candidate.Name] {
			continue
		}
		inserted, err := o.store.InsertPattern(candidate)
		if err != nil {
			config.Logger.Warnf("orchestrator: persisting pattern %q failed: %v", candidate.Name, err)
			continue
		}
		persisted = append(persisted, inserted)
	}

	o.mu.Lock()
	o.lastDiscovery = time.Now()
	o.mu.Unlock()

	return persisted, nil
}

func (o *Orchestrator) updateRunningExperiments() int {
	running, err := o.store.RunningExperiments()
	if err != nil {
		config.Logger.Errorf("orchestrator: listing running experiments failed: %v", err)
		return 0
	}

	updated := 0
	now := time.Now()
	for _, exp := range running {
		if now.After(exp.EndsAt) {
			if _, err := o.validator.Conclude(exp.ID, "experiment window elapsed"); err != nil {
				config.Logger.Warnf("orchestrator: concluding experiment %s failed: %v", exp.ID, err)
				continue
			}
		} else {
			if _, err := o.validator.UpdateMetrics(exp.ID); err != nil {
				config.Logger.Warnf("orchestrator: updating experiment %s failed: %v", exp.ID, err)
				continue
			}
		}
		updated++
	}

	return updated
}

// StartPendingValidations picks up to MaxPendingStarts discovered patterns
// that clear the confidence and support bars and starts an experiment for
// each. Patterns that fail eligibility are logged and skipped, never abort
// the rest.
func (o *Orchestrator) StartPendingValidations() []types.ValidationExperiment {
	patterns, err := o.store.PatternsByStatus(types.StatusDiscovered, 0)
	if err != nil {
		config.Logger.Errorf("orchestrator: listing discovered patterns failed: %v", err)
		return nil
	}

	var started []types.ValidationExperiment
	for _, pattern := range patterns {
		if len(started) >= o.cfg.MaxPendingStarts {
			break
		}
		if pattern.ConfidenceScore < o.cfg.PendingMinConfidence || pattern.SupportingSessions < o.cfg.PendingMinSupport {
			continue
		}

		exp, err := o.validator.StartValidation(pattern.ID)
		if err != nil {
			var insufficient *types.InsufficientPopulationError
			if errors.As(err, &insufficient) {
				config.Logger.Infof("orchestrator: pattern %q waits for population: %v", pattern.Name, err)
			} else {
				config.Logger.Warnf("orchestrator: starting validation for %q failed: %v", pattern.Name, err)
			}
			continue
		}
		started = append(started, exp)
	}

	return started
}

// ProcessRealtimeFeedback is the synchronous entry point behind the UI's
// submitFeedback call: it records the event and pushes it through the
// realtime learning path immediately.
func (o *Orchestrator) ProcessRealtimeFeedback(userID, kind string, payload map[string]interface{}, sessionID string) (types.SubmitFeedbackResponse, error) {
	if userID == "" || kind == "" {
		return types.SubmitFeedbackResponse{}, fmt.Errorf("user id and interaction kind are required")
	}

	event := types.InteractionEvent{
		UserID:           userID,
		InteractionKind:  kind,
		Payload:          payload,
		CollectionMethod: types.CollectionVoluntary,
		LearningValue:    learningValue(kind),
		CreatedAt:        time.Now(),
	}
	if sessionID != "" {
		event.SessionID = &sessionID
	}

	inserted, err := o.store.InsertEvent(event)
	if err != nil {
		return types.SubmitFeedbackResponse{}, err
	}

	processed, err := o.processor.ProcessRealtime(inserted)
	if err != nil {
		return types.SubmitFeedbackResponse{}, err
	}

	return types.SubmitFeedbackResponse{
		Success:          true,
		EventID:          inserted.ID,
		InsightTags:      processed.Result.InsightTags,
		ProfileRefreshed: processed.ProfileRefreshed,
	}, nil
}

// learningValue assigns the default [0,1] weight per interaction kind:
// deliberate signals teach more than passive ones.
func learningValue(kind string) float64 {
	switch kind {
	case types.InteractionExplicitRating:
		return 0.8
	case types.InteractionOutcomeReport:
		return 0.9
	case types.InteractionPatternCorrection:
		return 0.85
	case types.InteractionPreferenceUpdate:
		return 0.7
	case types.InteractionContextualAction:
		return 0.4
	case types.InteractionImplicitBehavior:
		return 0.3
	default:
		return 0.2
	}
}

// InitializeUser creates an empty profile row for a new user so downstream
// reads never miss. Existing profiles are left untouched.
func (o *Orchestrator) InitializeUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	if _, err := o.store.Profile(userID); err == nil {
		return nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}

	return o.store.UpsertProfile(types.UserIntelligenceProfile{
		UserID:    userID,
		CreatedAt: time.Now(),
	})
}

// GetUserSummary assembles the per-user intelligence view: profile, top
// insights, active validated patterns, recommendations, and derived
// performance metrics.
func (o *Orchestrator) GetUserSummary(userID string) (types.UserSummary, error) {
	profile, err := o.store.Profile(userID)
	if err != nil {
		return types.UserSummary{}, err
	}

	summary := types.UserSummary{Profile: profile}

	insights, err := o.processor.GenerateUserInsights(userID)
	if err != nil {
		config.Logger.Warnf("orchestrator: insights for %s failed: %v", userID, err)
	} else {
		summary.TopInsights = insights
	}

	patterns, err := o.store.PatternsForUser(userID, types.StatusValidated)
	if err != nil {
		config.Logger.Warnf("orchestrator: active patterns for %s failed: %v", userID, err)
	} else {
		summary.ActivePatterns = patterns
	}

	for _, ins := range summary.TopInsights {
		if ins.Actionable && ins.Source == types.InsightSourceProfile {
			summary.Recommendations = append(summary.Recommendations, ins.Title)
		}
	}

	summary.Performance = performanceMetrics(profile)
	return summary, nil
}

func performanceMetrics(profile types.UserIntelligenceProfile) types.PerformanceMetrics {
	metrics := types.PerformanceMetrics{
		ContactRate:      profile.ContactRate(),
		LearningProgress: profile.LearningConfidence,
	}
	if profile.AvgSessionSeconds > 0 {
		metrics.EfficiencyScore = metrics.ContactRate / (profile.AvgSessionSeconds / 60)
	}
	if profile.TotalResearchSessions > 0 {
		// Consistency saturates at 20 sessions worth of history.
		metrics.SessionConsistency = float64(profile.TotalResearchSessions) / 20
		if metrics.SessionConsistency > 1 {
			metrics.SessionConsistency = 1
		}
	}
	return metrics
}

// GetStatus reports backlog, last-run stamps, active experiment count and a
// health classification derived from how far the queue has fallen behind.
func (o *Orchestrator) GetStatus() types.SystemStatus {
	status := types.SystemStatus{
		Health:    types.HealthHealthy,
		CheckedAt: time.Now(),
	}

	backlog, err := o.store.CountUnprocessedEvents()
	if err != nil {
		config.Logger.Errorf("orchestrator: backlog count failed: %v", err)
		status.Health = types.HealthError
		return status
	}
	status.QueueBacklog = backlog

	switch {
	case backlog > o.cfg.BacklogError:
		status.Health = types.HealthError
	case backlog >= o.cfg.BacklogDegraded:
		status.Health = types.HealthDegraded
	}

	if running, err := o.store.RunningExperiments(); err == nil {
		status.ActiveExperiments = len(running)
	} else {
		config.Logger.Warnf("orchestrator: running experiment count failed: %v", err)
	}

	o.mu.Lock()
	if !o.lastBatch.IsZero() {
		t := o.lastBatch
		status.LastBatchRun = &t
	}
	if !o.lastDiscovery.IsZero() {
		t := o.lastDiscovery
		status.LastDiscoveryRun = &t
	}
	o.mu.Unlock()

	return status
}
