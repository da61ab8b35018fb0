// Package learning is the pipeline's steady-state workhorse: it turns raw
// feedback events into insight tags, folds the high-value ones into per-user
// intelligence profiles, and derives user-facing insights.
package learning

import (
	"time"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/store"
	"clementus360/behavior-intel/types"
)

// Discoverer is the slice of the discovery engine the batch path needs.
type Discoverer interface {
	DiscoverPatterns(userID string) ([]types.DiscoveredPattern, error)
}

type Processor struct {
	store      store.Store
	cfg        config.LearningConfig
	discoverer Discoverer // nil disables discovery during batch runs
}

func NewProcessor(st store.Store, cfg config.LearningConfig, discoverer Discoverer) *Processor {
	return &Processor{store: st, cfg: cfg, discoverer: discoverer}
}

// RealtimeResult is what a single synchronous event-processing call returns.
type RealtimeResult struct {
	Result           types.ProcessingResult
	ProfileRefreshed bool
}

// ProcessRealtime extracts the event's insight tags, marks it processed with
// the result payload, and refreshes the user's profile inline when the
// event's learning value crosses the realtime threshold.
func (p *Processor) ProcessRealtime(event types.InteractionEvent) (RealtimeResult, error) {
	result := types.ProcessingResult{
		InsightTags: ExtractInsightTags(event),
		ProcessedAt: time.Now(),
	}
	result.ConfidenceImpact = event.LearningValue * float64(len(result.InsightTags)) * 0.1

	if err := p.store.MarkEventProcessed(event.ID, result); err != nil {
		return RealtimeResult{}, err
	}

	out := RealtimeResult{Result: result}
	if event.LearningValue > p.cfg.RealtimeThreshold {
		if err := p.RefreshProfile(event.UserID); err != nil {
			config.Logger.Warnf("learning: realtime profile refresh for %s failed: %v", event.UserID, err)
		} else {
			out.ProfileRefreshed = true
		}
	}

	return out, nil
}

// ProcessBatch drains up to BatchSize unprocessed events oldest-first. A
// failure on one event is logged and skipped. High-value results are grouped
// by user so each user gets one aggregated profile update, and when a
// discoverer is wired in, discovery runs once per touched user with any new
// patterns persisted. The wall-clock budget stops admission of further
// events but lets admitted work finish.
func (p *Processor) ProcessBatch() (types.BatchResult, error) {
	start := time.Now()
	deadline := start.Add(p.cfg.BatchBudget)

	events, err := p.store.UnprocessedEvents(p.cfg.BatchSize)
	if err != nil {
		return types.BatchResult{}, err
	}

	result := types.BatchResult{}
	highValueUsers := make(map[string]bool)

	for _, event := range events {
		if time.Now().After(deadline) {
			config.Logger.Warnf("learning: batch budget exhausted after %d events, deferring the rest", result.EventsProcessed)
			break
		}

		tags := ExtractInsightTags(event)
		processed := types.ProcessingResult{
			InsightTags:      tags,
			ConfidenceImpact: event.LearningValue * float64(len(tags)) * 0.1,
			ProcessedAt:      time.Now(),
		}
		if err := p.store.MarkEventProcessed(event.ID, processed); err != nil {
			config.Logger.Warnf("learning: event %s failed, skipping: %v", event.ID, err)
			result.EventsFailed++
			continue
		}
		result.EventsProcessed++

		if event.LearningValue > p.cfg.HighValueThreshold {
			highValueUsers[event.UserID] = true
		}
	}

	for userID := range highValueUsers {
		if err := p.RefreshProfile(userID); err != nil {
			config.Logger.Warnf("learning: profile update for %s failed: %v", userID, err)
			continue
		}
		result.ProfilesUpdated++
	}

	if p.cfg.RunDiscoveryInBatch && p.discoverer != nil {
		for userID := range highValueUsers {
			result.PatternsFound += p.runDiscovery(userID)
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// runDiscovery persists newly discovered patterns for one user, skipping
// candidates whose name already exists in the discovered pool.
func (p *Processor) runDiscovery(userID string) int {
	candidates, err := p.discoverer.DiscoverPatterns(userID)
	if err != nil {
		config.Logger.Warnf("learning: discovery for %s failed: %v", userID, err)
		return 0
	}
	if len(candidates) == 0 {
		return 0
	}

	existing, err := p.store.PatternsForUser(userID, types.StatusDiscovered)
	if err != nil {
		config.Logger.Warnf("learning: pattern dedupe lookup for %s failed: %v", userID, err)
		return 0
	}
	known := make(map[string]bool, len(existing))
	for _, pat := range existing {
		known[pat.Name] = true
	}

	inserted := 0
	for _, candidate := range candidates {
		if known[candidate.Name] {
			continue
		}
		if _, err := p.store.InsertPattern(candidate); err != nil {
			config.Logger.Warnf("learning: persisting pattern %q failed: %v", candidate.Name, err)
			continue
		}
		inserted++
	}

	if inserted > 0 {
		p.markPatternUpdate(userID)
	}
	return inserted
}

func (p *Processor) markPatternUpdate(userID string) {
	profile, err := p.store.Profile(userID)
	if err != nil {
		return
	}
	now := time.Now()
	profile.LastPatternUpdate = &now
	if err := p.store.UpsertProfile(profile); err != nil {
		config.Logger.Warnf("learning: pattern-update stamp for %s failed: %v", userID, err)
	}
}
