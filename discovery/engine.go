// Package discovery mines recent research sessions for recurring behavioral
// patterns. Each sub-analysis reads a bounded, time-windowed slice of data
// and proposes zero or more candidate patterns; candidates below the
// configured support or confidence floors are discarded before they leave
// the engine.
package discovery

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/store"
	"clementus360/behavior-intel/types"
)

type Engine struct {
	store store.Store
	cfg   config.DiscoveryConfig
}

func NewEngine(st store.Store, cfg config.DiscoveryConfig) *Engine {
	return &Engine{store: st, cfg: cfg}
}

type analysis struct {
	name string
	run  func() ([]types.DiscoveredPattern, error)
}

// DiscoverPatterns runs the sub-analyses concurrently and returns the
// surviving candidates. An empty userID runs the global pass; the per-user
// analyses (preferences, timing) need a user and are skipped then. A failing
// analysis is logged and skipped, never aborts the others.
func (e *Engine) DiscoverPatterns(userID string) ([]types.DiscoveredPattern, error) {
	analyses := []analysis{
		{"industry_signals", func() ([]types.DiscoveredPattern, error) { return e.industrySignalPatterns() }},
		{"success_indicators", func() ([]types.DiscoveredPattern, error) { return e.successIndicatorPatterns(userID) }},
		{"engagement_signals", func() ([]types.DiscoveredPattern, error) { return e.engagementSignalPatterns(userID) }},
		{"quality_indicators", func() ([]types.DiscoveredPattern, error) { return e.qualityIndicatorPatterns(userID) }},
		{"context_patterns", func() ([]types.DiscoveredPattern, error) { return e.contextPatterns(userID) }},
	}
	if userID != "" {
		analyses = append(analyses,
			analysis{"user_preferences", func() ([]types.DiscoveredPattern, error) { return e.DiscoverUserPreferencePatterns(userID) }},
			analysis{"timing_patterns", func() ([]types.DiscoveredPattern, error) { return e.timingPatterns(userID) }},
		)
	}

	var (
		mu         sync.Mutex
		candidates []types.DiscoveredPattern
	)

	var g errgroup.Group
	for _, a := range analyses {
		a := a
		g.Go(func() error {
			found, err := a.run()
			if err != nil {
				config.Logger.Warnf("discovery: %s analysis failed, skipping: %v", a.name, err)
				return nil
			}
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return e.filter(candidates), nil
}

func (e *Engine) filter(candidates []types.DiscoveredPattern) []types.DiscoveredPattern {
	kept := make([]types.DiscoveredPattern, 0, len(candidates))
	for _, c := range candidates {
		if c.SupportingSessions < e.cfg.MinSupportingSessions {
			continue
		}
		if c.ConfidenceScore < e.cfg.MinConfidence {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (e *Engine) windowStart() time.Time {
	return time.Now().AddDate(0, 0, -e.cfg.LookbackDays)
}

func (e *Engine) decidedSessions(userID string) ([]types.ResearchSession, error) {
	sessions, err := e.store.SessionsSince(userID, e.windowStart(), e.cfg.BatchCap)
	if err != nil {
		return nil, err
	}

	decided := sessions[:0]
	for _, s := range sessions {
		if s.Decided() {
			decided = append(decided, s)
		}
	}
	return decided, nil
}

func newCandidate(patternType, method string) types.DiscoveredPattern {
	return types.DiscoveredPattern{
		ID:               uuid.New().String(),
		PatternType:      patternType,
		DiscoveryMethod:  method,
		ValidationStatus: types.StatusDiscovered,
		CreatedAt:        time.Now(),
	}
}

func userScope(userID string) types.PatternScope {
	if userID == "" {
		return types.PatternScope{}
	}
	return types.PatternScope{UserIDs: []string{userID}}
}

func contactRate(sessions []types.ResearchSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	contacted := 0
	for _, s := range sessions {
		if s.Outcome == types.OutcomeContacted {
			contacted++
		}
	}
	return float64(contacted) / float64(len(sessions))
}

func splitByOutcome(sessions []types.ResearchSession) (contacted, skipped []types.ResearchSession) {
	for _, s := range sessions {
		switch s.Outcome {
		case types.OutcomeContacted:
			contacted = append(contacted, s)
		case types.OutcomeSkipped:
			skipped = append(skipped, s)
		}
	}
	return contacted, skipped
}

func meanDuration(sessions []types.ResearchSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range sessions {
		total += s.DurationSeconds
	}
	return total / float64(len(sessions))
}
