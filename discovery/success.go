package discovery

import (
	"fmt"
	"sort"

	"clementus360/behavior-intel/types"
)

// successIndicatorPatterns compares per-session characteristics between the
// contacted and skipped cohorts. A characteristic qualifies when its
// frequency among contacted sessions is at least 1.5x its frequency among
// skipped ones, with a minimum number of occurrences.
func (e *Engine) successIndicatorPatterns(userID string) ([]types.DiscoveredPattern, error) {
	sessions, err := e.decidedSessions(userID)
	if err != nil {
		return nil, err
	}

	contacted, skipped := splitByOutcome(sessions)
	if len(contacted) == 0 || len(skipped) == 0 {
		return nil, nil
	}

	overallMean := meanDuration(sessions)
	contactedFreq := characteristicCounts(contacted, overallMean, e.cfg.EngagementMinSections)
	skippedFreq := characteristicCounts(skipped, overallMean, e.cfg.EngagementMinSections)

	type indicator struct {
		name  string
		ratio float64
		count int
	}
	var indicators []indicator
	for name, count := range contactedFreq {
		if count < e.cfg.SuccessMinOccurrences {
			continue
		}
		freqContacted := float64(count) / float64(len(contacted))
		freqSkipped := float64(skippedFreq[name]) / float64(len(skipped))

		var ratio float64
		if freqSkipped == 0 {
			ratio = e.cfg.SuccessFrequencyRatio + 1 // present only in the successful cohort
		} else {
			ratio = freqContacted / freqSkipped
		}
		if ratio <= e.cfg.SuccessFrequencyRatio {
			continue
		}
		indicators = append(indicators, indicator{name: name, ratio: ratio, count: count})
	}
	if len(indicators) == 0 {
		return nil, nil
	}
	sort.Slice(indicators, func(i, j int) bool { return indicators[i].ratio > indicators[j].ratio })

	data := make([]map[string]interface{}, 0, len(indicators))
	support := 0
	for _, ind := range indicators {
		data = append(data, map[string]interface{}{
			"characteristic":  ind.name,
			"frequency_ratio": ind.ratio,
			"occurrences":     ind.count,
		})
		if ind.count > support {
			support = ind.count
		}
	}

	p := newCandidate(types.PatternSuccessIndicator, "success_indicator_analysis")
	p.Name = fmt.Sprintf("Success indicator: %s", indicators[0].name)
	p.Description = fmt.Sprintf("%q shows up %.1fx more often in contacted sessions", indicators[0].name, indicators[0].ratio)
	p.PatternData = map[string]interface{}{"indicators": data}
	p.TriggerConditions = "session exhibits a success characteristic"
	p.ExpectedOutcome = "higher contact likelihood"
	p.ConfidenceScore = ratioConfidence(indicators[0].ratio)
	p.SupportingSessions = support
	p.Scope = userScope(userID)

	return []types.DiscoveredPattern{p}, nil
}

// characteristicCounts counts, per cohort, how many sessions carry each
// characteristic: every viewed section by name, plus derived depth and
// length flags.
func characteristicCounts(sessions []types.ResearchSession, overallMean float64, minSections int) map[string]int {
	counts := make(map[string]int)
	for _, s := range sessions {
		seen := make(map[string]bool)
		for _, section := range s.SectionsViewed {
			if !seen["section:"+section] {
				counts["section:"+section]++
				seen["section:"+section] = true
			}
		}
		if len(s.SectionsViewed) >= minSections {
			counts["deep_section_coverage"]++
		}
		if overallMean > 0 && s.DurationSeconds > overallMean {
			counts["above_average_duration"]++
		}
	}
	return counts
}

func ratioConfidence(ratio float64) float64 {
	score := ratio / 3
	if score > 0.9 {
		return 0.9
	}
	return score
}

// engagementSignalPatterns flags deep sessions (long duration, several
// sections viewed) and emits a pattern when that subset converts above the
// threshold with enough support.
func (e *Engine) engagementSignalPatterns(userID string) ([]types.DiscoveredPattern, error) {
	sessions, err := e.decidedSessions(userID)
	if err != nil {
		return nil, err
	}

	var engaged []types.ResearchSession
	for _, s := range sessions {
		if s.DurationSeconds > e.cfg.EngagementMinDuration && len(s.SectionsViewed) >= e.cfg.EngagementMinSections {
			engaged = append(engaged, s)
		}
	}
	rate := contactRate(engaged)
	if len(engaged) < e.cfg.MinSupportingSessions || rate <= e.cfg.EngagementContactRate {
		return nil, nil
	}

	p := newCandidate(types.PatternEngagementSignal, "engagement_signal_analysis")
	p.Name = "Deep engagement converts"
	p.Description = fmt.Sprintf("Sessions over %.0fs with %d+ sections convert at %.0f%%",
		e.cfg.EngagementMinDuration, e.cfg.EngagementMinSections, rate*100)
	p.PatternData = map[string]interface{}{
		"min_duration_seconds": e.cfg.EngagementMinDuration,
		"min_sections":         e.cfg.EngagementMinSections,
		"contact_rate":         rate,
		"engaged_sessions":     len(engaged),
	}
	p.TriggerConditions = fmt.Sprintf("duration > %.0fs and sections viewed >= %d",
		e.cfg.EngagementMinDuration, e.cfg.EngagementMinSections)
	p.ExpectedOutcome = "higher contact likelihood"
	p.ConfidenceScore = rate
	p.SupportingSessions = len(engaged)
	p.Scope = userScope(userID)

	return []types.DiscoveredPattern{p}, nil
}
