package discovery

import (
	"fmt"
	"sort"

	"clementus360/behavior-intel/types"
)

// timingPatterns looks at when a user works and how long. Hour-of-day
// buckets qualify with at least two sessions and a contact rate above the
// threshold; a duration pattern emerges when contacted sessions run at least
// 30% longer than skipped ones.
func (e *Engine) timingPatterns(userID string) ([]types.DiscoveredPattern, error) {
	sessions, err := e.decidedSessions(userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	var patterns []types.DiscoveredPattern
	if p, ok := e.hourOfDayPattern(userID, sessions); ok {
		patterns = append(patterns, p)
	}
	if p, ok := e.durationPattern(userID, sessions); ok {
		patterns = append(patterns, p)
	}

	return patterns, nil
}

func (e *Engine) hourOfDayPattern(userID string, sessions []types.ResearchSession) (types.DiscoveredPattern, bool) {
	byHour := make(map[int][]types.ResearchSession)
	for _, s := range sessions {
		byHour[s.CreatedAt.Hour()] = append(byHour[s.CreatedAt.Hour()], s)
	}

	type hourEntry struct {
		hour       int
		rate       float64
		sampleSize int
	}
	var entries []hourEntry
	support := 0
	for hour, group := range byHour {
		rate := contactRate(group)
		if len(group) < e.cfg.TimingMinSessions || rate <= e.cfg.TimingContactRate {
			continue
		}
		entries = append(entries, hourEntry{hour: hour, rate: rate, sampleSize: len(group)})
		support += len(group)
	}
	if len(entries) == 0 {
		return types.DiscoveredPattern{}, false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rate > entries[j].rate })

	data := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		data = append(data, map[string]interface{}{
			"hour":         entry.hour,
			"success_rate": entry.rate,
			"sample_size":  entry.sampleSize,
		})
	}

	p := newCandidate(types.PatternTiming, "timing_analysis")
	p.Name = fmt.Sprintf("Productive hour: %02d:00", entries[0].hour)
	p.Description = fmt.Sprintf("Sessions around %02d:00 convert at %.0f%%", entries[0].hour, entries[0].rate*100)
	p.PatternData = map[string]interface{}{"productive_hours": data}
	p.TriggerConditions = "session starts in a productive hour"
	p.ExpectedOutcome = "higher contact likelihood"
	p.ConfidenceScore = entries[0].rate
	p.SupportingSessions = support
	p.Scope = userScope(userID)

	return p, true
}

func (e *Engine) durationPattern(userID string, sessions []types.ResearchSession) (types.DiscoveredPattern, bool) {
	contacted, skipped := splitByOutcome(sessions)
	if len(contacted) < e.cfg.TimingMinSessions || len(skipped) < e.cfg.TimingMinSessions {
		return types.DiscoveredPattern{}, false
	}

	contactedMean := meanDuration(contacted)
	skippedMean := meanDuration(skipped)
	if skippedMean == 0 || contactedMean < skippedMean*e.cfg.DurationGapRatio {
		return types.DiscoveredPattern{}, false
	}

	p := newCandidate(types.PatternTiming, "timing_analysis")
	p.Name = "Longer research pays off"
	p.Description = fmt.Sprintf("Contacted sessions average %.0fs vs %.0fs for skipped", contactedMean, skippedMean)
	p.PatternData = map[string]interface{}{
		"contacted_mean_seconds": contactedMean,
		"skipped_mean_seconds":   skippedMean,
		"gap_ratio":              contactedMean / skippedMean,
	}
	p.TriggerConditions = fmt.Sprintf("session duration exceeds %.0fs", skippedMean*e.cfg.DurationGapRatio)
	p.ExpectedOutcome = "higher contact likelihood"
	p.ConfidenceScore = gapConfidence(contactedMean / skippedMean)
	p.SupportingSessions = len(contacted) + len(skipped)
	p.Scope = userScope(userID)

	return p, true
}

// gapConfidence maps the duration ratio onto [0,1]: the qualifying floor of
// 1.3x scores 0.5 and each further 10% adds 0.05, capped at 0.95.
func gapConfidence(ratio float64) float64 {
	score := 0.5 + (ratio-1.3)*0.5
	if score > 0.95 {
		return 0.95
	}
	if score < 0 {
		return 0
	}
	return score
}
