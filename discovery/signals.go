package discovery

import (
	"fmt"
	"sort"

	"clementus360/behavior-intel/types"
)

// industrySignalPatterns looks for industries that convert well across the
// whole population. An industry qualifies when it carries enough rated
// sessions, a contact rate above the threshold and an average confidence
// level above 7 on the 1-10 scale. Explicit-rating events that name an
// industry count into the confidence average alongside session confidence.
func (e *Engine) industrySignalPatterns() ([]types.DiscoveredPattern, error) {
	sessions, err := e.decidedSessions("")
	if err != nil {
		return nil, err
	}
	ratings, err := e.store.EventsByKind(types.InteractionExplicitRating, e.windowStart(), e.cfg.BatchCap)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sessions  []types.ResearchSession
		totalConf float64
		rated     int
	}
	buckets := make(map[string]*bucket)
	for _, s := range sessions {
		if s.SubjectIndustry == "" {
			continue
		}
		b := buckets[s.SubjectIndustry]
		if b == nil {
			b = &bucket{}
			buckets[s.SubjectIndustry] = b
		}
		b.sessions = append(b.sessions, s)
		if s.ConfidenceLevel > 0 {
			b.totalConf += s.ConfidenceLevel
			b.rated++
		}
	}
	for _, ev := range ratings {
		industry, _ := ev.Payload["industry"].(string)
		rating, ok := ev.Payload["rating"].(float64)
		b := buckets[industry]
		if b == nil || !ok || rating <= 0 {
			continue // ratings only sharpen industries that already have decided sessions
		}
		b.totalConf += rating
		b.rated++
	}

	var patterns []types.DiscoveredPattern
	for industry, b := range buckets {
		if len(b.sessions) < e.cfg.MinSupportingSessions || b.rated == 0 {
			continue
		}
		rate := contactRate(b.sessions)
		avgConf := b.totalConf / float64(b.rated)
		if rate <= e.cfg.IndustryContactRate || avgConf <= e.cfg.IndustryMinConfidence {
			continue
		}

		p := newCandidate(types.PatternIndustrySignal, "industry_signal_analysis")
		p.Name = fmt.Sprintf("Strong industry: %s", industry)
		p.Description = fmt.Sprintf("%s converts at %.0f%% with avg confidence %.1f", industry, rate*100, avgConf)
		p.PatternData = map[string]interface{}{
			"industry":       industry,
			"contact_rate":   rate,
			"avg_confidence": avgConf,
		}
		p.TriggerConditions = fmt.Sprintf("subject industry is %q", industry)
		p.ExpectedOutcome = "above-average contact rate"
		p.ConfidenceScore = industryConfidence(rate, avgConf)
		p.SupportingSessions = len(b.sessions)
		p.Scope = types.PatternScope{Industries: []string{industry}}
		patterns = append(patterns, p)
	}

	return patterns, nil
}

func industryConfidence(rate, avgConf float64) float64 {
	score := 0.8*rate + 0.02*avgConf
	if score > 0.95 {
		return 0.95
	}
	return score
}

// qualityIndicatorPatterns inspects highly relevant sessions (rating >= 8)
// and surfaces the dominant categorical attribute when it covers more than
// the configured share of that subset.
func (e *Engine) qualityIndicatorPatterns(userID string) ([]types.DiscoveredPattern, error) {
	sessions, err := e.decidedSessions(userID)
	if err != nil {
		return nil, err
	}

	var relevant []types.ResearchSession
	for _, s := range sessions {
		if s.RelevanceRating >= e.cfg.QualityMinRelevance {
			relevant = append(relevant, s)
		}
	}
	if len(relevant) < e.cfg.MinSupportingSessions {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, s := range relevant {
		if s.SubjectIndustry != "" {
			counts[s.SubjectIndustry]++
		}
	}

	dominant, dominantCount := "", 0
	for industry, count := range counts {
		if count > dominantCount {
			dominant, dominantCount = industry, count
		}
	}
	share := float64(dominantCount) / float64(len(relevant))
	if dominant == "" || share <= e.cfg.QualityDominantShare {
		return nil, nil
	}

	p := newCandidate(types.PatternQualityIndicator, "quality_indicator_analysis")
	p.Name = fmt.Sprintf("High-relevance focus: %s", dominant)
	p.Description = fmt.Sprintf("%.0f%% of highly relevant sessions are in %s", share*100, dominant)
	p.PatternData = map[string]interface{}{
		"industry":       dominant,
		"share":          share,
		"relevant_count": len(relevant),
	}
	p.TriggerConditions = fmt.Sprintf("subject industry is %q", dominant)
	p.ExpectedOutcome = "higher relevance ratings"
	p.ConfidenceScore = share
	p.SupportingSessions = dominantCount
	p.Scope = userScope(userID)

	return []types.DiscoveredPattern{p}, nil
}

// contextPatterns groups sessions by declared research purpose. A purpose
// qualifies with enough sessions and a contact rate above the threshold.
func (e *Engine) contextPatterns(userID string) ([]types.DiscoveredPattern, error) {
	sessions, err := e.decidedSessions(userID)
	if err != nil {
		return nil, err
	}

	byPurpose := make(map[string][]types.ResearchSession)
	for _, s := range sessions {
		if s.ResearchPurpose != "" {
			byPurpose[s.ResearchPurpose] = append(byPurpose[s.ResearchPurpose], s)
		}
	}

	var patterns []types.DiscoveredPattern
	for purpose, group := range byPurpose {
		rate := contactRate(group)
		if len(group) < e.cfg.ContextMinSessions || rate <= e.cfg.ContextContactRate {
			continue
		}

		p := newCandidate(types.PatternContext, "context_pattern_analysis")
		p.Name = fmt.Sprintf("Effective purpose: %s", purpose)
		p.Description = fmt.Sprintf("Research with purpose %q converts at %.0f%%", purpose, rate*100)
		p.PatternData = map[string]interface{}{
			"purpose":      purpose,
			"contact_rate": rate,
		}
		p.TriggerConditions = fmt.Sprintf("research purpose is %q", purpose)
		p.ExpectedOutcome = "higher contact likelihood"
		p.ConfidenceScore = rate
		p.SupportingSessions = len(group)
		p.Scope = userScope(userID)
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ConfidenceScore > patterns[j].ConfidenceScore })

	return patterns, nil
}
