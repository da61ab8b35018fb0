package discovery

import (
	"fmt"
	"sort"

	"clementus360/behavior-intel/types"
)

// preferenceDimension maps one categorical session attribute to the keys it
// uses in pattern data.
type preferenceDimension struct {
	name     string
	dataKey  string
	entryKey string
	value    func(types.ResearchSession) string
}

var preferenceDimensions = []preferenceDimension{
	{"industry", "preferred_industries", "industry", func(s types.ResearchSession) string { return s.SubjectIndustry }},
	{"company size", "preferred_company_sizes", "company_size", func(s types.ResearchSession) string { return s.CompanySize }},
	{"seniority", "preferred_seniorities", "seniority", func(s types.ResearchSession) string { return s.SubjectSeniority }},
	{"location", "preferred_locations", "location", func(s types.ResearchSession) string { return s.SubjectLocation }},
}

type preferenceEntry struct {
	value       string
	successRate float64
	sampleSize  int // contacted sessions backing the preference
}

// DiscoverUserPreferencePatterns groups one user's decided sessions by each
// categorical attribute. A category qualifies when it has at least the
// configured number of contacted sessions and a contact rate above the
// threshold; qualifying categories are ranked by rate descending and emitted
// as one pattern per attribute dimension.
func (e *Engine) DiscoverUserPreferencePatterns(userID string) ([]types.DiscoveredPattern, error) {
	sessions, err := e.decidedSessions(userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	var patterns []types.DiscoveredPattern
	for _, dim := range preferenceDimensions {
		entries := e.qualifyingCategories(sessions, dim.value)
		if len(entries) == 0 {
			continue
		}

		support := 0
		data := make([]map[string]interface{}, 0, len(entries))
		for _, entry := range entries {
			support += entry.sampleSize
			data = append(data, map[string]interface{}{
				dim.entryKey:   entry.value,
				"success_rate": entry.successRate,
				"sample_size":  entry.sampleSize,
			})
		}

		top := entries[0]
		p := newCandidate(types.PatternUserPreference, "user_preference_analysis")
		p.Name = fmt.Sprintf("Preferred %s: %s", dim.name, top.value)
		p.Description = fmt.Sprintf("Sessions on %s %q convert at %.0f%%", dim.name, top.value, top.successRate*100)
		p.PatternData = map[string]interface{}{dim.dataKey: data}
		p.TriggerConditions = fmt.Sprintf("subject %s is one of the preferred values", dim.name)
		p.ExpectedOutcome = "higher contact likelihood"
		p.ConfidenceScore = prefConfidence(top.successRate)
		p.SupportingSessions = support
		p.Scope = userScope(userID)
		patterns = append(patterns, p)
	}

	return patterns, nil
}

func (e *Engine) qualifyingCategories(sessions []types.ResearchSession, value func(types.ResearchSession) string) []preferenceEntry {
	totals := make(map[string]int)
	contacted := make(map[string]int)
	for _, s := range sessions {
		v := value(s)
		if v == "" {
			continue
		}
		totals[v]++
		if s.Outcome == types.OutcomeContacted {
			contacted[v]++
		}
	}

	var entries []preferenceEntry
	for v, total := range totals {
		rate := float64(contacted[v]) / float64(total)
		if contacted[v] < e.cfg.MinPreferenceSessions || rate <= e.cfg.PreferenceContactRate {
			continue
		}
		entries = append(entries, preferenceEntry{value: v, successRate: rate, sampleSize: contacted[v]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].successRate > entries[j].successRate })

	return entries
}

func prefConfidence(rate float64) float64 {
	score := rate * 0.8
	if score > 0.9 {
		return 0.9
	}
	return score
}
