package learning

import (
	"errors"
	"sort"
	"time"

	"clementus360/behavior-intel/types"
)

// profileScanCap bounds the history scan behind one profile aggregation.
const profileScanCap = 2000

// RefreshProfile recomputes every derived field of a user's intelligence
// profile from source data and overwrites the row. Because nothing is
// written as a delta, concurrent refreshes from the realtime and batch paths
// degrade to last-aggregation-wins.
func (p *Processor) RefreshProfile(userID string) error {
	sessions, err := p.store.SessionsSince(userID, time.Time{}, profileScanCap)
	if err != nil {
		return err
	}
	events, err := p.store.EventsSince(userID, time.Time{}, profileScanCap)
	if err != nil {
		return err
	}

	profile, err := p.store.Profile(userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		profile = types.UserIntelligenceProfile{UserID: userID}
	}

	contacts := 0
	totalSeconds := 0.0
	hourCounts := make(map[int]int)
	industryCounts := make(map[string]int)
	for _, s := range sessions {
		if s.Outcome == types.OutcomeContacted {
			contacts++
		}
		totalSeconds += s.DurationSeconds
		hourCounts[s.CreatedAt.Hour()]++
		if s.SubjectIndustry != "" {
			industryCounts[s.SubjectIndustry]++
		}
	}

	profile.TotalResearchSessions = len(sessions)
	profile.SuccessfulContacts = contacts
	profile.TotalFeedbackEvents = len(events)
	profile.IndustryFocus = focusIndustries(industryCounts, len(sessions))
	profile.PeakActivityHour = peakHour(hourCounts)
	if len(sessions) > 0 {
		profile.AvgSessionSeconds = totalSeconds / float64(len(sessions))
	}
	profile.LearningConfidence = learningConfidence(len(sessions), len(events), industryCounts)

	return p.store.UpsertProfile(profile)
}

// focusIndustries keeps industries covering at least 20% of the user's
// sessions (minimum two), strongest first, capped at three.
func focusIndustries(counts map[string]int, totalSessions int) []string {
	if totalSessions == 0 {
		return nil
	}

	type entry struct {
		industry string
		count    int
	}
	var entries []entry
	for industry, count := range counts {
		if count >= 2 && float64(count)/float64(totalSessions) >= 0.2 {
			entries = append(entries, entry{industry, count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].industry < entries[j].industry
	})
	if len(entries) > 3 {
		entries = entries[:3]
	}

	focus := make([]string, 0, len(entries))
	for _, e := range entries {
		focus = append(focus, e.industry)
	}
	return focus
}

func peakHour(hourCounts map[int]int) int {
	peak, best := 0, 0
	for hour, count := range hourCounts {
		if count > best || (count == best && hour < peak) {
			peak, best = hour, count
		}
	}
	return peak
}

// learningConfidence blends signal volume with focus consistency: volume
// saturates at 0.5, and a dominant industry share contributes the rest,
// capped at 0.95. Scattered signal pulls the score back down on the next
// recompute.
func learningConfidence(sessionCount, eventCount int, industryCounts map[string]int) float64 {
	volume := 0.02*float64(sessionCount) + 0.01*float64(eventCount)
	if volume > 0.5 {
		volume = 0.5
	}

	consistency := 0.0
	if sessionCount > 0 {
		dominant := 0
		for _, count := range industryCounts {
			if count > dominant {
				dominant = count
			}
		}
		consistency = float64(dominant) / float64(sessionCount) * 0.45
	}

	confidence := volume + consistency
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}
