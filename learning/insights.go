package learning

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/types"
)

// GenerateUserInsights combines three sources for one user: validated
// patterns in scope, behavioral trends, and profile-derived recommendations.
// The result is filtered to the configured confidence floor, capped, and
// sorted strongest first.
func (p *Processor) GenerateUserInsights(userID string) ([]types.Insight, error) {
	var insights []types.Insight

	patternInsights, err := p.patternInsights(userID)
	if err != nil {
		config.Logger.Warnf("learning: pattern insights for %s failed: %v", userID, err)
	} else {
		insights = append(insights, patternInsights...)
	}

	trendInsights, err := p.trendInsights(userID)
	if err != nil {
		config.Logger.Warnf("learning: trend insights for %s failed: %v", userID, err)
	} else {
		insights = append(insights, trendInsights...)
	}

	insights = append(insights, p.profileInsights(userID)...)

	kept := insights[:0]
	for _, ins := range insights {
		if ins.Confidence >= p.cfg.MinInsightConfidence {
			kept = append(kept, ins)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confidence > kept[j].Confidence })
	if len(kept) > p.cfg.MaxInsightsPerUser {
		kept = kept[:p.cfg.MaxInsightsPerUser]
	}

	return kept, nil
}

// patternInsights surfaces validated in-scope patterns: high-confidence ones
// as leverage points, the rest as patterns worth applying more.
func (p *Processor) patternInsights(userID string) ([]types.Insight, error) {
	patterns, err := p.store.PatternsForUser(userID, types.StatusValidated)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var insights []types.Insight
	for _, pattern := range patterns {
		ins := types.Insight{
			Type:        pattern.PatternType,
			Confidence:  pattern.ConfidenceScore,
			Actionable:  true,
			Source:      types.InsightSourcePattern,
			GeneratedAt: now,
		}
		if pattern.ConfidenceScore >= 0.8 {
			ins.Title = fmt.Sprintf("Proven pattern: %s", pattern.Name)
			ins.Description = pattern.Description
		} else {
			ins.Title = fmt.Sprintf("Worth applying more: %s", pattern.Name)
			ins.Description = fmt.Sprintf("%s Validated, but backed by only %d sessions so far.",
				pattern.Description, pattern.SupportingSessions)
		}
		insights = append(insights, ins)
	}

	return insights, nil
}

// trendInsights compares the most recent week against the three before it.
func (p *Processor) trendInsights(userID string) ([]types.Insight, error) {
	now := time.Now()
	windowStart := now.AddDate(0, 0, -28)
	weekStart := now.AddDate(0, 0, -7)

	sessions, err := p.store.SessionsSince(userID, windowStart, profileScanCap)
	if err != nil {
		return nil, err
	}
	events, err := p.store.EventsSince(userID, windowStart, profileScanCap)
	if err != nil {
		return nil, err
	}

	var insights []types.Insight

	var recent, older []types.ResearchSession
	hourCounts := make(map[int]int)
	for _, s := range sessions {
		if s.CreatedAt.After(weekStart) {
			recent = append(recent, s)
		} else {
			older = append(older, s)
		}
		hourCounts[s.CreatedAt.Hour()]++
	}

	if len(recent) >= 3 && len(older) >= 3 {
		recentMean := meanSessionSeconds(recent)
		olderMean := meanSessionSeconds(older)
		switch {
		case olderMean > 0 && recentMean > olderMean*1.2:
			insights = append(insights, trendInsight(
				"Research sessions are getting longer",
				fmt.Sprintf("Average session length rose from %.0fs to %.0fs this week.", olderMean, recentMean), now))
		case olderMean > 0 && recentMean < olderMean*0.8:
			insights = append(insights, trendInsight(
				"Research sessions are getting shorter",
				fmt.Sprintf("Average session length fell from %.0fs to %.0fs this week.", olderMean, recentMean), now))
		}
	}

	recentEvents, olderEvents := 0, 0
	for _, e := range events {
		if e.CreatedAt.After(weekStart) {
			recentEvents++
		} else {
			olderEvents++
		}
	}
	weeklyBaseline := float64(olderEvents) / 3
	if weeklyBaseline >= 1 && float64(recentEvents) > weeklyBaseline*1.5 {
		insights = append(insights, trendInsight(
			"Feedback activity is up",
			fmt.Sprintf("%d feedback events this week against a weekly baseline of %.1f.", recentEvents, weeklyBaseline), now))
	}

	if peak, count := modeHour(hourCounts); count >= 3 {
		insights = append(insights, types.Insight{
			Type:        "peak_activity",
			Title:       fmt.Sprintf("Most productive around %02d:00", peak),
			Description: fmt.Sprintf("%d of the last month's sessions started near %02d:00.", count, peak),
			Confidence:  0.6,
			Actionable:  true,
			Source:      types.InsightSourceTrend,
			GeneratedAt: now,
		})
	}

	return insights, nil
}

// profileInsights derives recommendations from the aggregated profile. A
// missing profile simply yields none.
func (p *Processor) profileInsights(userID string) []types.Insight {
	profile, err := p.store.Profile(userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			config.Logger.Warnf("learning: profile lookup for %s failed: %v", userID, err)
		}
		return nil
	}

	now := time.Now()
	var insights []types.Insight

	if profile.LearningConfidence < 0.4 {
		insights = append(insights, types.Insight{
			Type:        "recommendation",
			Title:       "More feedback needed",
			Description: "Rate a few more prospects so the system can learn your preferences.",
			Confidence:  0.7,
			Actionable:  true,
			Source:      types.InsightSourceProfile,
			GeneratedAt: now,
		})
	}
	if len(profile.IndustryFocus) == 0 && profile.TotalResearchSessions >= 5 {
		insights = append(insights, types.Insight{
			Type:        "recommendation",
			Title:       "Narrow your focus",
			Description: "No dominant industry yet; concentrating on fewer verticals improves pattern quality.",
			Confidence:  0.65,
			Actionable:  true,
			Source:      types.InsightSourceProfile,
			GeneratedAt: now,
		})
	}
	if profile.TotalResearchSessions >= 10 && profile.ContactRate() < 0.3 {
		insights = append(insights, types.Insight{
			Type:        "recommendation",
			Title:       "Review your outreach strategy",
			Description: fmt.Sprintf("Only %.0f%% of %d researched prospects were contacted.",
				profile.ContactRate()*100, profile.TotalResearchSessions),
			Confidence:  0.75,
			Actionable:  true,
			Source:      types.InsightSourceProfile,
			GeneratedAt: now,
		})
	}

	return insights
}

func trendInsight(title, description string, at time.Time) types.Insight {
	return types.Insight{
		Type:        "trend",
		Title:       title,
		Description: description,
		Confidence:  0.7,
		Actionable:  false,
		Source:      types.InsightSourceTrend,
		GeneratedAt: at,
	}
}

func meanSessionSeconds(sessions []types.ResearchSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range sessions {
		total += s.DurationSeconds
	}
	return total / float64(len(sessions))
}

func modeHour(hourCounts map[int]int) (hour, count int) {
	for h, c := range hourCounts {
		if c > count || (c == count && h < hour) {
			hour, count = h, c
		}
	}
	return hour, count
}
