package validation

import (
	"time"

	"clementus360/behavior-intel/stats"
	"clementus360/behavior-intel/types"
)

// groupStats holds one cohort's raw observations for the window.
type groupStats struct {
	members      int
	sessionCount int
	contact      stats.Proportion
	durations    []float64
	ratings      []float64
	efficiencies []float64 // per member: contacts per active minute
	retention    stats.Proportion
}

// evaluate gathers both cohorts' stats over [start, now] and compares every
// tracked metric with the injected comparator.
func (s *System) evaluate(exp *types.ValidationExperiment) (groupStats, groupStats, *types.SignificanceResult, error) {
	control, err := s.collectGroupStats(exp.ControlGroup.UserIDs, exp.StartedAt)
	if err != nil {
		return groupStats{}, groupStats{}, nil, err
	}
	treatment, err := s.collectGroupStats(exp.TreatmentGroup.UserIDs, exp.StartedAt)
	if err != nil {
		return groupStats{}, groupStats{}, nil, err
	}

	result := s.compareGroups(exp.Config, control, treatment, exp.MetricsTracked)
	return control, treatment, result, nil
}

func (s *System) collectGroupStats(userIDs []string, since time.Time) (groupStats, error) {
	sessions, err := s.store.SessionsForUsers(userIDs, since)
	if err != nil {
		return groupStats{}, err
	}

	gs := groupStats{members: len(userIDs)}
	perMember := make(map[string]*memberTally, len(userIDs))
	for _, id := range userIDs {
		perMember[id] = &memberTally{}
	}

	for _, sess := range sessions {
		tally, ok := perMember[sess.UserID]
		if !ok {
			continue // not in this cohort
		}
		gs.sessionCount++
		tally.seconds += sess.DurationSeconds
		gs.durations = append(gs.durations, sess.DurationSeconds)
		if sess.RelevanceRating > 0 {
			gs.ratings = append(gs.ratings, sess.RelevanceRating)
		}
		if sess.Decided() {
			gs.contact.Trials++
			if sess.Outcome == types.OutcomeContacted {
				gs.contact.Successes++
				tally.contacts++
			}
		}
		tally.active = true
	}

	gs.retention.Trials = len(userIDs)
	for _, tally := range perMember {
		if !tally.active {
			continue
		}
		gs.retention.Successes++
		if tally.seconds > 0 {
			gs.efficiencies = append(gs.efficiencies, float64(tally.contacts)/(tally.seconds/60))
		}
	}

	return gs, nil
}

type memberTally struct {
	active   bool
	contacts int
	seconds  float64
}

func (s *System) compareGroups(cfg types.ExperimentConfig, control, treatment groupStats, tracked []string) *types.SignificanceResult {
	result := &types.SignificanceResult{ComputedAt: time.Now()}

	for _, metric := range tracked {
		var cmp stats.Comparison
		switch metric {
		case types.MetricContactRate:
			cmp = s.comparator.CompareProportions(control.contact, treatment.contact)
		case types.MetricDuration:
			cmp = s.comparator.CompareMeans(stats.Summarize(control.durations), stats.Summarize(treatment.durations))
		case types.MetricSatisfaction:
			cmp = s.comparator.CompareMeans(stats.Summarize(control.ratings), stats.Summarize(treatment.ratings))
		case types.MetricEfficiency:
			cmp = s.comparator.CompareMeans(stats.Summarize(control.efficiencies), stats.Summarize(treatment.efficiencies))
		case types.MetricRetention:
			cmp = s.comparator.CompareProportions(control.retention, treatment.retention)
		default:
			continue
		}

		mc := types.MetricComparison{
			Metric:                 metric,
			ControlValue:           cmp.ControlValue,
			TreatmentValue:         cmp.TreatmentValue,
			EffectSize:             cmp.EffectSize,
			PValue:                 cmp.PValue,
			Significant:            cmp.PValue < cfg.SignificanceThreshold,
			PracticallySignificant: abs(cmp.EffectSize) > cfg.MinEffectSize,
		}
		if mc.Significant && mc.PracticallySignificant {
			result.OverallSignificant = true
		}
		result.Comparisons = append(result.Comparisons, mc)
	}

	return result
}

func (g groupStats) snapshot() types.GroupMetrics {
	m := types.GroupMetrics{
		SampleSessions: g.sessionCount,
		ContactRate:    g.contact.Rate(),
		Retention:      g.retention.Rate(),
	}
	m.AvgDuration = stats.Summarize(g.durations).Mean
	m.Satisfaction = stats.Summarize(g.ratings).Mean
	m.Efficiency = stats.Summarize(g.efficiencies).Mean
	return m
}
