// Package validation runs controlled experiments on discovered patterns
// before they are trusted. A pattern enters testing with a frozen 50/50
// control/treatment split of the eligible population, accumulates metric
// comparisons over the experiment window, and leaves as either validated or
// deprecated.
package validation

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/stats"
	"clementus360/behavior-intel/store"
	"clementus360/behavior-intel/types"
)

// eligibilityScanCap bounds the session scan used to find active users.
const eligibilityScanCap = 5000

type System struct {
	store      store.Store
	cfg        config.ValidationConfig
	comparator stats.Comparator

	// rngMu serializes group assignment: rand.Rand is not safe for
	// concurrent use, and starts can arrive from several HTTP requests.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSystem builds a validation system. A nil comparator falls back to the
// default two-sample tests. Group assignment uses cfg.AssignmentSeed so test
// runs are reproducible; a zero seed picks a time-based one.
func NewSystem(st store.Store, cfg config.ValidationConfig, comparator stats.Comparator) *System {
	if comparator == nil {
		comparator = stats.TwoSample{}
	}
	seed := cfg.AssignmentSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &System{
		store:      st,
		cfg:        cfg,
		comparator: comparator,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// StartValidation moves a discovered pattern into testing. It fails with
// InvalidStateError for patterns past discovery, and with
// InsufficientPopulationError (creating no experiment record) when fewer
// than twice the per-group minimum of eligible users exist.
func (s *System) StartValidation(patternID string) (types.ValidationExperiment, error) {
	pattern, err := s.store.Pattern(patternID)
	if err != nil {
		return types.ValidationExperiment{}, err
	}
	if pattern.ValidationStatus != types.StatusDiscovered {
		return types.ValidationExperiment{}, &types.InvalidStateError{
			Entity: "pattern", ID: patternID,
			State: pattern.ValidationStatus, Want: types.StatusDiscovered,
		}
	}

	eligible, err := s.eligibleUsers(pattern)
	if err != nil {
		return types.ValidationExperiment{}, err
	}
	needed := 2 * s.cfg.MinUsersPerGroup
	if len(eligible) < needed {
		return types.ValidationExperiment{}, &types.InsufficientPopulationError{
			Needed: needed, Eligible: len(eligible),
		}
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	s.rngMu.Unlock()
	half := len(eligible) / 2
	control := append([]string(nil), eligible[:half]...)
	treatment := append([]string(nil), eligible[half:]...)

	now := time.Now()
	exp := types.ValidationExperiment{
		ID:         uuid.New().String(),
		PatternID:  pattern.ID,
		Hypothesis: fmt.Sprintf("Applying %q improves research outcomes", pattern.Name),
		ControlGroup: types.ExperimentGroup{
			UserIDs:        control,
			PatternEnabled: false,
		},
		TreatmentGroup: types.ExperimentGroup{
			UserIDs:        treatment,
			PatternEnabled: true,
		},
		MetricsTracked: []string{
			types.MetricContactRate,
			types.MetricDuration,
			types.MetricSatisfaction,
			types.MetricEfficiency,
			types.MetricRetention,
		},
		Status: types.ExperimentRunning,
		Config: types.ExperimentConfig{
			MinUsersPerGroup:      s.cfg.MinUsersPerGroup,
			Duration:              s.cfg.ExperimentDuration,
			SignificanceThreshold: s.cfg.SignificanceThreshold,
			MinEffectSize:         s.cfg.MinEffectSize,
			EarlyStopping:         s.cfg.EarlyStopping,
		},
		StartedAt: now,
		EndsAt:    now.Add(s.cfg.ExperimentDuration),
	}

	inserted, err := s.store.InsertExperiment(exp)
	if err != nil {
		return types.ValidationExperiment{}, err
	}

	if err := s.store.UpdatePattern(pattern.ID, map[string]interface{}{
		"validation_status": types.StatusTesting,
	}); err != nil {
		return types.ValidationExperiment{}, err
	}

	s.audit(types.ImprovementLogEntry{
		ExperimentID:  inserted.ID,
		PatternID:     pattern.ID,
		Action:        "started",
		ControlSize:   len(control),
		TreatmentSize: len(treatment),
		Details: map[string]interface{}{
			"hypothesis":   inserted.Hypothesis,
			"pattern_name": pattern.Name,
		},
	})

	return inserted, nil
}

// UpdateMetrics recomputes both cohorts' metrics over [start, now] and the
// per-metric comparisons. When early stopping is enabled and a metric shows
// p<0.01 with |effect|>0.2 the experiment is concluded immediately.
func (s *System) UpdateMetrics(experimentID string) (types.ValidationExperiment, error) {
	exp, err := s.store.Experiment(experimentID)
	if err != nil {
		return types.ValidationExperiment{}, err
	}
	if exp.Status != types.ExperimentRunning {
		return types.ValidationExperiment{}, &types.InvalidStateError{
			Entity: "experiment", ID: experimentID,
			State: exp.Status, Want: types.ExperimentRunning,
		}
	}

	controlStats, treatmentStats, result, err := s.evaluate(&exp)
	if err != nil {
		return types.ValidationExperiment{}, err
	}

	exp.ControlGroup.Metrics = controlStats.snapshot()
	exp.TreatmentGroup.Metrics = treatmentStats.snapshot()
	exp.Significance = result

	if err := s.store.UpdateExperiment(exp.ID, map[string]interface{}{
		"control_group":   exp.ControlGroup,
		"treatment_group": exp.TreatmentGroup,
		"significance":    exp.Significance,
	}); err != nil {
		return types.ValidationExperiment{}, err
	}

	if exp.Config.EarlyStopping && earlyStopTriggered(result) {
		return s.Conclude(exp.ID, "early stopping criteria met")
	}

	return exp, nil
}

// Conclude completes a running experiment: the pattern is validated iff the
// latest comparison is overall-significant, otherwise deprecated.
func (s *System) Conclude(experimentID, reason string) (types.ValidationExperiment, error) {
	exp, err := s.store.Experiment(experimentID)
	if err != nil {
		return types.ValidationExperiment{}, err
	}
	if exp.Status != types.ExperimentRunning {
		return types.ValidationExperiment{}, &types.InvalidStateError{
			Entity: "experiment", ID: experimentID,
			State: exp.Status, Want: types.ExperimentRunning,
		}
	}

	controlStats, treatmentStats, result, err := s.evaluate(&exp)
	if err != nil {
		return types.ValidationExperiment{}, err
	}
	exp.ControlGroup.Metrics = controlStats.snapshot()
	exp.TreatmentGroup.Metrics = treatmentStats.snapshot()
	exp.Significance = result

	decision := types.DecisionRejected
	patternStatus := types.StatusDeprecated
	if result.OverallSignificant {
		decision = types.DecisionValidated
		patternStatus = types.StatusValidated
	}

	now := time.Now()
	exp.Status = types.ExperimentCompleted
	exp.FinalDecision = decision
	exp.DecisionReason = reason
	exp.ConcludedAt = &now

	if err := s.store.UpdateExperiment(exp.ID, map[string]interface{}{
		"status":          exp.Status,
		"control_group":   exp.ControlGroup,
		"treatment_group": exp.TreatmentGroup,
		"significance":    exp.Significance,
		"final_decision":  exp.FinalDecision,
		"decision_reason": exp.DecisionReason,
		"concluded_at":    now,
	}); err != nil {
		return types.ValidationExperiment{}, err
	}

	if err := s.promotePattern(exp.PatternID, patternStatus, now); err != nil {
		config.Logger.Warnf("validation: experiment %s concluded but pattern update failed: %v", exp.ID, err)
	}

	s.audit(types.ImprovementLogEntry{
		ExperimentID:  exp.ID,
		PatternID:     exp.PatternID,
		Action:        "concluded",
		ControlSize:   len(exp.ControlGroup.UserIDs),
		TreatmentSize: len(exp.TreatmentGroup.UserIDs),
		Details: map[string]interface{}{
			"decision":            decision,
			"reason":              reason,
			"overall_significant": result.OverallSignificant,
			"comparisons":         result.Comparisons,
		},
	})

	return exp, nil
}

// promotePattern applies the terminal status, refusing transitions the
// lifecycle forbids.
func (s *System) promotePattern(patternID, status string, at time.Time) error {
	pattern, err := s.store.Pattern(patternID)
	if err != nil {
		return err
	}
	if !types.ValidStatusTransition(pattern.ValidationStatus, status) {
		return &types.InvalidStateError{
			Entity: "pattern", ID: patternID,
			State: pattern.ValidationStatus, Want: types.StatusTesting,
		}
	}
	return s.store.UpdatePattern(patternID, map[string]interface{}{
		"validation_status": status,
		"last_validated_at": at,
	})
}

func earlyStopTriggered(result *types.SignificanceResult) bool {
	for _, c := range result.Comparisons {
		if c.PValue < 0.01 && abs(c.EffectSize) > 0.2 {
			return true
		}
	}
	return false
}

func (s *System) audit(entry types.ImprovementLogEntry) {
	if err := s.store.AppendImprovementLog(entry); err != nil {
		config.Logger.Warnf("validation: improvement log write failed: %v", err)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
