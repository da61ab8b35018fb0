package validation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/store"
	"clementus360/behavior-intel/types"
)

func testConfig() config.ValidationConfig {
	cfg := config.Validation
	cfg.MinUsersPerGroup = 5
	cfg.AssignmentSeed = 42
	cfg.EarlyStopping = false
	return cfg
}

// seedPopulation gives each of n users enough recent sessions to be
// experiment-eligible.
func seedPopulation(t *testing.T, mem *store.MemStore, n int) []string {
	t.Helper()
	users := make([]string, 0, n)
	for i := 0; i < n; i++ {
		userID := fmt.Sprintf("user-%02d", i)
		users = append(users, userID)
		for j := 0; j < 5; j++ {
			_, err := mem.InsertSession(types.ResearchSession{
				UserID:          userID,
				SubjectIndustry: "fintech",
				Outcome:         types.OutcomeContacted,
				DurationSeconds: 200,
				CreatedAt:       time.Now().Add(-time.Duration(j+1) * time.Hour),
			})
			require.NoError(t, err)
		}
	}
	return users
}

func seedDiscoveredPattern(t *testing.T, mem *store.MemStore) types.DiscoveredPattern {
	t.Helper()
	p, err := mem.InsertPattern(types.DiscoveredPattern{
		PatternType:        types.PatternUserPreference,
		Name:               "fintech preference",
		ConfidenceScore:    0.8,
		SupportingSessions: 15,
		ValidationStatus:   types.StatusDiscovered,
	})
	require.NoError(t, err)
	return p
}

func TestStartValidationGroupsDisjointAndBalanced(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 20)
	pattern := seedDiscoveredPattern(t, mem)

	system := NewSystem(mem, testConfig(), nil)
	exp, err := system.StartValidation(pattern.ID)
	require.NoError(t, err)

	control := exp.ControlGroup.UserIDs
	treatment := exp.TreatmentGroup.UserIDs
	assert.Len(t, control, 10)
	assert.Len(t, treatment, 10)
	assert.False(t, exp.ControlGroup.PatternEnabled)
	assert.True(t, exp.TreatmentGroup.PatternEnabled)

	seen := make(map[string]bool)
	for _, id := range control {
		seen[id] = true
	}
	for _, id := range treatment {
		assert.False(t, seen[id], "user %s is in both groups", id)
	}

	updated, err := mem.Pattern(pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusTesting, updated.ValidationStatus)

	require.Len(t, mem.AuditLog, 1)
	assert.Equal(t, "started", mem.AuditLog[0].Action)
	assert.Equal(t, 10, mem.AuditLog[0].ControlSize)
}

func TestStartValidationOddPopulationSplitsWithinOne(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 11)
	pattern := seedDiscoveredPattern(t, mem)

	exp, err := NewSystem(mem, testConfig(), nil).StartValidation(pattern.ID)
	require.NoError(t, err)

	diff := len(exp.TreatmentGroup.UserIDs) - len(exp.ControlGroup.UserIDs)
	assert.LessOrEqual(t, diff, 1)
	assert.GreaterOrEqual(t, diff, 0)
	assert.Equal(t, 11, len(exp.ControlGroup.UserIDs)+len(exp.TreatmentGroup.UserIDs))
}

func TestStartValidationInsufficientPopulation(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 6) // need 10
	pattern := seedDiscoveredPattern(t, mem)

	_, err := NewSystem(mem, testConfig(), nil).StartValidation(pattern.ID)

	var insufficient *types.InsufficientPopulationError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Needed)
	assert.Equal(t, 6, insufficient.Eligible)
	assert.Empty(t, mem.Experiments, "no experiment record may be created")

	unchanged, err := mem.Pattern(pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDiscovered, unchanged.ValidationStatus)
}

func TestStartValidationRejectsWrongStatus(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 20)

	for _, status := range []string{types.StatusTesting, types.StatusValidated, types.StatusDeprecated} {
		p, err := mem.InsertPattern(types.DiscoveredPattern{
			Name:             "pattern in " + status,
			ValidationStatus: status,
		})
		require.NoError(t, err)

		_, err = NewSystem(mem, testConfig(), nil).StartValidation(p.ID)

		var invalid *types.InvalidStateError
		assert.ErrorAs(t, err, &invalid, "status %s must be rejected", status)
	}
}

func TestStartValidationMissingPattern(t *testing.T) {
	mem := store.NewMemStore()

	_, err := NewSystem(mem, testConfig(), nil).StartValidation("nope")

	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSeededAssignmentIsReproducible(t *testing.T) {
	build := func() (types.ValidationExperiment, error) {
		mem := store.NewMemStore()
		seedPopulation(t, mem, 20)
		p, err := mem.InsertPattern(types.DiscoveredPattern{
			Name:             "fintech preference",
			ValidationStatus: types.StatusDiscovered,
		})
		require.NoError(t, err)
		return NewSystem(mem, testConfig(), nil).StartValidation(p.ID)
	}

	first, err := build()
	require.NoError(t, err)
	second, err := build()
	require.NoError(t, err)

	assert.Equal(t, first.ControlGroup.UserIDs, second.ControlGroup.UserIDs)
	assert.Equal(t, first.TreatmentGroup.UserIDs, second.TreatmentGroup.UserIDs)
}

// seedGroupOutcomes writes post-start sessions so each member of the group
// shows the given contact rate over ten sessions.
func seedGroupOutcomes(t *testing.T, mem *store.MemStore, users []string, contactedPerUser int) {
	t.Helper()
	for _, userID := range users {
		for j := 0; j < 10; j++ {
			outcome := types.OutcomeSkipped
			if j < contactedPerUser {
				outcome = types.OutcomeContacted
			}
			_, err := mem.InsertSession(types.ResearchSession{
				UserID:          userID,
				Outcome:         outcome,
				DurationSeconds: 300,
				CreatedAt:       time.Now().Add(time.Minute),
			})
			require.NoError(t, err)
		}
	}
}

func TestUpdateMetricsIdenticalGroupsNotSignificant(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 20)
	pattern := seedDiscoveredPattern(t, mem)

	system := NewSystem(mem, testConfig(), nil)
	exp, err := system.StartValidation(pattern.ID)
	require.NoError(t, err)

	seedGroupOutcomes(t, mem, exp.ControlGroup.UserIDs, 5)
	seedGroupOutcomes(t, mem, exp.TreatmentGroup.UserIDs, 5)

	updated, err := system.UpdateMetrics(exp.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Significance)
	assert.False(t, updated.Significance.OverallSignificant)
	assert.Equal(t, types.ExperimentRunning, updated.Status)

	for _, cmp := range updated.Significance.Comparisons {
		assert.InDelta(t, 0.0, cmp.EffectSize, 1e-9, "metric %s", cmp.Metric)
	}
}

func TestConcludeValidatesOnStrongLift(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 40)
	pattern := seedDiscoveredPattern(t, mem)

	system := NewSystem(mem, testConfig(), nil)
	exp, err := system.StartValidation(pattern.ID)
	require.NoError(t, err)

	seedGroupOutcomes(t, mem, exp.ControlGroup.UserIDs, 2)   // 20% contact rate
	seedGroupOutcomes(t, mem, exp.TreatmentGroup.UserIDs, 8) // 80% contact rate

	concluded, err := system.Conclude(exp.ID, "experiment window elapsed")
	require.NoError(t, err)

	assert.Equal(t, types.ExperimentCompleted, concluded.Status)
	assert.Equal(t, types.DecisionValidated, concluded.FinalDecision)
	require.NotNil(t, concluded.Significance)
	assert.True(t, concluded.Significance.OverallSignificant)

	promoted, err := mem.Pattern(pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusValidated, promoted.ValidationStatus)
	require.NotNil(t, promoted.LastValidatedAt)
}

func TestConcludeDeprecatesWithoutSignificance(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 20)
	pattern := seedDiscoveredPattern(t, mem)

	system := NewSystem(mem, testConfig(), nil)
	exp, err := system.StartValidation(pattern.ID)
	require.NoError(t, err)

	seedGroupOutcomes(t, mem, exp.ControlGroup.UserIDs, 5)
	seedGroupOutcomes(t, mem, exp.TreatmentGroup.UserIDs, 5)

	concluded, err := system.Conclude(exp.ID, "experiment window elapsed")
	require.NoError(t, err)
	assert.Equal(t, types.DecisionRejected, concluded.FinalDecision)

	demoted, err := mem.Pattern(pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDeprecated, demoted.ValidationStatus)

	// Exactly one terminal decision: a second conclude must fail.
	_, err = system.Conclude(exp.ID, "again")
	var invalid *types.InvalidStateError
	assert.ErrorAs(t, err, &invalid)
}

func TestEarlyStoppingConcludesDuringUpdate(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 40)
	pattern := seedDiscoveredPattern(t, mem)

	cfg := testConfig()
	cfg.EarlyStopping = true
	system := NewSystem(mem, cfg, nil)

	exp, err := system.StartValidation(pattern.ID)
	require.NoError(t, err)

	seedGroupOutcomes(t, mem, exp.ControlGroup.UserIDs, 2)
	seedGroupOutcomes(t, mem, exp.TreatmentGroup.UserIDs, 8)

	updated, err := system.UpdateMetrics(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ExperimentCompleted, updated.Status)
	assert.Equal(t, "early stopping criteria met", updated.DecisionReason)
}

func TestUpdateMetricsRejectsCompletedExperiment(t *testing.T) {
	mem := store.NewMemStore()
	exp, err := mem.InsertExperiment(types.ValidationExperiment{
		PatternID: "p1",
		Status:    types.ExperimentCompleted,
		StartedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = NewSystem(mem, testConfig(), nil).UpdateMetrics(exp.ID)

	var invalid *types.InvalidStateError
	assert.ErrorAs(t, err, &invalid)
}

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	assert.True(t, types.ValidStatusTransition(types.StatusDiscovered, types.StatusTesting))
	assert.True(t, types.ValidStatusTransition(types.StatusTesting, types.StatusValidated))
	assert.True(t, types.ValidStatusTransition(types.StatusTesting, types.StatusDeprecated))

	assert.False(t, types.ValidStatusTransition(types.StatusTesting, types.StatusDiscovered))
	assert.False(t, types.ValidStatusTransition(types.StatusValidated, types.StatusTesting))
	assert.False(t, types.ValidStatusTransition(types.StatusDeprecated, types.StatusTesting))
	assert.False(t, types.ValidStatusTransition(types.StatusValidated, types.StatusDiscovered))
}

func TestConcurrentStartsAssignCleanGroups(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 20)

	patternIDs := make([]string, 16)
	for i := range patternIDs {
		p, err := mem.InsertPattern(types.DiscoveredPattern{
			Name:             fmt.Sprintf("candidate %02d", i),
			ValidationStatus: types.StatusDiscovered,
		})
		require.NoError(t, err)
		patternIDs[i] = p.ID
	}

	system := NewSystem(mem, testConfig(), nil)

	var wg sync.WaitGroup
	errs := make([]error, len(patternIDs))
	for i, id := range patternIDs {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = system.StartValidation(id)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "start %d", i)
	}
	for _, exp := range mem.Experiments {
		seen := make(map[string]bool)
		for _, id := range exp.ControlGroup.UserIDs {
			seen[id] = true
		}
		for _, id := range exp.TreatmentGroup.UserIDs {
			assert.False(t, seen[id], "experiment %s assigned %s to both groups", exp.ID, id)
		}
		assert.Equal(t, 20, len(exp.ControlGroup.UserIDs)+len(exp.TreatmentGroup.UserIDs))
	}
}

func TestScopeLimitsEligibility(t *testing.T) {
	mem := store.NewMemStore()
	seedPopulation(t, mem, 20)
	p, err := mem.InsertPattern(types.DiscoveredPattern{
		Name:             "narrow scope",
		ValidationStatus: types.StatusDiscovered,
		Scope:            types.PatternScope{UserIDs: []string{"user-00", "user-01"}},
	})
	require.NoError(t, err)

	_, err = NewSystem(mem, testConfig(), nil).StartValidation(p.ID)

	var insufficient *types.InsufficientPopulationError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Eligible)
}
