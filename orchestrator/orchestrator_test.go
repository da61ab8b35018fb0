package orchestrator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clementus360/behavior-intel/config"
	"clementus360/behavior-intel/discovery"
	"clementus360/behavior-intel/learning"
	"clementus360/behavior-intel/store"
	"clementus360/behavior-intel/types"
	"clementus360/behavior-intel/validation"
)

func newTestOrchestrator(mem *store.MemStore) *Orchestrator {
	validationCfg := config.Validation
	validationCfg.MinUsersPerGroup = 5
	validationCfg.AssignmentSeed = 7
	validationCfg.EarlyStopping = false

	learningCfg := config.Learning
	learningCfg.RunDiscoveryInBatch = false

	engine := discovery.NewEngine(mem, config.Discovery)
	validator := validation.NewSystem(mem, validationCfg, nil)
	processor := learning.NewProcessor(mem, learningCfg, engine)

	return New(mem, config.Orchestrator, engine, validator, processor)
}

func seedActiveUsers(t *testing.T, mem *store.MemStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		userID := fmt.Sprintf("user-%02d", i)
		for j := 0; j < 5; j++ {
			_, err := mem.InsertSession(types.ResearchSession{
				UserID:          userID,
				SubjectIndustry: "fintech",
				Outcome:         types.OutcomeContacted,
				DurationSeconds: 200,
				ConfidenceLevel: 8,
				CreatedAt:       time.Now().Add(-time.Duration(j+1) * time.Hour),
			})
			require.NoError(t, err)
		}
	}
}

func TestRunOrchestrationFullPass(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	_, err := mem.InsertEvent(types.InteractionEvent{
		UserID:          "user-00",
		InteractionKind: types.InteractionOutcomeReport,
		Payload:         map[string]interface{}{"outcome": "contacted"},
		LearningValue:   0.9,
	})
	require.NoError(t, err)
	seedActiveUsers(t, mem, 3)

	result := orch.RunOrchestration()

	assert.Equal(t, 1, result.Batch.EventsProcessed)
	// 15 all-contacted fintech sessions clear the industry signal bars.
	assert.NotEmpty(t, result.NewPatterns)
	assert.Equal(t, types.HealthHealthy, result.Status.Health)
	require.NotNil(t, result.Status.LastBatchRun)
	require.NotNil(t, result.Status.LastDiscoveryRun)

	// A second immediate pass must not rediscover: the interval has not
	// elapsed and the pool already holds the names.
	again := orch.RunOrchestration()
	assert.Empty(t, again.NewPatterns)
}

func TestRunOrchestrationConcludesExpiredExperiments(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)
	seedActiveUsers(t, mem, 12)

	pattern, err := mem.InsertPattern(types.DiscoveredPattern{
		Name:             "expired candidate",
		ValidationStatus: types.StatusTesting,
	})
	require.NoError(t, err)
	exp, err := mem.InsertExperiment(types.ValidationExperiment{
		PatternID:      pattern.ID,
		Status:         types.ExperimentRunning,
		MetricsTracked: []string{types.MetricContactRate},
		StartedAt:      time.Now().Add(-15 * 24 * time.Hour),
		EndsAt:         time.Now().Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	result := orch.RunOrchestration()

	assert.Equal(t, 1, result.ValidationUpdates)
	concluded, err := mem.Experiment(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ExperimentCompleted, concluded.Status)
	assert.Equal(t, "experiment window elapsed", concluded.DecisionReason)
}

func TestRunOrchestrationUpdatesLiveExperiments(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	exp, err := mem.InsertExperiment(types.ValidationExperiment{
		PatternID:      "p1",
		Status:         types.ExperimentRunning,
		MetricsTracked: []string{types.MetricContactRate},
		StartedAt:      time.Now().Add(-time.Hour),
		EndsAt:         time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	result := orch.RunOrchestration()

	assert.Equal(t, 1, result.ValidationUpdates)
	updated, err := mem.Experiment(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ExperimentRunning, updated.Status)
	assert.NotNil(t, updated.Significance)
}

func TestStartPendingValidations(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)
	seedActiveUsers(t, mem, 12)

	qualifying, err := mem.InsertPattern(types.DiscoveredPattern{
		Name:               "strong pattern",
		ConfidenceScore:    0.9,
		SupportingSessions: 20,
		ValidationStatus:   types.StatusDiscovered,
	})
	require.NoError(t, err)
	_, err = mem.InsertPattern(types.DiscoveredPattern{
		Name:               "low confidence",
		ConfidenceScore:    0.5,
		SupportingSessions: 20,
		ValidationStatus:   types.StatusDiscovered,
	})
	require.NoError(t, err)
	_, err = mem.InsertPattern(types.DiscoveredPattern{
		Name:               "thin support",
		ConfidenceScore:    0.9,
		SupportingSessions: 4,
		ValidationStatus:   types.StatusDiscovered,
	})
	require.NoError(t, err)
	// Qualifies on the bars but its scope has nobody eligible; skipped, not fatal.
	_, err = mem.InsertPattern(types.DiscoveredPattern{
		Name:               "orphan scope",
		ConfidenceScore:    0.95,
		SupportingSessions: 30,
		ValidationStatus:   types.StatusDiscovered,
		Scope:              types.PatternScope{UserIDs: []string{"nobody"}},
	})
	require.NoError(t, err)

	started := orch.StartPendingValidations()

	require.Len(t, started, 1)
	assert.Equal(t, qualifying.ID, started[0].PatternID)

	promoted, err := mem.Pattern(qualifying.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusTesting, promoted.ValidationStatus)
}

func TestStartPendingValidationsHonorsCap(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)
	seedActiveUsers(t, mem, 12)

	for i := 0; i < 5; i++ {
		_, err := mem.InsertPattern(types.DiscoveredPattern{
			Name:               fmt.Sprintf("pattern %d", i),
			ConfidenceScore:    0.9,
			SupportingSessions: 20,
			ValidationStatus:   types.StatusDiscovered,
		})
		require.NoError(t, err)
	}

	started := orch.StartPendingValidations()

	assert.Len(t, started, config.Orchestrator.MaxPendingStarts)
}

func TestProcessRealtimeFeedback(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	resp, err := orch.ProcessRealtimeFeedback("user-1", types.InteractionOutcomeReport,
		map[string]interface{}{"outcome": "contacted"}, "session-9")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.InsightTags, "successful_contact")
	assert.True(t, resp.ProfileRefreshed) // outcome reports weigh 0.9

	stored := mem.Events[resp.EventID]
	require.NotNil(t, stored)
	assert.True(t, stored.Processed)
	assert.InDelta(t, 0.9, stored.LearningValue, 1e-9)
	require.NotNil(t, stored.SessionID)
	assert.Equal(t, "session-9", *stored.SessionID)
	assert.Equal(t, types.CollectionVoluntary, stored.CollectionMethod)
}

func TestProcessRealtimeFeedbackValidatesInput(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	_, err := orch.ProcessRealtimeFeedback("", types.InteractionOutcomeReport, nil, "")
	assert.Error(t, err)

	_, err = orch.ProcessRealtimeFeedback("user-1", "", nil, "")
	assert.Error(t, err)
	assert.Empty(t, mem.Events)
}

func TestInitializeUserIsIdempotent(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	require.NoError(t, orch.InitializeUser("user-1"))
	first, err := mem.Profile("user-1")
	require.NoError(t, err)

	require.NoError(t, orch.InitializeUser("user-1"))
	second, err := mem.Profile("user-1")
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)

	assert.Error(t, orch.InitializeUser(""))
}

func TestGetUserSummary(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	require.NoError(t, mem.UpsertProfile(types.UserIntelligenceProfile{
		UserID:                "user-1",
		TotalResearchSessions: 10,
		SuccessfulContacts:    6,
		AvgSessionSeconds:     300,
		LearningConfidence:    0.3,
	}))
	_, err := mem.InsertPattern(types.DiscoveredPattern{
		Name:             "fintech preference",
		PatternType:      types.PatternUserPreference,
		ConfidenceScore:  0.85,
		ValidationStatus: types.StatusValidated,
	})
	require.NoError(t, err)

	summary, err := orch.GetUserSummary("user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", summary.Profile.UserID)
	require.Len(t, summary.ActivePatterns, 1)
	assert.NotEmpty(t, summary.TopInsights)
	// Low learning confidence produces an actionable profile recommendation.
	assert.Contains(t, summary.Recommendations, "More feedback needed")

	assert.InDelta(t, 0.6, summary.Performance.ContactRate, 1e-9)
	assert.InDelta(t, 0.12, summary.Performance.EfficiencyScore, 1e-9) // 0.6 per 5 minutes
	assert.InDelta(t, 0.5, summary.Performance.SessionConsistency, 1e-9)
}

func TestGetUserSummaryUnknownUser(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	_, err := orch.GetUserSummary("ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetStatusHealthBands(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	seedBacklog := func(n int) {
		for len(mem.Events) < n {
			_, err := mem.InsertEvent(types.InteractionEvent{
				UserID:          "user-1",
				InteractionKind: types.InteractionImplicitBehavior,
			})
			require.NoError(t, err)
		}
	}

	assert.Equal(t, types.HealthHealthy, orch.GetStatus().Health)

	seedBacklog(600)
	status := orch.GetStatus()
	assert.Equal(t, types.HealthDegraded, status.Health)
	assert.Equal(t, 600, status.QueueBacklog)

	seedBacklog(1100)
	assert.Equal(t, types.HealthError, orch.GetStatus().Health)
}

func TestGetStatusCountsRunningExperiments(t *testing.T) {
	mem := store.NewMemStore()
	orch := newTestOrchestrator(mem)

	for i := 0; i < 2; i++ {
		_, err := mem.InsertExperiment(types.ValidationExperiment{
			PatternID: fmt.Sprintf("p%d", i),
			Status:    types.ExperimentRunning,
			StartedAt: time.Now(),
		})
		require.NoError(t, err)
	}
	_, err := mem.InsertExperiment(types.ValidationExperiment{
		PatternID: "done",
		Status:    types.ExperimentCompleted,
		StartedAt: time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, orch.GetStatus().ActiveExperiments)
}
