package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/progress"
	arenamem "github.com/viant/jobqueue/service/arena/memory"
)

func newService(t *testing.T, config Config, opts ...arenamem.Option) (*Service, *arenamem.Arena) {
	a := arenamem.New(opts...)
	session, err := a.CreateSession(context.Background(), false)
	require.NoError(t, err)
	config.PollingInterval = 0
	return New(a, session, config), a
}

func assertConservation(t *testing.T, s *Service) {
	used := map[model.MachineID]int{}
	for _, job := range s.Jobs().Running() {
		id, _ := job.MachineID()
		used[id] += job.RequiredCapacity
	}
	for _, machine := range s.Ledger().Sorted() {
		assert.Equal(t, machine.TotalCapacity-used[machine.ID], machine.FreeCapacity, "machine %d at turn %d", machine.ID, s.Turn())
	}
}

func TestService_JobLifetime(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, DefaultConfig(),
		arenamem.WithConfig(&arenamem.Config{Turns: 10}),
		arenamem.WithScript(map[int][]*model.JobSpec{1: {{ID: 1, RequiredCapacity: 20, TurnsRequired: 6}}}))

	for turn := 1; turn <= 7; turn++ {
		state, err := s.Step(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAwaitingTurn, state)
		assert.Equal(t, turn, s.Turn())
		require.Equal(t, 1, s.Ledger().Len(), "turn %d", turn)
		assert.Equal(t, 44, s.Ledger().Sorted()[0].FreeCapacity)
		assertConservation(t, s)
	}

	_, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Turn())
	assert.Equal(t, 0, s.Ledger().Len())
	job, err := s.Jobs().Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, job.Finished)
	assert.Equal(t, model.JobStateFinished, job.State())
}

func TestService_Drain(t *testing.T) {
	ctx, tracker := progress.WithNewTracker(context.Background(), "", "", nil)
	s, a := newService(t, DefaultConfig(),
		arenamem.WithConfig(&arenamem.Config{Turns: 3}),
		arenamem.WithScript(map[int][]*model.JobSpec{1: {{ID: 1, RequiredCapacity: 20, TurnsRequired: 5}}}))

	for i := 0; i < 3; i++ {
		_, err := s.Step(ctx)
		require.NoError(t, err)
	}
	state, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDraining, state)
	assert.Equal(t, 1, s.Ledger().Len())

	state, err = s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	assert.Equal(t, 0, s.Ledger().Len())
	assert.Empty(t, a.Machines(s.Session().ID))
	assert.Equal(t, 1, a.Calls(arenamem.OpCreateMachine))
	assert.Equal(t, 1, a.Calls(arenamem.OpTerminateMachine))
	assert.Equal(t, 2, s.DrainTurns())
	require.NotNil(t, s.Status())
	assert.True(t, s.Status().Completed)
	assert.Equal(t, s.Status().Cost, s.MachineTurns())
	assert.Equal(t, 3, s.MachineTurns())
	assert.Equal(t, 1, tracker.Snapshot().MachinesTerminated)

	state, err = s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
}

func TestService_DrainIncomplete(t *testing.T) {
	config := DefaultConfig()
	config.MaxDrainTurns = 1
	s, _ := newService(t, config,
		arenamem.WithConfig(&arenamem.Config{Turns: 3}),
		arenamem.WithScript(map[int][]*model.JobSpec{1: {{ID: 1, RequiredCapacity: 20, TurnsRequired: 5}}}))

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrDrainIncomplete)
	assert.Equal(t, StateDraining, s.State())
	assert.Equal(t, 1, s.DrainTurns())
}

func TestService_ExternalFailureResumes(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s, a := newService(t, DefaultConfig(),
		arenamem.WithConfig(&arenamem.Config{Turns: 5}),
		arenamem.WithScript(map[int][]*model.JobSpec{1: {{ID: 1, RequiredCapacity: 20, TurnsRequired: 1}}}),
		arenamem.WithFault(arenamem.FailOn(arenamem.OpAssignJob, 1, false, boom)))

	state, err := s.Step(ctx)
	assert.ErrorIs(t, err, boom)
	assert.True(t, model.IsExternal(err))
	assert.Equal(t, StatePlacing, state)
	job, err := s.Jobs().Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, job.Assigned())
	assertConservation(t, s)

	state, err = s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingTurn, state)
	assert.Equal(t, 1, s.Turn())
	assert.Equal(t, 1, a.Calls(arenamem.OpCreateMachine))
	job, _ = s.Jobs().Load(ctx, 1)
	assert.True(t, job.Assigned())
}

func TestService_UnsatisfiableAbortsRun(t *testing.T) {
	s, _ := newService(t, DefaultConfig(),
		arenamem.WithConfig(&arenamem.Config{Turns: 5}),
		arenamem.WithScript(map[int][]*model.JobSpec{2: {{ID: 9, RequiredCapacity: 70, TurnsRequired: 1}}}))

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, model.ErrUnsatisfiableJob)
	assert.Equal(t, 2, s.Turn())
}

func TestService_InvalidArrivalKeepsTurn(t *testing.T) {
	ctx := context.Background()
	s, a := newService(t, DefaultConfig(),
		arenamem.WithConfig(&arenamem.Config{Turns: 5}),
		arenamem.WithScript(map[int][]*model.JobSpec{1: {
			{ID: 1, RequiredCapacity: 20, TurnsRequired: 2},
			{ID: 2, RequiredCapacity: 0, TurnsRequired: 2},
			{ID: 3, RequiredCapacity: 10, TurnsRequired: 2},
		}}))

	for attempt := 1; attempt <= 2; attempt++ {
		state, err := s.Step(ctx)
		require.Error(t, err)
		assert.Equal(t, StateIngesting, state)
		assert.Equal(t, 1, s.Turn())
		assert.Equal(t, 0, s.Jobs().Len())
		assert.Equal(t, 1, a.Calls(arenamem.OpNextTurn), "attempt %d", attempt)
		assert.Equal(t, 0, s.MachineTurns())
	}
}

func TestService_UnsatisfiableResumeDoesNotGrowPool(t *testing.T) {
	ctx := context.Background()
	s, a := newService(t, DefaultConfig(),
		arenamem.WithConfig(&arenamem.Config{Turns: 5}),
		arenamem.WithScript(map[int][]*model.JobSpec{1: {
			{ID: 1, RequiredCapacity: 20, TurnsRequired: 3},
			{ID: 2, RequiredCapacity: 70, TurnsRequired: 1},
		}}))

	for attempt := 1; attempt <= 3; attempt++ {
		state, err := s.Step(ctx)
		assert.ErrorIs(t, err, model.ErrUnsatisfiableJob)
		assert.Equal(t, StatePlacing, state)
		assert.Equal(t, 1, s.Ledger().Len(), "attempt %d", attempt)
		assert.Len(t, a.Machines(s.Session().ID), 1, "attempt %d", attempt)
		assertConservation(t, s)
	}
}

func TestService_Run(t *testing.T) {
	for _, mode := range []model.PlacementMode{model.ModeStrict, model.ModeDelay} {
		config := DefaultConfig()
		config.Mode = mode
		s, a := newService(t, config, arenamem.WithConfig(&arenamem.Config{
			Seed: 7, Turns: 40, ArrivalRate: 4, MinCapacity: 4, MaxCapacity: 48, MeanTurns: 5,
		}))
		ctx := context.Background()
		for !s.State().IsTerminal() {
			_, err := s.Step(ctx)
			require.NoError(t, err, mode)
			assertConservation(t, s)
			if mode == model.ModeStrict {
				for _, machine := range s.Ledger().Sorted() {
					assert.GreaterOrEqual(t, machine.FreeCapacity, 0)
				}
			}
		}
		status := s.Status()
		require.NotNil(t, status)
		assert.True(t, status.Completed, mode)
		assert.Equal(t, status.Cost, s.MachineTurns(), mode)
		assert.Equal(t, 0, s.Ledger().Len(), mode)
		assert.Empty(t, a.Machines(s.Session().ID), mode)
		assert.Empty(t, s.Jobs().Unassigned(), mode)
		if mode == model.ModeStrict {
			assert.Equal(t, 0, s.Placement().Delayed())
		}
	}
}
