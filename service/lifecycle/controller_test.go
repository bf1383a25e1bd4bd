package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/progress"
	arenamem "github.com/viant/jobqueue/service/arena/memory"
	machines "github.com/viant/jobqueue/service/dao/machine/memory"
)

func newController(t *testing.T, opts ...arenamem.Option) (*Controller, *arenamem.Arena, *machines.Ledger, *model.Session) {
	a := arenamem.New(opts...)
	session, err := a.CreateSession(context.Background(), false)
	require.NoError(t, err)
	ledger := machines.New()
	return New(a, ledger, session), a, ledger, session
}

func TestController_CreateTerminate(t *testing.T) {
	ctx, tracker := progress.WithNewTracker(context.Background(), "", "", nil)
	controller, a, ledger, session := newController(t)
	controller.SetTurn(3)

	id, err := controller.Create(ctx)
	require.NoError(t, err)
	machine, err := ledger.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMachineCapacity, machine.FreeCapacity)
	assert.Equal(t, 3, machine.CreatedTurn)
	assert.Equal(t, []model.MachineID{id}, a.Machines(session.ID))

	require.NoError(t, controller.Terminate(ctx, id))
	require.NoError(t, controller.Terminate(ctx, id))
	assert.Equal(t, 0, ledger.Len())
	assert.Empty(t, a.Machines(session.ID))
	assert.Equal(t, 1, a.Calls(arenamem.OpTerminateMachine))

	snapshot := tracker.Snapshot()
	assert.Equal(t, 1, snapshot.MachinesCreated)
	assert.Equal(t, 1, snapshot.MachinesTerminated)
}

func TestController_TerminateIdle(t *testing.T) {
	ctx := context.Background()
	controller, _, ledger, _ := newController(t)
	var ids []model.MachineID
	for i := 0; i < 3; i++ {
		id, err := controller.Create(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// an overcommitted machine with no running job is still idle
	require.NoError(t, ledger.Reserve(ids[2], 100))

	terminated, err := controller.TerminateIdle(ctx, func(id model.MachineID) bool { return id == ids[0] })
	require.NoError(t, err)
	assert.Equal(t, []model.MachineID{ids[1], ids[2]}, terminated)
	assert.Equal(t, []model.MachineID{ids[0]}, ledger.IDs())
}

func TestController_TerminateAll(t *testing.T) {
	ctx := context.Background()
	controller, a, ledger, session := newController(t)
	for i := 0; i < 4; i++ {
		_, err := controller.Create(ctx)
		require.NoError(t, err)
	}
	terminated, err := controller.TerminateAll(ctx)
	require.NoError(t, err)
	assert.Len(t, terminated, 4)
	assert.Equal(t, 0, ledger.Len())
	assert.Empty(t, a.Machines(session.ID))
	assert.Equal(t, 4, a.Calls(arenamem.OpTerminateMachine))
}

func TestController_ExternalFailureLeavesLedger(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	controller, _, ledger, _ := newController(t,
		arenamem.WithFault(arenamem.FailOn(arenamem.OpTerminateMachine, 1, false, boom)))

	_, err := controller.Create(ctx)
	require.NoError(t, err)
	_, err = controller.TerminateAll(ctx)
	assert.ErrorIs(t, err, boom)
	assert.True(t, model.IsExternal(err))
	assert.Equal(t, 1, ledger.Len())

	controller2, _, ledger2, _ := newController(t,
		arenamem.WithFault(arenamem.FailOn(arenamem.OpCreateMachine, 1, false, boom)))
	_, err = controller2.Create(ctx)
	assert.True(t, model.IsExternal(err))
	assert.Equal(t, 0, ledger2.Len())
}
