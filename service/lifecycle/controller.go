// Package lifecycle creates and terminates arena machines and keeps the
// resource ledger in step with them.
package lifecycle

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/internal/logging"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/progress"
	"github.com/viant/jobqueue/service/arena"
	machines "github.com/viant/jobqueue/service/dao/machine/memory"
	"github.com/viant/jobqueue/service/event"
	"github.com/viant/jobqueue/service/metrics"
)

// Controller represents the machine lifecycle controller for one session.
type Controller struct {
	arena    arena.Arena
	ledger   *machines.Ledger
	session  *model.Session
	capacity int
	turn     atomic.Int64
	logger   logrus.FieldLogger
	metrics  *metrics.Collectors
}

// SetTurn sets the turn recorded on created machines and events.
func (c *Controller) SetTurn(turn int) {
	c.turn.Store(int64(turn))
}

// Turn returns the current turn.
func (c *Controller) Turn() int {
	return int(c.turn.Load())
}

// Capacity returns the standard machine capacity.
func (c *Controller) Capacity() int {
	return c.capacity
}

// Create asks the arena for a machine and registers it in the ledger.
func (c *Controller) Create(ctx context.Context) (model.MachineID, error) {
	id, err := c.arena.CreateMachine(ctx, c.session.ID)
	if err != nil {
		return 0, model.NewExternalCallError("createMachine", err)
	}
	turn := c.Turn()
	if err = c.ledger.Add(ctx, id, c.capacity, turn); err != nil {
		return 0, err
	}
	c.metrics.MachineCreated()
	progress.UpdateCtx(ctx, progress.Delta{MachinesCreated: 1})
	machine, _ := c.ledger.Load(ctx, id)
	if machine != nil {
		eCtx := machine.Context(event.TypeMachineCreated, turn)
		eCtx.SessionID = c.session.ID
		event.Emit(ctx, eCtx, machine)
	}
	c.logger.WithFields(logrus.Fields{"machine": id, "turn": turn}).Debug("machine created")
	return id, nil
}

// Terminate asks the arena to stop a machine and removes it from the ledger.
// A machine absent from the ledger is left alone.
func (c *Controller) Terminate(ctx context.Context, id model.MachineID) error {
	machine, err := c.ledger.Load(ctx, id)
	if err != nil {
		return nil
	}
	if err = c.arena.TerminateMachine(ctx, c.session.ID, id); err != nil {
		return model.NewExternalCallError("terminateMachine", err)
	}
	c.ledger.Remove(ctx, id)
	c.metrics.MachineTerminated()
	progress.UpdateCtx(ctx, progress.Delta{MachinesTerminated: 1})
	turn := c.Turn()
	eCtx := machine.Context(event.TypeMachineTerminated, turn)
	eCtx.SessionID = c.session.ID
	event.Emit(ctx, eCtx, machine)
	c.logger.WithFields(logrus.Fields{"machine": id, "turn": turn}).Debug("machine terminated")
	return nil
}

// TerminateIdle terminates every machine for which occupied is false.
// Capacity is never consulted.
func (c *Controller) TerminateIdle(ctx context.Context, occupied func(model.MachineID) bool) ([]model.MachineID, error) {
	return c.terminate(ctx, c.ledger.IdleMachineIDs(occupied))
}

// TerminateAll terminates every machine in the ledger, each exactly once.
func (c *Controller) TerminateAll(ctx context.Context) ([]model.MachineID, error) {
	return c.terminate(ctx, c.ledger.IDs())
}

func (c *Controller) terminate(ctx context.Context, ids []model.MachineID) ([]model.MachineID, error) {
	var terminated []model.MachineID
	for _, id := range ids {
		if err := c.Terminate(ctx, id); err != nil {
			return terminated, fmt.Errorf("failed to terminate machine %d: %w", id, err)
		}
		terminated = append(terminated, id)
	}
	return terminated, nil
}

// New creates a lifecycle controller.
func New(arenaService arena.Arena, ledger *machines.Ledger, session *model.Session, opts ...Option) *Controller {
	ret := &Controller{
		arena:    arenaService,
		ledger:   ledger,
		session:  session,
		capacity: model.DefaultMachineCapacity,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
