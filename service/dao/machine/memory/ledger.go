package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/service/dao"
	"github.com/viant/jobqueue/service/dao/store"
)

// Ledger is the resource ledger: the single source of truth for each
// machine's free capacity. Free capacity may go negative after a
// delay-tolerant overcommit.
type Ledger struct {
	store *store.MemoryStore[model.MachineID, model.Machine]
}

var _ dao.Service[model.MachineID, model.Machine] = (*Ledger)(nil)

// Add registers a machine with all of its capacity free.
func (l *Ledger) Add(ctx context.Context, id model.MachineID, capacity int, turn int) error {
	if capacity <= 0 {
		return fmt.Errorf("machine %d: capacity must be > 0, got %d", id, capacity)
	}
	machine := model.NewMachine(id, capacity)
	machine.CreatedTurn = turn
	return l.store.Save(ctx, machine)
}

// Remove deletes the machine entry; removing an absent machine is a no-op.
func (l *Ledger) Remove(ctx context.Context, id model.MachineID) {
	_ = l.store.Delete(ctx, id)
}

// Reserve decreases free capacity by amount. No lower bound is enforced:
// strict callers check headroom before reserving.
func (l *Ledger) Reserve(id model.MachineID, amount int) error {
	err := l.store.Update(id, func(m *model.Machine) error {
		m.FreeCapacity -= amount
		return nil
	})
	return unknownMachine(id, err)
}

// Release increases free capacity by amount; an absent machine is ignored.
func (l *Ledger) Release(id model.MachineID, amount int) {
	_ = l.store.Update(id, func(m *model.Machine) error {
		m.FreeCapacity += amount
		return nil
	})
}

// Free returns the free capacity of a machine.
func (l *Ledger) Free(ctx context.Context, id model.MachineID) (int, error) {
	machine, err := l.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	return machine.FreeCapacity, nil
}

// Sorted returns machines ordered by free capacity ascending, ties broken by
// id ascending.
func (l *Ledger) Sorted() []*model.Machine {
	machines := l.store.Select(func(*model.Machine) bool { return true })
	sort.SliceStable(machines, func(i, j int) bool {
		if machines[i].FreeCapacity != machines[j].FreeCapacity {
			return machines[i].FreeCapacity < machines[j].FreeCapacity
		}
		return machines[i].ID < machines[j].ID
	})
	return machines
}

// IDs returns every machine id, ascending.
func (l *Ledger) IDs() []model.MachineID {
	machines := l.store.Select(func(*model.Machine) bool { return true })
	ret := make([]model.MachineID, 0, len(machines))
	for _, m := range machines {
		ret = append(ret, m.ID)
	}
	return ret
}

// IdleMachineIDs returns machines for which occupied reports no unfinished
// assigned job. Capacity is not consulted: an overcommitted machine becomes
// idle as soon as its last job finishes.
func (l *Ledger) IdleMachineIDs(occupied func(model.MachineID) bool) []model.MachineID {
	var ret []model.MachineID
	for _, id := range l.IDs() {
		if !occupied(id) {
			ret = append(ret, id)
		}
	}
	return ret
}

// Len returns the number of machines alive.
func (l *Ledger) Len() int {
	return l.store.Len()
}

func (l *Ledger) Save(ctx context.Context, machine *model.Machine) error {
	return l.store.Save(ctx, machine)
}

func (l *Ledger) Load(ctx context.Context, id model.MachineID) (*model.Machine, error) {
	machine, err := l.store.Load(ctx, id)
	return machine, unknownMachine(id, err)
}

func (l *Ledger) Delete(ctx context.Context, id model.MachineID) error {
	return l.store.Delete(ctx, id)
}

func (l *Ledger) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Machine, error) {
	return l.store.List(ctx, parameters...)
}

func unknownMachine(id model.MachineID, err error) error {
	if errors.Is(err, dao.ErrNotFound) {
		return fmt.Errorf("machine %d: %w", id, model.ErrUnknownMachine)
	}
	return err
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{store: store.NewMemoryStore[model.MachineID, model.Machine](
		func(m *model.Machine) model.MachineID { return m.ID },
		(*model.Machine).Clone,
	)}
}
