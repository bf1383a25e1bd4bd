package model

import "github.com/viant/jobqueue/service/event"

// DefaultMachineCapacity is the capacity of every machine the arena creates.
const DefaultMachineCapacity = 64

// MachineID identifies a machine; ids are assigned by the arena.
type MachineID int

// Machine represents a ledger entry
type Machine struct {
	ID            MachineID `json:"id"`
	TotalCapacity int       `json:"totalCapacity"`
	FreeCapacity  int       `json:"freeCapacity"`
	CreatedTurn   int       `json:"createdTurn"`
}

// NewMachine creates a machine with all capacity free.
func NewMachine(id MachineID, capacity int) *Machine {
	return &Machine{ID: id, TotalCapacity: capacity, FreeCapacity: capacity}
}

// Overcommitted returns true when reservations exceed the total capacity.
func (m *Machine) Overcommitted() bool {
	return m.FreeCapacity < 0
}

// Used returns the reserved capacity.
func (m *Machine) Used() int {
	return m.TotalCapacity - m.FreeCapacity
}

// Context returns event context for the machine.
func (m *Machine) Context(eventType string, turn int) *event.Context {
	return &event.Context{EventType: eventType, MachineID: int(m.ID), Turn: turn}
}

func (m *Machine) Clone() *Machine {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}
