package orchestrator

import (
	"time"

	"github.com/viant/jobqueue/model"
)

// Config represents orchestrator configuration
type Config struct {
	// Mode is the placement mode used when the run context carries no policy.
	Mode model.PlacementMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	// MachineCapacity is the capacity recorded for every created machine.
	MachineCapacity int `json:"machineCapacity,omitempty" yaml:"machineCapacity,omitempty"`
	// PollingInterval spaces arena status polls while draining.
	PollingInterval time.Duration `json:"pollingInterval,omitempty" yaml:"pollingInterval,omitempty"`
	// MaxDrainTurns bounds the drain; 0 means unlimited.
	MaxDrainTurns int `json:"maxDrainTurns,omitempty" yaml:"maxDrainTurns,omitempty"`
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		Mode:            model.ModeStrict,
		MachineCapacity: model.DefaultMachineCapacity,
		PollingInterval: 20 * time.Millisecond,
	}
}
