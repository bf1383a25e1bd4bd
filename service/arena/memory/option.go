package memory

import (
	"github.com/viant/jobqueue/internal/idgen"
	"github.com/viant/jobqueue/model"
)

// Option represents an arena option
type Option func(a *Arena)

// WithConfig sets arrival settings.
func WithConfig(config *Config) Option {
	return func(a *Arena) {
		if config != nil {
			a.config = config
		}
	}
}

// WithScript announces the supplied jobs instead of generated ones.
func WithScript(script map[int][]*model.JobSpec) Option {
	return func(a *Arena) {
		a.config.Script = script
	}
}

// WithFault installs a failure hook consulted before every call; a non-nil
// result is returned to the caller and the call has no effect.
func WithFault(fault Fault) Option {
	return func(a *Arena) {
		a.fault = fault
	}
}

// WithFirstMachineID sets the id sequence start for created machines.
func WithFirstMachineID(id int) Option {
	return func(a *Arena) {
		a.machineSeq = idgen.NewSequence(id - 1)
	}
}
