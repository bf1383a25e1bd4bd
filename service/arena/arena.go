// Package arena defines the boundary between the scheduler and the external
// game service that announces jobs, owns machines and scores the run.
package arena

import (
	"context"
	"errors"

	"github.com/viant/jobqueue/model"
)

// ErrHorizonExceeded is returned by NextTurn once the session has no further
// turns. It is a control signal for the orchestrator, not a failure.
var ErrHorizonExceeded = errors.New("turn horizon exceeded")

// Arena represents the external game service.
type Arena interface {
	CreateSession(ctx context.Context, long bool) (*model.Session, error)

	NextTurn(ctx context.Context, sessionID string) (*model.Turn, error)

	CreateMachine(ctx context.Context, sessionID string) (model.MachineID, error)

	// TerminateMachine is idempotent on the arena side.
	TerminateMachine(ctx context.Context, sessionID string, machineID model.MachineID) error

	AssignJob(ctx context.Context, sessionID string, machineID model.MachineID, jobID model.JobID) error

	Status(ctx context.Context, sessionID string) (*model.Status, error)
}
