package event

import (
	"time"

	"github.com/viant/jobqueue/internal/clock"
)

// Event types emitted by the scheduler.
const (
	TypeMachineCreated    = "machine.created"
	TypeMachineTerminated = "machine.terminated"
	TypeJobPlaced         = "job.placed"
	TypeJobFinished       = "job.finished"
	TypeRunDraining       = "run.draining"
)

type Context struct {
	SessionID string `json:"sessionID,omitempty"`
	EventType string `json:"eventType"`
	Turn      int    `json:"turn"`
	JobID     int    `json:"jobID,omitempty"`
	MachineID int    `json:"machineID,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
