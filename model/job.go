package model

import (
	"fmt"

	"github.com/markphelps/optional"
	"github.com/viant/jobqueue/service/event"
)

// JobID identifies a job; ids are assigned by the arena.
type JobID int

// JobState represents the accounting state of a job.
type JobState string

const (
	JobStateUnassigned JobState = "unassigned"
	JobStateRunning    JobState = "running"
	JobStateFinished   JobState = "finished"
)

// JobSpec is a job as announced by the arena feed.
type JobSpec struct {
	ID               JobID `json:"id" yaml:"id"`
	RequiredCapacity int   `json:"memory_required" yaml:"requiredCapacity"`
	TurnsRequired    int   `json:"turns_required" yaml:"turnsRequired"`
	ArrivalTurn      int   `json:"turn" yaml:"arrivalTurn"`
}

// Validate checks the feed record.
func (s *JobSpec) Validate() error {
	if s.RequiredCapacity <= 0 {
		return fmt.Errorf("job %d: required capacity must be > 0, got %d", s.ID, s.RequiredCapacity)
	}
	if s.TurnsRequired <= 0 {
		return fmt.Errorf("job %d: turns required must be > 0, got %d", s.ID, s.TurnsRequired)
	}
	return nil
}

// Job represents a job tracked by the job table
type Job struct {
	ID               JobID        `json:"id"`
	RequiredCapacity int          `json:"requiredCapacity"`
	TurnsRequired    int          `json:"turnsRequired"`
	ArrivalTurn      int          `json:"arrivalTurn"`
	Machine          optional.Int `json:"machine"`
	AssignedTurn     int          `json:"assignedTurn,omitempty"`
	Delayed          bool         `json:"delayed,omitempty"`
	Finished         bool         `json:"finished"`
}

// NewJob creates a job record from a feed record
func NewJob(spec *JobSpec) *Job {
	return &Job{
		ID:               spec.ID,
		RequiredCapacity: spec.RequiredCapacity,
		TurnsRequired:    spec.TurnsRequired,
		ArrivalTurn:      spec.ArrivalTurn,
	}
}

// Assigned returns true once the job has been placed.
func (j *Job) Assigned() bool {
	return j.Machine.Present()
}

// MachineID returns the owning machine, ok is false for unplaced jobs.
func (j *Job) MachineID() (MachineID, bool) {
	id, err := j.Machine.Get()
	if err != nil {
		return 0, false
	}
	return MachineID(id), true
}

// State derives the accounting state.
func (j *Job) State() JobState {
	switch {
	case j.Finished:
		return JobStateFinished
	case j.Assigned():
		return JobStateRunning
	default:
		return JobStateUnassigned
	}
}

// IsFinished reports whether the job is done at currentTurn. A job that needs
// N turns is still running N turns after arrival and done from N+1 onwards.
func (j *Job) IsFinished(currentTurn int) bool {
	return currentTurn-j.ArrivalTurn > j.TurnsRequired
}

// Delay returns the number of turns the job waited before being placed.
func (j *Job) Delay() int {
	if !j.Assigned() {
		return 0
	}
	return j.AssignedTurn - j.ArrivalTurn
}

// Context returns event context for the job.
func (j *Job) Context(eventType string, turn int) *event.Context {
	ret := &event.Context{
		EventType: eventType,
		JobID:     int(j.ID),
		Turn:      turn,
	}
	if id, ok := j.MachineID(); ok {
		ret.MachineID = int(id)
	}
	return ret
}

// Clone returns a copy the caller can mutate.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	return &clone
}
