// Package placement implements the tightest-fit placement heuristic: a job
// goes onto the machine with the least free capacity that still exceeds its
// requirement, growing the pool by one machine when nothing fits.
package placement

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/internal/logging"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/policy"
	"github.com/viant/jobqueue/progress"
	"github.com/viant/jobqueue/service/arena"
	jobs "github.com/viant/jobqueue/service/dao/job/memory"
	machines "github.com/viant/jobqueue/service/dao/machine/memory"
	"github.com/viant/jobqueue/service/event"
	"github.com/viant/jobqueue/service/lifecycle"
	"github.com/viant/jobqueue/service/metrics"
)

// Placement represents the outcome of a successful Place call.
type Placement struct {
	JobID     model.JobID     `json:"jobID"`
	MachineID model.MachineID `json:"machineID"`
	Delayed   bool            `json:"delayed,omitempty"`
	Grown     bool            `json:"grown,omitempty"`
}

// Service represents the placement heuristic
type Service struct {
	arena     arena.Arena
	jobs      *jobs.Table
	ledger    *machines.Ledger
	lifecycle *lifecycle.Controller
	session   *model.Session
	mode      model.PlacementMode
	delayed   atomic.Int64
	logger    logrus.FieldLogger
	metrics   *metrics.Collectors
}

// Delayed returns the number of delay-tolerant fallback placements so far.
func (s *Service) Delayed() int {
	return int(s.delayed.Load())
}

// Place assigns an unassigned job to a machine. An empty mode resolves to the
// policy carried by ctx, then to the configured mode.
//
// The arena is told first; the ledger and the job table change only once the
// arena accepted the assignment.
func (s *Service) Place(ctx context.Context, jobID model.JobID, mode model.PlacementMode) (*Placement, error) {
	job, err := s.jobs.Load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Assigned() {
		return nil, fmt.Errorf("job %d: %w", jobID, model.ErrAlreadyAssigned)
	}
	if mode == "" {
		mode = policy.FromContext(ctx).ModeOr(s.mode)
	}
	if !policy.FromContext(ctx).IsAllowed(job.RequiredCapacity) {
		s.metrics.Placement(string(mode), metrics.OutcomeUnsatisfiable)
		return nil, fmt.Errorf("job %d requires %d, rejected by policy: %w", jobID, job.RequiredCapacity, model.ErrUnsatisfiableJob)
	}

	ret := &Placement{JobID: jobID}
	candidate, delayed := s.choose(job.RequiredCapacity, mode)
	if candidate == nil {
		grown, err := s.lifecycle.Create(ctx)
		if err != nil {
			s.metrics.Placement(string(mode), metrics.OutcomeFailed)
			return nil, err
		}
		ret.Grown = true
		if candidate, delayed = s.choose(job.RequiredCapacity, mode); candidate == nil {
			s.metrics.Placement(string(mode), metrics.OutcomeUnsatisfiable)
			err = fmt.Errorf("job %d requires %d of %d: %w", jobID, job.RequiredCapacity, s.lifecycle.Capacity(), model.ErrUnsatisfiableJob)
			// the machine was created for this job only
			if termErr := s.lifecycle.Terminate(ctx, grown); termErr != nil {
				err = errors.Join(err, termErr)
			}
			return nil, err
		}
	}
	ret.MachineID = candidate.ID
	ret.Delayed = delayed

	if err = s.arena.AssignJob(ctx, s.session.ID, candidate.ID, jobID); err != nil {
		s.metrics.Placement(string(mode), metrics.OutcomeFailed)
		return nil, model.NewExternalCallError("assignJob", err)
	}
	if err = s.ledger.Reserve(candidate.ID, job.RequiredCapacity); err != nil {
		return nil, err
	}
	turn := s.lifecycle.Turn()
	if err = s.jobs.MarkAssigned(jobID, candidate.ID, turn, delayed); err != nil {
		s.ledger.Release(candidate.ID, job.RequiredCapacity)
		return nil, err
	}
	s.record(ctx, ret, mode, turn)
	return ret, nil
}

// choose scans machines by free capacity ascending and returns the first one
// with strictly more free capacity than required. In delay mode, when
// nothing fits, the machine with the most free capacity is overcommitted as
// long as the job fits its total capacity.
func (s *Service) choose(required int, mode model.PlacementMode) (*model.Machine, bool) {
	sorted := s.ledger.Sorted()
	for _, machine := range sorted {
		if machine.FreeCapacity > required {
			return machine, false
		}
	}
	if mode != model.ModeDelay || len(sorted) == 0 {
		return nil, false
	}
	last := sorted[len(sorted)-1]
	if required > last.TotalCapacity {
		return nil, false
	}
	return last, true
}

func (s *Service) record(ctx context.Context, placement *Placement, mode model.PlacementMode, turn int) {
	delta := progress.Delta{Placed: 1}
	outcome := metrics.OutcomePlaced
	if placement.Delayed {
		s.delayed.Add(1)
		delta.Delayed = 1
		outcome = metrics.OutcomeDelayed
	}
	s.metrics.Placement(string(mode), outcome)
	progress.UpdateCtx(ctx, delta)
	if job, err := s.jobs.Load(ctx, placement.JobID); err == nil {
		eCtx := job.Context(event.TypeJobPlaced, turn)
		eCtx.SessionID = s.session.ID
		event.Emit(ctx, eCtx, job)
	}
	s.logger.WithFields(logrus.Fields{
		"job":     placement.JobID,
		"machine": placement.MachineID,
		"turn":    turn,
		"delayed": placement.Delayed,
	}).Debug("job placed")
}

// New creates a placement service.
func New(arenaService arena.Arena, table *jobs.Table, ledger *machines.Ledger, controller *lifecycle.Controller, session *model.Session, opts ...Option) *Service {
	ret := &Service{
		arena:     arenaService,
		jobs:      table,
		ledger:    ledger,
		lifecycle: controller,
		session:   session,
		mode:      model.ModeStrict,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
