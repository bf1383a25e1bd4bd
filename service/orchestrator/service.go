// Package orchestrator drives a session turn by turn: ingest arrivals, place
// unassigned jobs, reclaim finished ones, terminate idle machines, and drain
// the pool once the arena runs out of turns.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/internal/clock"
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
	"github.com/viant/jobqueue/service/placement"
	"github.com/viant/jobqueue/tracing"
)

// ErrDrainIncomplete is returned when the arena did not report completion
// within Config.MaxDrainTurns drain turns.
var ErrDrainIncomplete = errors.New("drain incomplete")

// Service represents the turn orchestrator of a single session.
type Service struct {
	config     Config
	arena      arena.Arena
	session    *model.Session
	jobs       *jobs.Table
	ledger     *machines.Ledger
	lifecycle  *lifecycle.Controller
	placement  *placement.Service
	state      State
	turn       int
	charged    int
	cost       int
	drainTurns int
	terminated bool
	arrivals   *model.Turn
	status     *model.Status
	logger     logrus.FieldLogger
	metrics    *metrics.Collectors
}

// State returns the current phase.
func (s *Service) State() State { return s.state }

// Turn returns the last turn announced by the arena.
func (s *Service) Turn() int { return s.turn }

// MachineTurns returns the cost accumulated so far.
func (s *Service) MachineTurns() int { return s.cost }

// DrainTurns returns the number of turns advanced while draining.
func (s *Service) DrainTurns() int { return s.drainTurns }

// Status returns the last arena status observed while draining.
func (s *Service) Status() *model.Status { return s.status }

// Session returns the session being driven.
func (s *Service) Session() *model.Session { return s.session }

// Jobs returns the job table.
func (s *Service) Jobs() *jobs.Table { return s.jobs }

// Ledger returns the resource ledger.
func (s *Service) Ledger() *machines.Ledger { return s.ledger }

// Placement returns the placement heuristic.
func (s *Service) Placement() *placement.Service { return s.placement }

// Run steps until the session is done or a step fails. Failures are returned
// as is; the caller decides whether to resume with Step.
func (s *Service) Run(ctx context.Context) (*model.Status, error) {
	for !s.state.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.Step(ctx); err != nil {
			return nil, err
		}
	}
	return s.status, nil
}

// Step performs one turn, or the whole drain once the horizon is reached,
// and returns the phase the orchestrator is left in. A failed phase is
// resumed by the next Step.
func (s *Service) Step(ctx context.Context) (state State, err error) {
	if s.state.IsTerminal() {
		return s.state, nil
	}
	ctx, span := tracing.StartSpan(ctx, "jobqueue.step", tracing.KindPhase)
	defer func() {
		span.WithTurn(s.session.ID, s.turn).WithState(string(s.state))
		tracing.EndSpan(span, err)
	}()
	for {
		switch s.state {
		case StateAwaitingTurn:
			s.state = StateIngesting
		case StateIngesting:
			if err = s.phase(ctx, s.ingest); err != nil {
				if errors.Is(err, arena.ErrHorizonExceeded) {
					s.enterDrain(ctx)
					return s.state, nil
				}
				return s.state, err
			}
			s.state = StatePlacing
		case StatePlacing:
			if err = s.phase(ctx, s.place); err != nil {
				return s.state, err
			}
			s.state = StateReclaiming
		case StateReclaiming:
			if err = s.phase(ctx, s.reclaim); err != nil {
				return s.state, err
			}
			s.state = StateTerminating
		case StateTerminating:
			if err = s.phase(ctx, s.terminateIdle); err != nil {
				return s.state, err
			}
			s.metrics.TurnCompleted(s.turn, s.charged)
			s.state = StateAwaitingTurn
			return s.state, nil
		case StateDraining:
			if err = s.phase(ctx, s.drain); err != nil {
				return s.state, err
			}
			s.state = StateDone
			return s.state, nil
		default:
			return s.state, fmt.Errorf("unsupported state: %s", s.state)
		}
	}
}

func (s *Service) phase(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ctx, span := tracing.StartSpan(ctx, "jobqueue."+string(s.state), tracing.KindPhase)
	defer func() {
		if errors.Is(err, arena.ErrHorizonExceeded) {
			tracing.EndSpan(span, nil)
			return
		}
		tracing.EndSpan(span, err)
	}()
	return fn(ctx)
}

// charge adds the machines alive when the arena clock advances.
func (s *Service) charge(ctx context.Context) {
	s.charged = s.ledger.Len()
	s.cost += s.charged
	progress.UpdateCtx(ctx, progress.Delta{Turns: 1, MachineTurns: s.charged})
}

// ingest advances the arena clock and stores the arrivals. A turn whose
// arrivals could not be stored is kept and retried by the next Step without
// advancing the clock again.
func (s *Service) ingest(ctx context.Context) error {
	turn := s.arrivals
	if turn == nil {
		var err error
		if turn, err = s.arena.NextTurn(ctx, s.session.ID); err != nil {
			if errors.Is(err, arena.ErrHorizonExceeded) {
				s.charge(ctx)
				return err
			}
			return model.NewExternalCallError("nextTurn", err)
		}
		s.turn = turn.Current
		s.lifecycle.SetTurn(turn.Current)
		s.charge(ctx)
		s.arrivals = turn
	}
	if err := s.jobs.Ingest(ctx, turn.Jobs); err != nil {
		return fmt.Errorf("failed to ingest turn %d: %w", turn.Current, err)
	}
	s.arrivals = nil
	progress.UpdateCtx(ctx, progress.Delta{Arrived: len(turn.Jobs)})
	s.logger.WithFields(logrus.Fields{"turn": s.turn, "arrived": len(turn.Jobs), "machines": s.charged}).Debug("turn ingested")
	return nil
}

func (s *Service) place(ctx context.Context) error {
	mode := policy.FromContext(ctx).ModeOr(s.config.Mode)
	for _, jobID := range s.jobs.Unassigned() {
		if _, err := s.placement.Place(ctx, jobID, mode); err != nil {
			return fmt.Errorf("failed to place job %d at turn %d: %w", jobID, s.turn, err)
		}
	}
	return nil
}

func (s *Service) reclaim(ctx context.Context) error {
	finished := 0
	for _, job := range s.jobs.Running() {
		if !job.IsFinished(s.turn) {
			continue
		}
		machineID, _ := job.MachineID()
		changed, err := s.jobs.MarkFinished(job.ID)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		s.ledger.Release(machineID, job.RequiredCapacity)
		finished++
		job.Finished = true
		eCtx := job.Context(event.TypeJobFinished, s.turn)
		eCtx.SessionID = s.session.ID
		event.Emit(ctx, eCtx, job)
	}
	s.metrics.JobsFinished(finished)
	progress.UpdateCtx(ctx, progress.Delta{Finished: finished})
	return nil
}

func (s *Service) terminateIdle(ctx context.Context) error {
	terminated, err := s.lifecycle.TerminateIdle(ctx, s.jobs.Occupied)
	if len(terminated) > 0 {
		s.logger.WithFields(logrus.Fields{"turn": s.turn, "terminated": len(terminated)}).Debug("idle machines terminated")
	}
	return err
}

func (s *Service) enterDrain(ctx context.Context) {
	s.state = StateDraining
	event.Emit(ctx, &event.Context{SessionID: s.session.ID, EventType: event.TypeRunDraining, Turn: s.turn}, s.session)
	s.logger.WithFields(logrus.Fields{"session": s.session.ID, "turn": s.turn}).Info("horizon reached, draining")
}

// drain terminates every machine once, then polls the arena, advancing its
// clock between polls, until it reports completion. Arrivals are ignored
// and no machine is created.
func (s *Service) drain(ctx context.Context) error {
	if !s.terminated {
		if _, err := s.lifecycle.TerminateAll(ctx); err != nil {
			return err
		}
		s.terminated = true
	}
	for {
		status, err := s.arena.Status(ctx, s.session.ID)
		if err != nil {
			return model.NewExternalCallError("status", err)
		}
		s.status = status
		if status.Completed {
			s.logger.WithFields(logrus.Fields{
				"session":    s.session.ID,
				"cost":       status.Cost,
				"delay":      status.DelayTurns,
				"drainTurns": s.drainTurns,
			}).Info("session completed")
			return nil
		}
		if s.config.MaxDrainTurns > 0 && s.drainTurns >= s.config.MaxDrainTurns {
			return fmt.Errorf("session %s after %d drain turns: %w", s.session.ID, s.drainTurns, ErrDrainIncomplete)
		}
		if err = clock.Sleep(ctx, s.config.PollingInterval); err != nil {
			return err
		}
		if _, err = s.arena.NextTurn(ctx, s.session.ID); err != nil && !errors.Is(err, arena.ErrHorizonExceeded) {
			return model.NewExternalCallError("nextTurn", err)
		}
		s.drainTurns++
		s.charge(ctx)
	}
}

// New creates an orchestrator for session, wiring the job table, the
// resource ledger, the lifecycle controller and the placement heuristic.
func New(arenaService arena.Arena, session *model.Session, config Config, opts ...Option) *Service {
	ret := &Service{
		config:  config,
		arena:   arenaService,
		session: session,
		jobs:    jobs.New(),
		ledger:  machines.New(),
		state:   StateAwaitingTurn,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.config.Mode == "" {
		ret.config.Mode = model.ModeStrict
	}
	ret.lifecycle = lifecycle.New(arenaService, ret.ledger, session,
		lifecycle.WithMachineCapacity(ret.config.MachineCapacity),
		lifecycle.WithLogger(ret.logger),
		lifecycle.WithMetrics(ret.metrics))
	ret.placement = placement.New(arenaService, ret.jobs, ret.ledger, ret.lifecycle, session,
		placement.WithMode(ret.config.Mode),
		placement.WithLogger(ret.logger),
		placement.WithMetrics(ret.metrics))
	return ret
}
