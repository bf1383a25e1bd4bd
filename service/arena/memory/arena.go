// Package memory implements a deterministic in-process arena used by the
// simulate command and by tests as the fake external boundary.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/viant/jobqueue/internal/idgen"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/service/arena"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Operation names reported to Fault hooks and in external call errors.
const (
	OpCreateSession    = "createSession"
	OpNextTurn         = "nextTurn"
	OpCreateMachine    = "createMachine"
	OpTerminateMachine = "terminateMachine"
	OpAssignJob        = "assignJob"
	OpStatus           = "status"
)

// Fault returns a non-nil error to make the named call fail.
type Fault func(op string, sessionID string) error

// FailOn returns a Fault failing op the nth time it is called (1-based), and
// every later call when sticky is set.
func FailOn(op string, nth int, sticky bool, err error) Fault {
	var mu sync.Mutex
	count := 0
	return func(candidate string, _ string) error {
		if candidate != op {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		count++
		if count == nth || (sticky && count > nth) {
			return err
		}
		return nil
	}
}

type job struct {
	spec         model.JobSpec
	machine      model.MachineID
	assigned     bool
	assignedTurn int
}

type game struct {
	session  *model.Session
	current  int
	jobs     map[model.JobID]*job
	machines map[model.MachineID]bool
	cost     int
	jobSeq   *idgen.Sequence
	count    distuv.Poisson
	turns    distuv.Poisson
	capacity distuv.Uniform
}

// Arena is a simulated arena keeping sessions in memory.
type Arena struct {
	config     *Config
	fault      Fault
	machineSeq *idgen.Sequence
	mu         sync.Mutex
	games      map[string]*game
	calls      map[string]int
}

var _ arena.Arena = (*Arena)(nil)

func (a *Arena) CreateSession(ctx context.Context, long bool) (*model.Session, error) {
	if err := a.enter(OpCreateSession, ""); err != nil {
		return nil, err
	}
	session := model.NewSession(idgen.New(), !long)
	if a.config.Turns > 0 {
		session.TotalTurns = a.config.Turns
	}
	src := rand.NewSource(a.config.Seed)
	g := &game{
		session:  session,
		jobs:     map[model.JobID]*job{},
		machines: map[model.MachineID]bool{},
		jobSeq:   idgen.NewSequence(0),
		count:    distuv.Poisson{Lambda: math.Max(a.config.ArrivalRate, 1e-9), Src: src},
		turns:    distuv.Poisson{Lambda: math.Max(a.config.MeanTurns-1, 1e-9), Src: src},
		capacity: distuv.Uniform{Min: float64(a.config.MinCapacity), Max: float64(a.config.MaxCapacity) + 1, Src: src},
	}
	a.mu.Lock()
	a.games[session.ID] = g
	a.mu.Unlock()
	ret := *session
	return &ret, nil
}

// NextTurn advances the session clock. Past the horizon the clock still
// advances so that running jobs can complete, but ErrHorizonExceeded is
// returned and no jobs are announced.
func (a *Arena) NextTurn(ctx context.Context, sessionID string) (*model.Turn, error) {
	if err := a.enter(OpNextTurn, sessionID); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	g, err := a.game(OpNextTurn, sessionID)
	if err != nil {
		return nil, err
	}
	g.current++
	g.cost += len(g.machines)
	if g.current > g.session.TotalTurns {
		return nil, arena.ErrHorizonExceeded
	}
	turn := &model.Turn{Current: g.current, Jobs: a.arrivals(g)}
	for _, spec := range turn.Jobs {
		g.jobs[spec.ID] = &job{spec: *spec}
	}
	return turn, nil
}

func (a *Arena) arrivals(g *game) []*model.JobSpec {
	var ret []*model.JobSpec
	if a.config.Script != nil {
		for _, spec := range a.config.Script[g.current] {
			clone := *spec
			clone.ArrivalTurn = g.current
			ret = append(ret, &clone)
		}
		return ret
	}
	n := int(g.count.Rand())
	for i := 0; i < n; i++ {
		capacity := int(g.capacity.Rand())
		if capacity > a.config.MaxCapacity {
			capacity = a.config.MaxCapacity
		}
		if capacity < 1 {
			capacity = 1
		}
		ret = append(ret, &model.JobSpec{
			ID:               model.JobID(g.jobSeq.Next()),
			RequiredCapacity: capacity,
			TurnsRequired:    1 + int(g.turns.Rand()),
			ArrivalTurn:      g.current,
		})
	}
	return ret
}

func (a *Arena) CreateMachine(ctx context.Context, sessionID string) (model.MachineID, error) {
	if err := a.enter(OpCreateMachine, sessionID); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	g, err := a.game(OpCreateMachine, sessionID)
	if err != nil {
		return 0, err
	}
	id := model.MachineID(a.machineSeq.Next())
	g.machines[id] = true
	return id, nil
}

func (a *Arena) TerminateMachine(ctx context.Context, sessionID string, machineID model.MachineID) error {
	if err := a.enter(OpTerminateMachine, sessionID); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	g, err := a.game(OpTerminateMachine, sessionID)
	if err != nil {
		return err
	}
	delete(g.machines, machineID)
	return nil
}

func (a *Arena) AssignJob(ctx context.Context, sessionID string, machineID model.MachineID, jobID model.JobID) error {
	if err := a.enter(OpAssignJob, sessionID); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	g, err := a.game(OpAssignJob, sessionID)
	if err != nil {
		return err
	}
	if !g.machines[machineID] {
		return model.NewExternalCallError(OpAssignJob, fmt.Errorf("machine %d is not running", machineID))
	}
	j, ok := g.jobs[jobID]
	if !ok {
		return model.NewExternalCallError(OpAssignJob, fmt.Errorf("job %d was not announced", jobID))
	}
	if j.assigned {
		return model.NewExternalCallError(OpAssignJob, fmt.Errorf("job %d is already assigned", jobID))
	}
	j.assigned = true
	j.machine = machineID
	j.assignedTurn = g.current
	return nil
}

// Status reports completion once the horizon has passed and every assigned
// job has run its required turns since placement.
func (a *Arena) Status(ctx context.Context, sessionID string) (*model.Status, error) {
	if err := a.enter(OpStatus, sessionID); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	g, err := a.game(OpStatus, sessionID)
	if err != nil {
		return nil, err
	}
	ret := &model.Status{Cost: g.cost, Completed: g.current > g.session.TotalTurns}
	for _, j := range g.jobs {
		if !j.assigned {
			ret.DelayTurns += g.current - j.spec.ArrivalTurn
			continue
		}
		ret.DelayTurns += j.assignedTurn - j.spec.ArrivalTurn
		if g.current-j.assignedTurn < j.spec.TurnsRequired {
			ret.Completed = false
		}
	}
	return ret, nil
}

// Machines returns ids of running machines, ascending.
func (a *Arena) Machines(sessionID string) []model.MachineID {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.games[sessionID]
	if !ok {
		return nil
	}
	ret := make([]model.MachineID, 0, len(g.machines))
	for id := range g.machines {
		ret = append(ret, id)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// Assignment returns the machine a job was assigned to.
func (a *Arena) Assignment(sessionID string, jobID model.JobID) (model.MachineID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.games[sessionID]
	if !ok {
		return 0, false
	}
	j, ok := g.jobs[jobID]
	if !ok || !j.assigned {
		return 0, false
	}
	return j.machine, true
}

// Calls returns how many times op was invoked, failed calls included.
func (a *Arena) Calls(op string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[op]
}

func (a *Arena) enter(op, sessionID string) error {
	a.mu.Lock()
	a.calls[op]++
	fault := a.fault
	a.mu.Unlock()
	if fault == nil {
		return nil
	}
	return model.NewExternalCallError(op, fault(op, sessionID))
}

func (a *Arena) game(op, sessionID string) (*game, error) {
	g, ok := a.games[sessionID]
	if !ok {
		return nil, model.NewExternalCallError(op, fmt.Errorf("unknown session: %s", sessionID))
	}
	return g, nil
}

// New creates a simulated arena.
func New(options ...Option) *Arena {
	ret := &Arena{
		config:     DefaultConfig(),
		machineSeq: idgen.NewSequence(0),
		games:      map[string]*game{},
		calls:      map[string]int{},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
