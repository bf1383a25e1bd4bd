// Package report summarises a finished run: cost, job counts and the
// distribution of placement delay.
package report

import (
	"sort"
	"time"

	"github.com/viant/jobqueue/internal/clock"
	"github.com/viant/jobqueue/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary states.
const (
	StateCompleted  = "completed"
	StateIncomplete = "incomplete"
)

// Summary represents a run report
type Summary struct {
	Session           string              `json:"session" yaml:"session"`
	Mode              model.PlacementMode `json:"mode" yaml:"mode"`
	State             string              `json:"state" yaml:"state"`
	Turns             int                 `json:"turns" yaml:"turns"`
	MachineTurns      int                 `json:"machineTurns" yaml:"machineTurns"`
	ArenaCost         int                 `json:"arenaCost,omitempty" yaml:"arenaCost,omitempty"`
	ArenaDelayTurns   int                 `json:"arenaDelayTurns,omitempty" yaml:"arenaDelayTurns,omitempty"`
	JobsTotal         int                 `json:"jobsTotal" yaml:"jobsTotal"`
	JobsPlaced        int                 `json:"jobsPlaced" yaml:"jobsPlaced"`
	JobsFinished      int                 `json:"jobsFinished" yaml:"jobsFinished"`
	DelayedPlacements int                 `json:"delayedPlacements" yaml:"delayedPlacements"`
	DelayMean         float64             `json:"delayMean" yaml:"delayMean"`
	DelayP50          float64             `json:"delayP50" yaml:"delayP50"`
	DelayP95          float64             `json:"delayP95" yaml:"delayP95"`
	DelayMax          float64             `json:"delayMax" yaml:"delayMax"`
	CreatedAt         time.Time           `json:"createdAt" yaml:"createdAt"`
}

// Input carries the run figures the summary is built from.
type Input struct {
	Session      *model.Session
	Mode         model.PlacementMode
	Turns        int
	MachineTurns int
	Jobs         []*model.Job
	Status       *model.Status
}

// New builds a summary; delay statistics cover placed jobs only.
func New(input *Input) *Summary {
	ret := &Summary{
		Mode:         input.Mode,
		State:        StateIncomplete,
		Turns:        input.Turns,
		MachineTurns: input.MachineTurns,
		JobsTotal:    len(input.Jobs),
		CreatedAt:    clock.Now(),
	}
	if input.Session != nil {
		ret.Session = input.Session.ID
	}
	if status := input.Status; status != nil {
		ret.ArenaCost = status.Cost
		ret.ArenaDelayTurns = status.DelayTurns
		if status.Completed {
			ret.State = StateCompleted
		}
	}
	var delays []float64
	for _, job := range input.Jobs {
		if job.Finished {
			ret.JobsFinished++
		}
		if !job.Assigned() {
			continue
		}
		ret.JobsPlaced++
		if job.Delayed {
			ret.DelayedPlacements++
		}
		delays = append(delays, float64(job.Delay()))
	}
	if len(delays) == 0 {
		return ret
	}
	sort.Float64s(delays)
	ret.DelayMean = stat.Mean(delays, nil)
	ret.DelayP50 = stat.Quantile(0.5, stat.Empirical, delays, nil)
	ret.DelayP95 = stat.Quantile(0.95, stat.Empirical, delays, nil)
	ret.DelayMax = floats.Max(delays)
	return ret
}
