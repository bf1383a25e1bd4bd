package report

import (
	"testing"

	"github.com/markphelps/optional"
	"github.com/stretchr/testify/assert"
	"github.com/viant/jobqueue/model"
)

func placed(id, arrival, assigned int, delayed, finished bool) *model.Job {
	return &model.Job{
		ID:           model.JobID(id),
		ArrivalTurn:  arrival,
		Machine:      optional.NewInt(1),
		AssignedTurn: assigned,
		Delayed:      delayed,
		Finished:     finished,
	}
}

func TestNew(t *testing.T) {
	summary := New(&Input{
		Session:      model.NewSession("s1", true),
		Mode:         model.ModeDelay,
		Turns:        50,
		MachineTurns: 120,
		Jobs: []*model.Job{
			placed(1, 1, 1, false, true),
			placed(2, 1, 1, false, true),
			placed(3, 2, 4, true, false),
			placed(4, 3, 7, false, false),
			{ID: 5, ArrivalTurn: 9},
		},
		Status: &model.Status{Completed: true, Cost: 120, DelayTurns: 6},
	})
	assert.Equal(t, "s1", summary.Session)
	assert.Equal(t, StateCompleted, summary.State)
	assert.Equal(t, 5, summary.JobsTotal)
	assert.Equal(t, 4, summary.JobsPlaced)
	assert.Equal(t, 2, summary.JobsFinished)
	assert.Equal(t, 1, summary.DelayedPlacements)
	assert.InDelta(t, 1.5, summary.DelayMean, 1e-9)
	assert.Equal(t, 0.0, summary.DelayP50)
	assert.Equal(t, 4.0, summary.DelayP95)
	assert.Equal(t, 4.0, summary.DelayMax)
	assert.Equal(t, 120, summary.ArenaCost)
}

func TestNew_NoPlacements(t *testing.T) {
	summary := New(&Input{Jobs: []*model.Job{{ID: 1}}})
	assert.Equal(t, StateIncomplete, summary.State)
	assert.Equal(t, 0.0, summary.DelayMax)
	assert.Equal(t, 1, summary.JobsTotal)
}
