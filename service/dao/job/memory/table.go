package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/markphelps/optional"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/service/dao"
	"github.com/viant/jobqueue/service/dao/criteria"
	"github.com/viant/jobqueue/service/dao/store"
)

// Table is the job table: it owns every job record seen during a session.
// Finished jobs stay in the table for accounting.
type Table struct {
	store *store.MemoryStore[model.JobID, model.Job]
}

var _ dao.Service[model.JobID, model.Job] = (*Table)(nil)

// Ingest upserts arriving jobs. A record with a known id replaces the stored
// one while the job is unassigned; once placed, the capacity reserved for it
// is fixed and a repeated record is ignored. The batch is validated up front:
// one invalid spec leaves the table unchanged.
func (t *Table) Ingest(ctx context.Context, specs []*model.JobSpec) error {
	for _, spec := range specs {
		if spec == nil {
			continue
		}
		if err := spec.Validate(); err != nil {
			return err
		}
	}
	for _, spec := range specs {
		if spec == nil {
			continue
		}
		err := t.store.Update(spec.ID, func(j *model.Job) error {
			if !j.Assigned() {
				*j = *model.NewJob(spec)
			}
			return nil
		})
		if errors.Is(err, dao.ErrNotFound) {
			err = t.store.Save(ctx, model.NewJob(spec))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Unassigned returns the ids of jobs without a machine, ascending.
func (t *Table) Unassigned() []model.JobID {
	jobs := t.store.Select(func(j *model.Job) bool { return !j.Assigned() })
	return ids(jobs)
}

// Running returns assigned, unfinished jobs, ascending id.
func (t *Table) Running() []*model.Job {
	return t.store.Select(func(j *model.Job) bool { return j.Assigned() && !j.Finished })
}

// Occupied returns true when any unfinished job is assigned to machineID.
func (t *Table) Occupied(machineID model.MachineID) bool {
	occupants := t.store.Select(func(j *model.Job) bool {
		id, ok := j.MachineID()
		return ok && id == machineID && !j.Finished
	})
	return len(occupants) > 0
}

// MarkAssigned records the placement of an unassigned job.
func (t *Table) MarkAssigned(jobID model.JobID, machineID model.MachineID, turn int, delayed bool) error {
	err := t.store.Update(jobID, func(j *model.Job) error {
		if j.Assigned() {
			return fmt.Errorf("job %d: %w", jobID, model.ErrAlreadyAssigned)
		}
		j.Machine = optional.NewInt(int(machineID))
		j.AssignedTurn = turn
		j.Delayed = delayed
		return nil
	})
	return unknownJob(jobID, err)
}

// IsFinished reports whether the job is done at currentTurn.
func (t *Table) IsFinished(ctx context.Context, jobID model.JobID, currentTurn int) (bool, error) {
	job, err := t.Load(ctx, jobID)
	if err != nil {
		return false, err
	}
	return job.IsFinished(currentTurn), nil
}

// MarkFinished flags the job as finished; repeated calls are no-ops.
// The returned bool is true only for the call that changed the flag.
func (t *Table) MarkFinished(jobID model.JobID) (bool, error) {
	changed := false
	err := t.store.Update(jobID, func(j *model.Job) error {
		if !j.Finished {
			j.Finished = true
			changed = true
		}
		return nil
	})
	return changed, unknownJob(jobID, err)
}

func (t *Table) Save(ctx context.Context, job *model.Job) error {
	return t.store.Save(ctx, job)
}

func (t *Table) Load(ctx context.Context, id model.JobID) (*model.Job, error) {
	job, err := t.store.Load(ctx, id)
	return job, unknownJob(id, err)
}

func (t *Table) Delete(ctx context.Context, id model.JobID) error {
	return t.store.Delete(ctx, id)
}

// List returns jobs in ascending id order, optionally filtered by
// dao.StateParameter(model.JobStateRunning, ...).
func (t *Table) List(_ context.Context, parameters ...*dao.Parameter) ([]*model.Job, error) {
	return t.store.Select(func(j *model.Job) bool {
		return criteria.FilterByState(string(j.State()), parameters)
	}), nil
}

// Len returns the number of jobs ever ingested.
func (t *Table) Len() int {
	return t.store.Len()
}

func ids(jobs []*model.Job) []model.JobID {
	ret := make([]model.JobID, 0, len(jobs))
	for _, job := range jobs {
		ret = append(ret, job.ID)
	}
	return ret
}

func unknownJob(id model.JobID, err error) error {
	if errors.Is(err, dao.ErrNotFound) {
		return fmt.Errorf("job %d: %w", id, model.ErrUnknownJob)
	}
	return err
}

// New creates an empty job table.
func New() *Table {
	return &Table{store: store.NewMemoryStore[model.JobID, model.Job](
		func(j *model.Job) model.JobID { return j.ID },
		(*model.Job).Clone,
	)}
}
