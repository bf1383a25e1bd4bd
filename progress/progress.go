// Package progress provides a lightweight tracker that lives in the run
// context; every component that receives the context can update the counters
// via the Delta helper without a global registry.

package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/jobqueue/internal/clock"
)

// Delta represents an incremental counter change emitted by the placement
// heuristic, the lifecycle controller or the orchestrator.
type Delta struct {
	Turns              int
	Arrived            int
	Placed             int
	Delayed            int
	Finished           int
	MachinesCreated    int
	MachinesTerminated int
	MachineTurns       int
}

// Progress keeps aggregated counters for a single run. It is safe for
// concurrent use.
type Progress struct {
	SessionID string
	Mode      string
	StartedAt time.Time

	Turns              int
	ArrivedJobs        int
	PlacedJobs         int
	DelayedJobs        int
	FinishedJobs       int
	MachinesCreated    int
	MachinesTerminated int
	MachineTurns       int

	sync.Mutex
	onChange func(Progress)
}

// MachinesAlive returns machines created and not yet terminated.
func (p *Progress) MachinesAlive() int {
	return p.MachinesCreated - p.MachinesTerminated
}

// Update applies the delta. The onChange callback, if any, is invoked with a
// copy outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.Turns += d.Turns
	p.ArrivedJobs += d.Arrived
	p.PlacedJobs += d.Placed
	p.DelayedJobs += d.Delayed
	p.FinishedJobs += d.Finished
	p.MachinesCreated += d.MachinesCreated
	p.MachinesTerminated += d.MachinesTerminated
	p.MachineTurns += d.MachineTurns
	snapshot := p.copy()
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copy()
}

// OnChange registers a callback invoked after every Update. nil disables it.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

func (p *Progress) copy() Progress {
	return Progress{
		SessionID:          p.SessionID,
		Mode:               p.Mode,
		StartedAt:          p.StartedAt,
		Turns:              p.Turns,
		ArrivedJobs:        p.ArrivedJobs,
		PlacedJobs:         p.PlacedJobs,
		DelayedJobs:        p.DelayedJobs,
		FinishedJobs:       p.FinishedJobs,
		MachinesCreated:    p.MachinesCreated,
		MachinesTerminated: p.MachinesTerminated,
		MachineTurns:       p.MachineTurns,
	}
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker, embeds it in a derived context and
// returns both.
func WithNewTracker(ctx context.Context, sessionID, mode string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		SessionID: sessionID,
		Mode:      mode,
		StartedAt: clock.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// WithTracker embeds an existing tracker in ctx.
func WithTracker(ctx context.Context, tr *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot combines FromContext and Snapshot.
func GetSnapshot(ctx context.Context) (Progress, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Progress{}, false
}

// UpdateCtx looks up the tracker in ctx (if any) and applies the delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
