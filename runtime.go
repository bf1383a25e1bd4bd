package jobqueue

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/policy"
	"github.com/viant/jobqueue/progress"
	"github.com/viant/jobqueue/service/orchestrator"
	"github.com/viant/jobqueue/service/report"
)

// Runtime represents a single arena session being played.
type Runtime struct {
	service      *Service
	session      *model.Session
	orchestrator *orchestrator.Service
	progress     *progress.Progress
}

// Session returns the session.
func (r *Runtime) Session() *model.Session { return r.session }

// Orchestrator returns the turn orchestrator.
func (r *Runtime) Orchestrator() *orchestrator.Service { return r.orchestrator }

// Progress returns a snapshot of run counters.
func (r *Runtime) Progress() progress.Progress { return r.progress.Snapshot() }

// Step advances the session by one turn.
func (r *Runtime) Step(ctx context.Context) (orchestrator.State, error) {
	return r.orchestrator.Step(r.decorate(ctx))
}

// Run plays the session to completion, then builds and stores its summary.
// A failed run still produces a summary of what was played.
func (r *Runtime) Run(ctx context.Context) (*report.Summary, error) {
	_, runErr := r.orchestrator.Run(r.decorate(ctx))
	summary := r.Summary(ctx)
	if r.service.reportDAO != nil {
		if err := r.service.reportDAO.Save(ctx, summary); err != nil {
			r.service.logger.WithError(err).Warn("failed to save report")
		}
	}
	if runErr != nil {
		return summary, fmt.Errorf("session %s: %w", r.session.ID, runErr)
	}
	r.service.logger.WithFields(logrus.Fields{
		"session":      summary.Session,
		"machineTurns": summary.MachineTurns,
		"jobs":         summary.JobsTotal,
		"delayed":      summary.DelayedPlacements,
		"delayP95":     summary.DelayP95,
	}).Info("run completed")
	return summary, nil
}

// Summary reports on the session as played so far.
func (r *Runtime) Summary(ctx context.Context) *report.Summary {
	jobs, _ := r.orchestrator.Jobs().List(ctx)
	return report.New(&report.Input{
		Session:      r.session,
		Mode:         policy.FromContext(r.decorate(ctx)).ModeOr(r.service.config.orchestratorConfig().Mode),
		Turns:        r.orchestrator.Turn(),
		MachineTurns: r.orchestrator.MachineTurns(),
		Jobs:         jobs,
		Status:       r.orchestrator.Status(),
	})
}

func (r *Runtime) decorate(ctx context.Context) context.Context {
	ctx = r.service.NewContext(ctx)
	if _, ok := progress.FromContext(ctx); !ok {
		ctx = progress.WithTracker(ctx, r.progress)
	}
	return ctx
}

func newRuntime(service *Service, session *model.Session) *Runtime {
	config := service.config.orchestratorConfig()
	mode := policy.FromContext(service.NewContext(context.Background())).ModeOr(config.Mode)
	_, tracker := progress.WithNewTracker(context.Background(), session.ID, string(mode), nil)
	return &Runtime{
		service: service,
		session: session,
		orchestrator: orchestrator.New(service.arena, session, config,
			orchestrator.WithLogger(service.logger.WithField("session", session.ID)),
			orchestrator.WithMetrics(service.metrics)),
		progress: tracker,
	}
}
