// Package metrics exposes scheduler counters as Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "jobqueue"

// Placement outcomes.
const (
	OutcomePlaced        = "placed"
	OutcomeDelayed       = "delayed"
	OutcomeUnsatisfiable = "unsatisfiable"
	OutcomeFailed        = "failed"
)

// Collectors groups the scheduler metrics. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	machinesAlive  prometheus.Gauge
	machineTurns   prometheus.Counter
	placements     *prometheus.CounterVec
	delayed        prometheus.Counter
	finished       prometheus.Counter
	turn           prometheus.Gauge
	machinesByTurn prometheus.Histogram
}

// New creates collectors and registers them with registerer.
func New(registerer prometheus.Registerer) (*Collectors, error) {
	ret := &Collectors{
		machinesAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "machines_alive",
			Help:      "Number of machines currently running.",
		}),
		machineTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "machine_turns_total",
			Help:      "Machine-turns accumulated so far (cost).",
		}),
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_total",
			Help:      "Placement attempts by mode and outcome.",
		}, []string{"mode", "outcome"}),
		delayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delayed_placements_total",
			Help:      "Placements that overcommitted a machine.",
		}),
		finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs whose capacity was reclaimed.",
		}),
		turn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "turn",
			Help:      "Current arena turn.",
		}),
		machinesByTurn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "machines_per_turn",
			Help:      "Machines alive at the end of each turn.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}
	for _, c := range []prometheus.Collector{ret.machinesAlive, ret.machineTurns, ret.placements, ret.delayed, ret.finished, ret.turn, ret.machinesByTurn} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Placement records a placement attempt.
func (c *Collectors) Placement(mode, outcome string) {
	if c == nil {
		return
	}
	c.placements.WithLabelValues(mode, outcome).Inc()
	if outcome == OutcomeDelayed {
		c.delayed.Inc()
	}
}

// MachineCreated increments the alive gauge.
func (c *Collectors) MachineCreated() {
	if c == nil {
		return
	}
	c.machinesAlive.Inc()
}

// MachineTerminated decrements the alive gauge.
func (c *Collectors) MachineTerminated() {
	if c == nil {
		return
	}
	c.machinesAlive.Dec()
}

// JobsFinished adds n reclaimed jobs.
func (c *Collectors) JobsFinished(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.finished.Add(float64(n))
}

// TurnCompleted records the turn number and the machines charged for it.
func (c *Collectors) TurnCompleted(turn, machines int) {
	if c == nil {
		return
	}
	c.turn.Set(float64(turn))
	c.machineTurns.Add(float64(machines))
	c.machinesByTurn.Observe(float64(machines))
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger logrus.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	logger.WithField("addr", addr).Info("starting metrics server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
