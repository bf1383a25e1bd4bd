// Package jobqueue provides an online, turn-based scheduler that places
// arriving jobs onto a pool of ephemeral machines, trading machine-turns
// (cost) against the turns a job waits before it starts (delay).
//
// End-users typically interact with the scheduler via the Service façade
// exposed by the root package:
//
//	srv, _ := jobqueue.New(ctx, jobqueue.WithConfig(cfg))
//	summary, err := srv.Run(ctx)
//
// Each turn the orchestrator ingests arrivals, places unassigned jobs with a
// tightest-fit heuristic, reclaims finished jobs and terminates idle
// machines. Once the arena runs out of turns the pool is drained.
package jobqueue
