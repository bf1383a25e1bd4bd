// Package policy carries an optional placement policy in context so that a
// single run can override the configured placement mode, or restrict the
// sizes of jobs it accepts, without rebuilding the scheduler.
package policy
