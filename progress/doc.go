// Package progress keeps aggregated per-run scheduling counters (jobs
// arrived, placed, delayed, finished; machines created and terminated).
package progress
