package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/service/report"
)

// execute runs the CLI with args and decodes the printed summary.
func execute(t *testing.T, args ...string) (*report.Summary, error) {
	reset := func(flag *pflag.Flag) {
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	}
	cmdJobQueue.PersistentFlags().VisitAll(reset)
	for _, cmd := range cmdJobQueue.Commands() {
		cmd.Flags().VisitAll(reset)
	}
	out := &bytes.Buffer{}
	cmdJobQueue.SetOut(out)
	cmdJobQueue.SetArgs(args)
	err := cmdJobQueue.ExecuteContext(context.Background())
	if out.Len() == 0 {
		return nil, err
	}
	summary := &report.Summary{}
	require.NoError(t, json.Unmarshal(out.Bytes(), summary))
	return summary, err
}

func TestSimulate(t *testing.T) {
	summary, err := execute(t, "simulate", "--seed=7", "--mode=delay", "--turns=5", "--log-level=error")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, report.StateCompleted, summary.State)
	assert.Equal(t, model.ModeDelay, summary.Mode)
	assert.Equal(t, summary.ArenaCost, summary.MachineTurns)
	assert.Equal(t, summary.JobsTotal, summary.JobsPlaced)
}

func TestSimulate_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	configURL := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configURL, []byte(`placement:
  mode: delay
simulation:
  seed: 3
  turns: 20
  arrivalRate: 2
  minCapacity: 4
  maxCapacity: 30
  meanTurns: 3
log:
  level: error
`), 0o644))
	journal := filepath.Join(dir, "events")
	reports := filepath.Join(dir, "reports")

	summary, err := execute(t, "simulate", "--config="+configURL, "--mode=strict", "--turns=4",
		"--event-log="+journal, "--report="+reports)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, model.ModeStrict, summary.Mode)
	assert.Equal(t, report.StateCompleted, summary.State)

	stored, err := os.ReadDir(reports)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	journaled := 0
	for _, state := range []string{"pending", "processing", "completed"} {
		entries, err := os.ReadDir(filepath.Join(journal, "any", state))
		require.NoError(t, err)
		journaled += len(entries)
	}
	if summary.JobsPlaced > 0 {
		assert.Greater(t, journaled, 0)
	}
}

func TestSimulate_InvalidMode(t *testing.T) {
	_, err := execute(t, "simulate", "--mode=eager")
	assert.Error(t, err)
}
