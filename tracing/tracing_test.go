package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesSpans(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.json")
	require.NoError(t, Init("jobqueue", "0.0.1", fname))

	ctx, step := StartSpan(context.Background(), "jobqueue.step", KindPhase)
	step.WithTurn("session-1", 3).WithState("placing")
	current, ok := SpanFromContext(ctx)
	assert.True(t, ok)
	assert.NotNil(t, current)

	_, call := StartSpan(ctx, "arena.assign", KindArena)
	call.WithRequest("PUT", "http://arena/games/1/machines/4/job_assignments", 503)
	EndSpan(call, errors.New("arena down"))
	EndSpan(step, nil)

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "arena down")
	assert.Contains(t, string(data), "jobqueue.turn")
}

func TestSpan_NilSafe(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.WithTurn("s", 1).WithState("done").WithRequest("GET", "u", 200)
		span.SetStatus(nil)
		EndSpan(span, nil)
	})
}

func TestSpanFromContext_Empty(t *testing.T) {
	span, ok := SpanFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, span)
}
