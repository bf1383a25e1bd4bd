package fs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

type placement struct {
	JobID     int `json:"jobID"`
	MachineID int `json:"machineID"`
}

func newQueue(t *testing.T, maxRetries int) (*Queue[placement], afs.Service) {
	fs := afs.New()
	config := DefaultConfig(t.TempDir())
	config.MaxRetries = maxRetries
	config.PollInterval = time.Millisecond
	queue, err := NewQueue[placement](context.Background(), fs, config)
	require.NoError(t, err)
	return queue, fs
}

func TestQueue_PublishConsumeInOrder(t *testing.T) {
	ctx := context.Background()
	queue, fs := newQueue(t, 1)
	for _, dir := range []string{queue.pendingDir, queue.processingDir, queue.completedDir, queue.dlqDir} {
		exists, err := fs.Exists(ctx, dir)
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}

	for i := 1; i <= 3; i++ {
		require.NoError(t, queue.Publish(ctx, &placement{JobID: i, MachineID: 10 + i}))
	}
	pending, err := queue.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, pending)

	for i := 1; i <= 3; i++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, message.T().JobID)
		assert.Equal(t, 10+i, message.T().MachineID)
		require.NoError(t, message.Ack())
		assert.Error(t, message.Ack())
	}
	pending, err = queue.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
	completed, err := queue.list(ctx, queue.completedDir)
	require.NoError(t, err)
	assert.Len(t, completed, 3)
}

func TestQueue_NackRetriesThenDeadLetters(t *testing.T) {
	ctx := context.Background()
	queue, fs := newQueue(t, 1)
	require.NoError(t, queue.Publish(ctx, &placement{JobID: 7, MachineID: 1}))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, message.Nack(errors.New("arena down")))

	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	retried := message.(*Message[placement])
	assert.Equal(t, 1, retried.Retries)
	assert.Equal(t, "arena down", retried.Error)
	require.NoError(t, message.Nack(errors.New("arena down")))

	dead, err := queue.list(ctx, queue.dlqDir)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	data, err := fs.DownloadWithURL(ctx, url.Join(queue.dlqDir, dead[0]))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"failed"`)
}

func TestQueue_ConsumeHonoursContext(t *testing.T) {
	queue, _ := newQueue(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	message, err := queue.Consume(ctx)
	assert.Nil(t, message)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewQueue_RequiresBaseURL(t *testing.T) {
	_, err := NewQueue[placement](context.Background(), afs.New(), QueueConfig{})
	assert.Error(t, err)
}
