package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placement struct {
	JobID     int
	MachineID int
	Turn      int
}

func TestQueue_PublishConsume(t *testing.T) {
	queue := NewQueue[placement](DefaultConfig())
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &placement{JobID: 1, MachineID: 10, Turn: 3}))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, placement{JobID: 1, MachineID: 10, Turn: 3}, *message.T())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[placement](config)
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &placement{JobID: 2}))
	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, message.Nack(nil))

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	message, err = queue.Consume(timeoutCtx)
	require.NoError(t, err)
	assert.Equal(t, 2, message.T().JobID)

	require.NoError(t, message.Nack(nil))
	assert.Eventually(t, func() bool { return queue.DLQSize() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_DropOldest(t *testing.T) {
	config := DefaultConfig()
	config.QueueBuffer = 2
	config.DropOldest = true
	queue := NewQueue[placement](config)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, queue.Publish(ctx, &placement{JobID: i}))
	}
	assert.Equal(t, 2, queue.Size())

	first, err := queue.Consume(ctx)
	require.NoError(t, err)
	second, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, []int{first.T().JobID, second.T().JobID})
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[placement](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &placement{}))

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeoutCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
