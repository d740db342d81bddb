package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	q, err := NewQueue(mr.Addr())
	require.NoError(t, err)

	return q, mr
}

func TestNewQueue_InvalidAddress(t *testing.T) {
	_, err := NewQueue("invalid:99999")

	assert.Error(t, err)
}

func TestEnqueueAndDequeue(t *testing.T) {
	q, mr := setupTestQueue(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "task-1", time.Now()))

	id, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
}

func TestDequeue_Empty(t *testing.T) {
	q, mr := setupTestQueue(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	id, err := q.Dequeue(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, id)
}

func TestDequeue_FutureTaskNotDue(t *testing.T) {
	q, mr := setupTestQueue(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "task-later", time.Now().Add(time.Hour)))

	id, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestDequeue_FIFOByScheduledTime(t *testing.T) {
	q, mr := setupTestQueue(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, q.Enqueue(ctx, "second", now))
	require.NoError(t, q.Enqueue(ctx, "first", now.Add(-time.Minute)))

	id, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", id)

	id, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", id)
}

func TestDepth(t *testing.T) {
	q, mr := setupTestQueue(t)
	defer mr.Close()
	defer func() { _ = q.Close() }()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "a", time.Now()))
	require.NoError(t, q.Enqueue(ctx, "b", time.Now()))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}
