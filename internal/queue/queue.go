// Package queue implements the Redis-backed intake queue of task IDs waiting
// for a pipeline worker.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const intakeKey = "copydesk:intake"

type Queue struct {
	client *redis.Client
}

func NewQueue(redisAddr string) (*Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Enqueue(ctx context.Context, taskID string, at time.Time) error {
	return q.client.ZAdd(ctx, intakeKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: taskID,
	}).Err()
}

// Dequeue pops the oldest due task ID, or returns "" when nothing is due.
// The ZRem result guards against two workers claiming the same ID.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	results, err := q.client.ZRangeByScore(ctx, intakeKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", time.Now().Unix()),
		Count: 1,
	}).Result()
	if err != nil || len(results) == 0 {
		return "", err
	}

	taskID := results[0]
	removed, err := q.client.ZRem(ctx, intakeKey, taskID).Result()
	if err != nil {
		return "", err
	}
	if removed == 0 {
		return "", nil
	}

	return taskID, nil
}

func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, intakeKey).Result()
}

func (q *Queue) Close() error {
	return q.client.Close()
}
