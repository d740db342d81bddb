package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gladlabs/copydesk/internal/task"
)

const (
	taskHashKey   = "copydesk:tasks"
	cancelHashKey = "copydesk:cancels"
)

// RedisStore keeps every task as one JSON value in a hash, so an Update is a
// single HSET and a poller reading right after always sees the committed
// record.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Create(ctx context.Context, t *task.Task) error {
	return s.write(ctx, t)
}

func (s *RedisStore) Update(ctx context.Context, t *task.Task) error {
	return s.write(ctx, t)
}

func (s *RedisStore) write(ctx context.Context, t *task.Task) error {
	data, err := t.ToJSON()
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, taskHashKey, t.ID, data).Err(); err != nil {
		return err
	}
	if t.Terminal() {
		return s.client.HDel(ctx, cancelHashKey, t.ID).Err()
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*task.Task, error) {
	data, err := s.client.HGet(ctx, taskHashKey, id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t, err := task.FromJSON(data)
	if err != nil {
		return nil, err
	}

	if !t.CancelRequested {
		flagged, err := s.client.HExists(ctx, cancelHashKey, id).Result()
		if err != nil {
			return nil, err
		}
		t.CancelRequested = flagged
	}

	return t, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*task.Task, error) {
	taskMap, err := s.client.HGetAll(ctx, taskHashKey).Result()
	if err != nil {
		return nil, err
	}

	flags, err := s.client.HGetAll(ctx, cancelHashKey).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(taskMap))
	for _, data := range taskMap {
		t, err := task.FromJSON(data)
		if err != nil {
			continue
		}
		if _, ok := flags[t.ID]; ok {
			t.CancelRequested = true
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// RequestCancel flags a task for cooperative cancellation. The orchestrator
// honors the flag at the next phase boundary; terminal tasks are left alone.
// The flag lives in its own hash, not in the task record, so a pipeline
// commit racing with the cancel cannot overwrite it. Get merges it back in;
// a terminal write clears it.
func (s *RedisStore) RequestCancel(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.Terminal() {
		return nil
	}

	return s.client.HSet(ctx, cancelHashKey, id, "1").Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
