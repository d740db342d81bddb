// Package store provides durable task state. The orchestrator treats the
// store as the single source of truth: every phase transition is committed
// through Update before the next phase runs.
package store

import (
	"context"
	"errors"

	"github.com/gladlabs/copydesk/internal/task"
)

var ErrNotFound = errors.New("task not found")

// TaskStore is the narrow CRUD contract the orchestrator and API depend on.
// Update must be atomic per call and Get must reflect the most recent
// committed Update for the same task.
type TaskStore interface {
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	Get(ctx context.Context, id string) (*task.Task, error)
	List(ctx context.Context) ([]*task.Task, error)
	RequestCancel(ctx context.Context, id string) error
}
