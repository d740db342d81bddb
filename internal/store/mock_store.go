package store

import (
	"context"
	"sync"

	"github.com/gladlabs/copydesk/internal/task"
)

// MockStore is an in-memory TaskStore that records calls for assertions.
// Cancel flags are kept beside the task records, mirroring RedisStore, so an
// Update racing with RequestCancel cannot clobber a pending cancel.
type MockStore struct {
	mu          sync.Mutex
	Tasks       map[string]*task.Task
	Cancels     map[string]bool
	CreateCalls []string
	UpdateCalls []string
	CancelCalls []string

	CreateError error
	UpdateError error
	GetError    error

	// FailUpdateWhenPhase makes Update fail once the task reaches the given
	// phase, to exercise persistence-failure paths.
	FailUpdateWhenPhase task.Phase
	failUpdateError     error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Tasks:   make(map[string]*task.Task),
		Cancels: make(map[string]bool),
	}
}

// FailUpdateAt arms a one-phase update failure.
func (s *MockStore) FailUpdateAt(phase task.Phase, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FailUpdateWhenPhase = phase
	s.failUpdateError = err
}

func (s *MockStore) Create(ctx context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CreateCalls = append(s.CreateCalls, t.ID)
	if s.CreateError != nil {
		return s.CreateError
	}

	s.Tasks[t.ID] = clone(t)
	return nil
}

func (s *MockStore) Update(ctx context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.UpdateCalls = append(s.UpdateCalls, t.ID)
	if s.UpdateError != nil {
		return s.UpdateError
	}
	if s.FailUpdateWhenPhase != "" && t.Phase == s.FailUpdateWhenPhase {
		return s.failUpdateError
	}

	s.Tasks[t.ID] = clone(t)
	if t.Terminal() {
		delete(s.Cancels, t.ID)
	}
	return nil
}

func (s *MockStore) Get(ctx context.Context, id string) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.GetError != nil {
		return nil, s.GetError
	}

	t, ok := s.Tasks[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := clone(t)
	if s.Cancels[id] {
		cp.CancelRequested = true
	}

	return cp, nil
}

func (s *MockStore) List(ctx context.Context) ([]*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*task.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		cp := clone(t)
		if s.Cancels[t.ID] {
			cp.CancelRequested = true
		}
		out = append(out, cp)
	}

	return out, nil
}

func (s *MockStore) RequestCancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CancelCalls = append(s.CancelCalls, id)
	t, ok := s.Tasks[id]
	if !ok {
		return ErrNotFound
	}
	if !t.Terminal() {
		s.Cancels[id] = true
	}

	return nil
}

// UpdateCount reports how many updates were committed for a task.
func (s *MockStore) UpdateCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, call := range s.UpdateCalls {
		if call == id {
			n++
		}
	}

	return n
}

func clone(t *task.Task) *task.Task {
	data, err := t.ToJSON()
	if err != nil {
		cp := *t
		return &cp
	}

	out, err := task.FromJSON(data)
	if err != nil {
		cp := *t
		return &cp
	}

	return out
}
