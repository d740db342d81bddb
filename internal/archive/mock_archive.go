package archive

import (
	"context"
	"sync"
)

// MockArchive records published articles for assertions in pipeline tests.
type MockArchive struct {
	mu           sync.Mutex
	Published    []*Article
	PublishError error
}

func NewMockArchive() *MockArchive {
	return &MockArchive{}
}

func (m *MockArchive) PublishArticle(ctx context.Context, art *Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishError != nil {
		return m.PublishError
	}

	cp := *art
	m.Published = append(m.Published, &cp)
	return nil
}

func (m *MockArchive) PublishCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Published)
}

func (m *MockArchive) LastPublished() *Article {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Published) == 0 {
		return nil
	}

	return m.Published[len(m.Published)-1]
}
