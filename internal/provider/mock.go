package provider

import (
	"context"
	"strings"
	"sync"
)

// Mock is used in tests and when no real provider is configured.
type Mock struct {
	Name       string
	Cost       float64
	InvokeFunc func(ctx context.Context, req Request) (*Response, error)
	ProbeFunc  func(ctx context.Context) bool

	mu    sync.Mutex
	calls int
}

func NewMock(name string) *Mock {
	return &Mock{Name: name}
}

func (m *Mock) ID() string {
	if m.Name == "" {
		return "mock"
	}

	return m.Name
}

func (m *Mock) CostPer1K() float64 { return m.Cost }

func (m *Mock) Invoke(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, req)
	}

	return &Response{Text: cannedText(req), Usage: Usage{TokensIn: len(strings.Fields(req.Prompt)), TokensOut: 120}}, nil
}

func (m *Mock) Probe(ctx context.Context) bool {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx)
	}

	return true
}

// Calls reports how many times Invoke ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

func cannedText(req Request) string {
	var b strings.Builder
	b.WriteString("# Generated Article\n\n")
	for i := 0; i < 20; i++ {
		b.WriteString("This placeholder paragraph stands in for model output while no real provider is configured. ")
	}

	return b.String()
}
