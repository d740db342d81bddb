package router

import (
	"context"
	"sync"
	"time"

	"github.com/gladlabs/copydesk/internal/provider"
)

type entry struct {
	adapter     provider.Adapter
	available   bool
	everChecked bool
	lastChecked time.Time
	lastError   string
	cost        float64
	requests    int64
}

type Router struct {
	mu      sync.Mutex
	entries []*entry
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Router)

// WithAvailabilityTTL overrides the cache window during which a failed
// provider is skipped without a network call.
func WithAvailabilityTTL(ttl time.Duration) Option {
	return func(r *Router) { r.ttl = ttl }
}

func New(adapters []provider.Adapter, opts ...Option) *Router {
	r := &Router{
		ttl: DefaultAvailabilityTTL,
		now: time.Now,
	}
	for _, a := range adapters {
		r.entries = append(r.entries, &entry{adapter: a})
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Generate routes one request through the chain and returns the first
// success. Providers cached as unavailable within the TTL are skipped
// outright; once the TTL lapses, a cheap Probe gates re-entry before a full
// generation call is spent on a provider that may still be down. On
// exhaustion it returns an *ExhaustedError carrying one failure reason per
// provider in chain order.
func (r *Router) Generate(ctx context.Context, req provider.Request) (*Result, error) {
	failures := make([]Failure, 0, len(r.entries))

	for depth, e := range r.entries {
		if reason, skip := r.cachedDown(e); skip {
			failures = append(failures, Failure{Provider: e.adapter.ID(), Reason: reason})
			continue
		}

		if r.wasDown(e) && !e.adapter.Probe(ctx) {
			r.markProbeFailed(e)
			failures = append(failures, Failure{Provider: e.adapter.ID(), Reason: "probe failed"})
			continue
		}

		start := r.now()
		resp, err := e.adapter.Invoke(ctx, req)
		latency := r.now().Sub(start)

		if err != nil {
			r.markDown(e, err.Error())
			failures = append(failures, Failure{Provider: e.adapter.ID(), Reason: err.Error()})
			continue
		}

		cost := r.markUp(e, resp.Usage)

		return &Result{
			Text: resp.Text,
			Invocation: Invocation{
				Provider:      e.adapter.ID(),
				LatencyMS:     latency.Milliseconds(),
				TokensIn:      resp.Usage.TokensIn,
				TokensOut:     resp.Usage.TokensOut,
				EstimatedCost: cost,
				FallbackDepth: depth,
			},
		}, nil
	}

	return nil, &ExhaustedError{Failures: failures}
}

func (r *Router) cachedDown(e *entry) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.everChecked && !e.available && r.now().Sub(e.lastChecked) < r.ttl {
		return "skipped, marked unavailable: " + e.lastError, true
	}

	return "", false
}

// wasDown reports whether e failed on its last attempt and the skip window
// has already lapsed, so re-entry should be probe-gated.
func (r *Router) wasDown(e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return e.everChecked && !e.available
}

func (r *Router) markDown(e *entry, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.available = false
	e.everChecked = true
	e.lastChecked = r.now()
	e.lastError = reason
	e.requests++
}

// markProbeFailed extends the skip window without charging a request; only
// real invocations count toward the cumulative counters.
func (r *Router) markProbeFailed(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.available = false
	e.everChecked = true
	e.lastChecked = r.now()
	e.lastError = "probe failed"
}

func (r *Router) markUp(e *entry, usage provider.Usage) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.available = true
	e.everChecked = true
	e.lastChecked = r.now()
	e.lastError = ""
	e.requests++

	cost := float64(usage.TokensIn+usage.TokensOut) / 1000 * e.adapter.CostPer1K()
	e.cost += cost

	return cost
}

// Snapshot returns the current health and cost counters for every provider
// in chain order.
func (r *Router) Snapshot() []ProviderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ProviderStatus, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, ProviderStatus{
			Provider:           e.adapter.ID(),
			Available:          e.available || !e.everChecked,
			LastChecked:        e.lastChecked,
			LastError:          e.lastError,
			CostPer1KTokens:    e.adapter.CostPer1K(),
			CumulativeCost:     e.cost,
			CumulativeRequests: e.requests,
		})
	}

	return out
}
