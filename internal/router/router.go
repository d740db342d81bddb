// Package router implements the provider fallback chain. It tries adapters
// in a fixed priority order, caches per-provider availability so a known-dead
// backend is skipped without a network call, and tracks running cost
// counters. All shared state is guarded by one mutex; concurrent tasks hit
// the same router instance.
package router

import (
	"fmt"
	"strings"
	"time"
)

// DefaultAvailabilityTTL is how long a provider stays skipped after a
// failure before the next request re-probes it with a real call.
const DefaultAvailabilityTTL = 5 * time.Minute

// Invocation describes a single successful routed call.
type Invocation struct {
	Provider      string  `json:"provider"`
	LatencyMS     int64   `json:"latency_ms"`
	TokensIn      int     `json:"tokens_in"`
	TokensOut     int     `json:"tokens_out"`
	EstimatedCost float64 `json:"estimated_cost"`
	FallbackDepth int     `json:"fallback_depth"`
}

// Result carries the generated text plus routing metadata.
type Result struct {
	Text       string
	Invocation Invocation
}

// Failure is one provider's reason for not serving a request.
type Failure struct {
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

// ExhaustedError is returned when every provider in the chain failed or was
// skipped. Failures are in chain order, one entry per provider.
type ExhaustedError struct {
	Failures []Failure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Provider, f.Reason))
	}

	return "all providers exhausted: " + strings.Join(parts, "; ")
}

// ProviderStatus is a point-in-time snapshot of one chain entry.
type ProviderStatus struct {
	Provider           string    `json:"provider"`
	Available          bool      `json:"available"`
	LastChecked        time.Time `json:"last_checked_at"`
	LastError          string    `json:"last_error,omitempty"`
	CostPer1KTokens    float64   `json:"cost_per_1k_tokens"`
	CumulativeCost     float64   `json:"cumulative_cost"`
	CumulativeRequests int64     `json:"cumulative_requests"`
}
