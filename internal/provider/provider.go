// Package provider normalizes interchangeable language-model backends behind
// one adapter interface. Each adapter owns its wire format, error
// classification and bounded transient retry; the fallback router decides
// which adapter handles a given request.
package provider

import "context"

type Request struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
}

type Usage struct {
	TokensIn  int `json:"tokens_in"`
	TokensOut int `json:"tokens_out"`
}

type Response struct {
	Text  string
	Usage Usage
}

// Adapter is the contract every model backend satisfies. Invoke retries
// transient failures internally (bounded, with backoff) before surfacing a
// *Error; permanent failures surface immediately.
type Adapter interface {
	ID() string
	CostPer1K() float64
	Invoke(ctx context.Context, req Request) (*Response, error)
	Probe(ctx context.Context) bool
}
