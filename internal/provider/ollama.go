package provider

import (
	"context"
	"errors"
)

// Ollama talks to a locally hosted model server. It sits first in the default
// chain because local inference is free.
type Ollama struct {
	BaseURL string
	Model   string
}

func NewOllama(baseURL, model string) *Ollama {
	if model == "" {
		model = "llama3.1"
	}

	return &Ollama{BaseURL: baseURL, Model: model}
}

func (c *Ollama) ID() string { return "ollama" }

func (c *Ollama) CostPer1K() float64 { return 0 }

func (c *Ollama) Invoke(ctx context.Context, req Request) (*Response, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	body := map[string]any{
		"model":  c.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		body["options"].(map[string]any)["num_predict"] = req.MaxTokens
	}

	var resp struct {
		Response        string `json:"response"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}

	if err := postJSON(ctx, c.ID(), c.BaseURL+"/api/generate", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Response == "" {
		return nil, Transient(c.ID(), 0, errors.New("empty response"))
	}

	return &Response{
		Text: resp.Response,
		Usage: Usage{
			TokensIn:  resp.PromptEvalCount,
			TokensOut: resp.EvalCount,
		},
	}, nil
}

func (c *Ollama) Probe(ctx context.Context) bool {
	return probeURL(ctx, c.BaseURL+"/api/tags", nil)
}
