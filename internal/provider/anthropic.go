package provider

import (
	"context"
	"errors"
)

type Anthropic struct {
	APIKey  string
	Model   string
	BaseURL string
	Cost    float64
}

func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}

	return &Anthropic{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.anthropic.com",
		Cost:    0.009,
	}
}

func (c *Anthropic) ID() string { return "anthropic" }

func (c *Anthropic) CostPer1K() float64 { return c.Cost }

func (c *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": "2023-06-01",
	}
}

func (c *Anthropic) Invoke(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := map[string]any{
		"model":       c.Model,
		"max_tokens":  maxTokens,
		"temperature": req.Temperature,
		"messages": []map[string]any{{
			"role":    "user",
			"content": []map[string]string{{"type": "text", "text": req.Prompt}},
		}},
	}
	if req.System != "" {
		body["system"] = req.System
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := postJSON(ctx, c.ID(), c.BaseURL+"/v1/messages", c.headers(), body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Content) == 0 {
		return nil, Permanent(c.ID(), 0, errors.New("no content in response"))
	}

	return &Response{
		Text: resp.Content[0].Text,
		Usage: Usage{
			TokensIn:  resp.Usage.InputTokens,
			TokensOut: resp.Usage.OutputTokens,
		},
	}, nil
}

func (c *Anthropic) Probe(ctx context.Context) bool {
	return probeURL(ctx, c.BaseURL+"/v1/models", c.headers())
}
