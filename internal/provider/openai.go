package provider

import (
	"context"
	"errors"
)

type OpenAI struct {
	APIKey  string
	Model   string
	BaseURL string
	Cost    float64
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	return &OpenAI{APIKey: apiKey, Model: model, BaseURL: baseURL, Cost: 0.005}
}

func (c *OpenAI) ID() string { return "openai" }

func (c *OpenAI) CostPer1K() float64 { return c.Cost }

func (c *OpenAI) Invoke(ctx context.Context, req Request) (*Response, error) {
	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}

	headers := map[string]string{"Authorization": "Bearer " + c.APIKey}
	if err := postJSON(ctx, c.ID(), c.BaseURL+"/v1/chat/completions", headers, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, Permanent(c.ID(), 0, errors.New("no choices in response"))
	}

	return &Response{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			TokensIn:  resp.Usage.PromptTokens,
			TokensOut: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (c *OpenAI) Probe(ctx context.Context) bool {
	return probeURL(ctx, c.BaseURL+"/v1/models", map[string]string{"Authorization": "Bearer " + c.APIKey})
}
