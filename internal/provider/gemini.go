package provider

import (
	"context"
	"errors"
	"fmt"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Gemini struct {
	client *genai.Client
	model  string
	cost   float64
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: c, model: model, cost: 0.00125}, nil
}

func (c *Gemini) ID() string { return "gemini" }

func (c *Gemini) CostPer1K() float64 { return c.cost }

func (c *Gemini) Invoke(ctx context.Context, req Request) (*Response, error) {
	m := c.client.GenerativeModel(c.model)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	m.SetTemperature(float32(req.Temperature))
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, c.classify(err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, Permanent(c.ID(), 0, errors.New("no text in response"))
	}

	out := &Response{Text: text}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			TokensIn:  int(resp.UsageMetadata.PromptTokenCount),
			TokensOut: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return out, nil
}

func (c *Gemini) Probe(ctx context.Context) bool {
	_, err := c.client.GenerativeModel(c.model).CountTokens(ctx, genai.Text("ping"))
	return err == nil
}

func (c *Gemini) classify(err error) *Error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if transientStatus(gerr.Code) {
			return Transient(c.ID(), gerr.Code, err)
		}
		return Permanent(c.ID(), gerr.Code, err)
	}

	// Network-level failures from the SDK carry no status; treat as transient
	// so the router re-probes after the TTL.
	return Transient(c.ID(), 0, err)
}

func (c *Gemini) Close() error {
	return c.client.Close()
}

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, cand := range r.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}

	return ""
}
