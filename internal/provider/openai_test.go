package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": text}},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 20,
		},
	}
}

func TestOpenAI_Invoke(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(chatResponse("generated text"))
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "gpt-4o-mini", srv.URL)

	resp, err := c.Invoke(context.Background(), Request{Prompt: "write something"})

	require.NoError(t, err)
	assert.Equal(t, "generated text", resp.Text)
	assert.Equal(t, 10, resp.Usage.TokensIn)
	assert.Equal(t, 20, resp.Usage.TokensOut)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestOpenAI_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse("finally"))
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "", srv.URL)

	resp, err := c.Invoke(context.Background(), Request{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "finally", resp.Text)
	assert.Equal(t, 3, calls)
}

func TestOpenAI_TransientExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "", srv.URL)

	_, err := c.Invoke(context.Background(), Request{Prompt: "hi"})

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 1+maxTransientRetries, calls)
}

func TestOpenAI_PermanentFailsImmediately(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenAI("bad-key", "", srv.URL)

	_, err := c.Invoke(context.Background(), Request{Prompt: "hi"})

	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, 1, calls)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindPermanent, pe.Kind)
	assert.Equal(t, http.StatusUnauthorized, pe.Status)
}

func TestOpenAI_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "", srv.URL)

	assert.True(t, c.Probe(context.Background()))

	srv.Close()
	assert.False(t, c.Probe(context.Background()))
}
