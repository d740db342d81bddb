package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const maxTransientRetries = 2

// postJSON POSTs body to url with headers and decodes the response into out.
// Transient failures (timeouts, 408/429/5xx) are retried up to
// maxTransientRetries times with exponential backoff; everything else is
// classified permanent. The returned error is always a *Error.
func postJSON(ctx context.Context, providerID, url string, headers map[string]string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return Permanent(providerID, 0, fmt.Errorf("marshal request: %w", err))
	}

	client := &http.Client{Timeout: callTimeout()}

	var lastErr *Error
	for attempt := 0; attempt <= maxTransientRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt - 1)):
			case <-ctx.Done():
				return Transient(providerID, 0, ctx.Err())
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return Permanent(providerID, 0, err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		res, err := client.Do(req)
		if err != nil {
			lastErr = Transient(providerID, 0, err)
			continue
		}

		if res.StatusCode >= 200 && res.StatusCode < 300 {
			err := json.NewDecoder(res.Body).Decode(out)
			_ = res.Body.Close()
			if err != nil {
				return Permanent(providerID, res.StatusCode, fmt.Errorf("decode response: %w", err))
			}
			return nil
		}

		var eresp map[string]any
		_ = json.NewDecoder(res.Body).Decode(&eresp)
		_ = res.Body.Close()

		cause := fmt.Errorf("unexpected response: %v", eresp)
		if !transientStatus(res.StatusCode) {
			return Permanent(providerID, res.StatusCode, cause)
		}
		lastErr = Transient(providerID, res.StatusCode, cause)
	}

	return lastErr
}

// probeURL issues a GET and reports whether the endpoint answered with 2xx.
func probeURL(ctx context.Context, url string, headers map[string]string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = res.Body.Close() }()

	return res.StatusCode >= 200 && res.StatusCode < 300
}

// callTimeout bounds a single provider invocation so one hung backend cannot
// stall a whole task.
func callTimeout() time.Duration {
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}

	return 45 * time.Second
}

func backoff(i int) time.Duration {
	return time.Duration(500*(1<<i)) * time.Millisecond
}
