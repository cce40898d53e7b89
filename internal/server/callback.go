package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vigilab/incident-triage/internal/model"
)

const (
	callbackAttempts = 3
	callbackTimeout  = 10 * time.Second
)

// Relay delivers finished reports to the configured callback URL with
// exponential backoff.
type Relay struct {
	url     string
	client  *http.Client
	backoff time.Duration // base delay, doubled per attempt
	logf    func(format string, args ...interface{})
}

// NewRelay creates a Relay for the given callback URL.
func NewRelay(url string, logf func(string, ...interface{})) *Relay {
	return &Relay{
		url:     url,
		client:  &http.Client{Timeout: callbackTimeout},
		backoff: time.Second,
		logf:    logf,
	}
}

// Deliver posts the report, retrying up to callbackAttempts times.
// Delivery failure is logged, never surfaced: the report is already
// stored and retrievable.
func (r *Relay) Deliver(ctx context.Context, rep model.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	delay := r.backoff
	var lastErr error
	for attempt := 1; attempt <= callbackAttempts; attempt++ {
		if err := r.post(ctx, data); err != nil {
			lastErr = err
			r.logf("callback attempt %d/%d failed: %v", attempt, callbackAttempts, err)
			if attempt < callbackAttempts {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return ctx.Err()
				}
				delay *= 2
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("callback delivery failed after %d attempts: %w", callbackAttempts, lastErr)
}

func (r *Relay) post(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
