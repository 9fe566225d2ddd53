// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate produces theme batches and article drafts through a
// text-generation provider. It owns the prompt assembly, the deterministic
// variety selectors, the offline fallback generator, and the provider call
// log. The orchestrator drives it; nothing here touches scoring.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"
)

// Provider abstracts the text-generation API so tests can supply a mock.
type Provider interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// CallMeta labels one provider call for the call log. Carried on the
// context so the Provider signature stays minimal.
type CallMeta struct {
	Phase   string
	Agent   string
	BatchID string
	ID      string
	Version int
}

type callMetaKey struct{}

// WithMeta attaches call-log metadata to the context.
func WithMeta(ctx context.Context, meta CallMeta) context.Context {
	return context.WithValue(ctx, callMetaKey{}, meta)
}

// MetaFrom returns the call-log metadata attached to the context, if any.
func MetaFrom(ctx context.Context) CallMeta {
	meta, _ := ctx.Value(callMetaKey{}).(CallMeta)
	return meta
}

// ProviderError is a failed provider call with enough classification for
// the retry policy: HTTP status when the API answered, Network when it
// did not.
type ProviderError struct {
	Status  int
	Network bool
	Msg     string
}

func (e *ProviderError) Error() string { return e.Msg }

// IsRetryable reports whether the error is worth another attempt:
// overload (503), rate limiting (429), network failures, and timeouts.
// Everything else is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Network || perr.Status == 429 || perr.Status == 503
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// RetryProvider wraps a Provider with linear backoff for retryable
// failures: wait = Backoff × attempt number. Terminal errors surface
// immediately.
type RetryProvider struct {
	Inner       Provider
	MaxAttempts int           // total attempts, default 3
	Backoff     time.Duration // linear base, default 1.5s
	Logger      *slog.Logger
}

// Generate calls the inner provider, retrying retryable failures up to
// MaxAttempts total calls.
func (r *RetryProvider) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = 1500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := r.Inner.Generate(ctx, prompt, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == attempts {
			return "", err
		}
		if r.Logger != nil {
			meta := MetaFrom(ctx)
			r.Logger.Warn("provider retry",
				"reason", fmt.Sprintf("retryable_error_attempt_%d: %v", attempt, err),
				"id", meta.ID,
				"version", meta.Version,
			)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}
	return "", fmt.Errorf("provider retry exhausted: %w", lastErr)
}
