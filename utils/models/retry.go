package models

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Retrying wraps a generator with bounded exponential backoff. Transient
// failures (see IsTransient) are retried up to Attempts total calls, waiting
// BaseDelay before the second call and doubling after that. Anything else is
// returned immediately.
type Retrying struct {
	Next      Generator
	Attempts  int
	BaseDelay time.Duration

	// Sleep waits between attempts; replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	// Warnf reports each failed attempt.
	Warnf func(format string, args ...interface{})
}

// NewRetrying returns a Retrying with the stock sleep and warning output.
func NewRetrying(next Generator, attempts int, baseDelay time.Duration) *Retrying {
	return &Retrying{
		Next:      next,
		Attempts:  attempts,
		BaseDelay: baseDelay,
	}
}

// Generate implements Generator.
func (r *Retrying) Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	warnf := r.Warnf
	if warnf == nil {
		warnf = func(format string, args ...interface{}) {
			fmt.Printf("[WARN] "+format+"\n", args...)
		}
	}

	backoff := r.BaseDelay
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := r.Next.Generate(ctx, systemPrompt, userPrompt)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return Result{}, err
		}
		if i == attempts-1 {
			break
		}

		warnf("Attempt %d failed: %v. Retrying in %s...", i+1, err, backoff)
		if err := sleep(ctx, backoff); err != nil {
			return Result{}, err
		}
		backoff *= 2
	}

	return Result{}, exhausted(lastErr, attempts)
}

func exhausted(last error, attempts int) error {
	perr := &ProviderError{
		Message: fmt.Sprintf("giving up after %d attempts: %v", attempts, last),
		Err:     errors.Join(ErrRetriesExhausted, last),
	}
	var inner *ProviderError
	if errors.As(last, &inner) {
		perr.Provider = inner.Provider
		perr.StatusCode = inner.StatusCode
		perr.Message = fmt.Sprintf("giving up after %d attempts: %s", attempts, inner.Message)
	} else {
		perr.Provider = "provider"
	}
	return perr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
