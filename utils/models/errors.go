package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrRetriesExhausted is in the chain of every error returned after the
// retry budget ran out.
var ErrRetriesExhausted = errors.New("retries exhausted")

// ProviderError is the single error type surfaced by generators. StatusCode
// is the HTTP status of the failed call, or 0 when the request never got a
// response (network failure, timeout).
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API request failed: %d %s - %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// transientStatus lists the statuses worth another attempt.
var transientStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	http.StatusTooManyRequests:     true,
}

// IsTransient reports whether err should be retried. Provider errors are
// transient for the statuses above and for network failures (status 0);
// errors that are not ProviderErrors are treated as network failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRetriesExhausted) || errors.Is(err, context.Canceled) {
		return false
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.StatusCode == 0 || transientStatus[perr.StatusCode]
	}
	return true
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.StatusCode
	}
	return 0
}
