package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrProviderUnavailable means the provider could not be reached at all:
	// connection refused, timeout, missing credentials, offline mode.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUpstream means the provider answered but the call failed: bad
	// status, quota, empty completion.
	ErrUpstream = errors.New("upstream error")
)

// ProviderError tags a failure with the provider that produced it and its
// class (ErrProviderUnavailable or ErrUpstream).
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StatusError carries a non-2xx HTTP status from a hand-rolled provider
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func unavailable(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrProviderUnavailable, Err: err}
}

func upstream(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: ErrUpstream, Err: err}
}

// classify wraps a raw provider error. Already classified errors pass
// through unchanged.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return unavailable(provider, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return unavailable(provider, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return unavailable(provider, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return unavailable(provider, err)
	}

	var se *StatusError
	if errors.As(err, &se) && (se.Code == 401 || se.Code == 403) {
		return unavailable(provider, err)
	}

	return upstream(provider, err)
}

// IsUnavailable reports whether err means the provider was unreachable
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
