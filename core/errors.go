package core

import (
	"context"
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid synthesis request")
	ErrTextTooLong    = errors.New("text exceeds maximum length")

	// Provider errors
	ErrProviderNotFound     = errors.New("provider not found")
	ErrNoProvidersAvailable = errors.New("no providers available")
	ErrAllProvidersFailed   = errors.New("all providers failed")
	ErrCircuitOpen          = errors.New("circuit breaker open")
	ErrAllKeysExhausted     = errors.New("all API keys exhausted")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// Operation errors
	ErrTimeout         = errors.New("operation timeout")
	ErrContextCanceled = errors.New("context canceled")

	// HTTP/Network errors
	ErrConnectionFailed = errors.New("connection failed")
	ErrRequestFailed    = errors.New("request failed")
)

// SynthesisError provides structured error information with context
// It implements the error interface and supports error wrapping
type SynthesisError struct {
	Op      string // Operation that failed (e.g., "chain.Synthesize")
	Kind    string // Error kind (e.g., "provider", "config", "request")
	ID      string // Optional ID of the entity involved (provider or key name)
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error. A Message
// takes precedence over the wrapped sentinel so callers see the
// specific failure, not just its class.
func (e *SynthesisError) Error() string {
	if e.Op != "" && e.Message != "" {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %s", e.Op, e.ID, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// NewSynthesisError creates a new SynthesisError
func NewSynthesisError(op, kind string, err error) *SynthesisError {
	return &SynthesisError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// IsRetryable checks if an error is retryable on another provider
// Retryable errors are typically transient network or availability issues
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrRequestFailed) ||
		errors.Is(err, ErrAllKeysExhausted)
}

// IsValidationError checks if an error was raised by request validation
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrTextTooLong)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}

// IsCancellation reports whether an error represents the caller giving up.
// Cancellations must never count toward circuit breaker thresholds.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrContextCanceled)
}
