package embedding

import (
	"errors"
	"fmt"
)

// FailureKind classifies gateway failures for retry policy decisions.
type FailureKind string

const (
	// ProviderUnavailable covers network errors, timeouts and 5xx/429
	// responses; retried with exponential backoff.
	ProviderUnavailable FailureKind = "provider_unavailable"
	// EmptyInput is a caller error; never retried.
	EmptyInput FailureKind = "empty_input"
	// MalformedResponse covers undecodable or dimensionally inconsistent
	// provider responses; retried once, then surfaced.
	MalformedResponse FailureKind = "malformed_response"
)

type GatewayError struct {
	Kind   FailureKind
	reason error
}

func (e *GatewayError) Error() string {
	if e.reason == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.reason)
}

func (e *GatewayError) Unwrap() error {
	return e.reason
}

func newGatewayError(kind FailureKind, reason error) *GatewayError {
	return &GatewayError{Kind: kind, reason: reason}
}

// KindOf extracts the failure kind from an error chain; unknown errors are
// treated as provider unavailability so callers err on the retryable side.
func KindOf(err error) FailureKind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ProviderUnavailable
}

func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
