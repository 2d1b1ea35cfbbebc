package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for failures that carry no provider detail.
var (
	// ErrUnauthorized is returned when the request carries no identity.
	ErrUnauthorized = errors.New("no identity on request")

	// ErrInvalidInput is returned for a missing or malformed prompt.
	ErrInvalidInput = errors.New("missing or malformed prompt")

	// ErrForbidden is returned when the access policy denies the caller.
	ErrForbidden = errors.New("assistant access denied by policy")

	// ErrTimeout is returned when the poll budget is exhausted without a
	// terminal job status. The abandoned job is cancelled by the next turn.
	ErrTimeout = errors.New("inference job did not finish in time")

	// ErrSuperseded is returned when a later turn on the same thread
	// cancelled this call's job before it completed.
	ErrSuperseded = errors.New("job superseded by a newer turn")
)

// ProvisioningError reports a failure to create the session, thread or
// assistant persona. Fatal for the call; never retried here.
type ProvisioningError struct {
	Op  string
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Op, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// TransportError wraps any transport-level failure talking to the
// inference provider, preserving the original message for diagnostics.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference transport error in %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RunStartError reports that a job could not be started after a clean admit.
type RunStartError struct {
	ThreadID string
	Err      error
}

func (e *RunStartError) Error() string {
	return fmt.Sprintf("failed to start job on thread %s: %v", e.ThreadID, e.Err)
}

func (e *RunStartError) Unwrap() error {
	return e.Err
}

// RunError reports a job that reached failed, expired or requires_action,
// carrying the provider's reported detail.
type RunError struct {
	Status JobStatus
	Detail string
}

func (e *RunError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("job ended with status %s", e.Status)
	}
	return fmt.Sprintf("job ended with status %s: %s", e.Status, e.Detail)
}
