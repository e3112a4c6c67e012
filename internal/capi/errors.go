package capi

import (
	"errors"
	"fmt"
)

// Dispatch failure taxonomy. Every one of these is absorbed before the UI
// caller: the interaction path never sees a tracking error.
var (
	// ErrNotConfigured: pixel id or access credential missing. Fail closed,
	// no network call.
	ErrNotConfigured = errors.New("conversions api not configured")

	// ErrConsentDenied: the visitor has not accepted tracking consent.
	ErrConsentDenied = errors.New("tracking consent not granted")

	// ErrDuplicate: this (kind, discriminator) pair was already dispatched in
	// the current session. Not a real failure.
	ErrDuplicate = errors.New("event already dispatched this session")

	// ErrNoIdentitySignal: no fbp/fbc/hashed email/hashed phone/user agent
	// available; the platform would drop the event anyway.
	ErrNoIdentitySignal = errors.New("no usable identity signal")
)

// TransientError wraps a timeout, connection failure, or 5xx. Not retried:
// duplicate conversion counts are worse than occasional drops.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient relay failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ConfigRejection wraps an HTTP 4xx from the platform: bad credential or
// account id. Logged server-side only.
type ConfigRejection struct {
	Status   int
	Platform *PlatformError
}

func (e *ConfigRejection) Error() string {
	if e.Platform != nil {
		return fmt.Sprintf("relay rejected with status %d: %s", e.Status, e.Platform.Message)
	}
	return fmt.Sprintf("relay rejected with status %d", e.Status)
}
