package models

import (
	"errors"
	"fmt"
)

// Expected, non-fatal business conditions. Logged at info level; the
// polling cycle continues with the next asset.
var (
	ErrCooldownActive   = errors.New("trade execution cooldown in effect")
	ErrConflictingOrder = errors.New("active order exists for this asset")
)

// ErrInvalidExecutionParams aborts a trade before any order state is
// created. Never retried.
var ErrInvalidExecutionParams = errors.New("invalid execution parameters")

// ValidationError reports a value outside its documented range, e.g. a
// confidence outside [0,1]. It is surfaced immediately and aborts the
// current asset's cycle only.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// TransientError wraps a rate-limit or network failure from the
// upstream data source. Callers retry with bounded backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient upstream failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
