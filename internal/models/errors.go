package models

import "errors"

// Workflow error taxonomy. Validation failures are synchronous and leave all
// entities unchanged; callers surface a message and may retry with corrected
// input. ErrExternalUnavailable marks collaborator failures and is the only
// retryable class.
var (
	ErrNotFound            = errors.New("not found")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidTime         = errors.New("invalid time")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrExternalUnavailable = errors.New("external collaborator unavailable")
)
