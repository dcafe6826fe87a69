package apperrors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPreconditionFailed marks a state transition attempted from the
	// wrong current state (e.g. publishing a revision that is not reviewed).
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrEngineContract marks a translation engine returning a result set
	// that cannot be correlated to its input batch.
	ErrEngineContract = errors.New("engine contract violation")
)
