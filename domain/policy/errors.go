package policy

import "errors"

// Policy errors.
var (
	// ErrLimitInvalid indicates a non-positive resource limit.
	ErrLimitInvalid = errors.New("invalid resource limit")

	// ErrLimitExceedsCeiling indicates a configured limit above an
	// immutable hard ceiling.
	ErrLimitExceedsCeiling = errors.New("resource limit exceeds hard ceiling")
)
