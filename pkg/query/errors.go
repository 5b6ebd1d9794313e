package query

import "errors"

// Builder validation errors.
var (
	// ErrInvalidArgument reports out-of-range pagination parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidSpecification reports a malformed predicate: empty field
	// name, unknown operator, or a missing value set for IN/NOT IN.
	ErrInvalidSpecification = errors.New("invalid specification")
)
