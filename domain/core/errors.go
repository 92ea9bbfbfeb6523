package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrCaseNotFound   = fmt.Errorf("%w: case", ErrNotFound)
	ErrPolicyNotFound = fmt.Errorf("%w: policy", ErrNotFound)
	ErrRunNotFound    = fmt.Errorf("%w: run", ErrNotFound)

	// Configuration errors - structurally invalid input, evaluation must not start
	ErrMalformedContract = errors.New("malformed contract")
	ErrMalformedPolicy   = errors.New("malformed policy")
	ErrNoPrimaryMetric   = fmt.Errorf("%w: no primary metric name resolvable from contract or policy", ErrMalformedContract)

	// Data errors
	ErrMalformedData = errors.New("malformed data table")
	ErrEmptyTable    = fmt.Errorf("%w: no rows", ErrMalformedData)
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewContractError(field string, reason string) error {
	return fmt.Errorf("%w: field %s: %s", ErrMalformedContract, field, reason)
}

func NewPolicyError(field string, reason string) error {
	return fmt.Errorf("%w: field %s: %s", ErrMalformedPolicy, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrMalformedContract) || errors.Is(err, ErrMalformedPolicy)
}
