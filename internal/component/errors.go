package component

import (
	"errors"
	"fmt"
)

// NamedRegistrationNotFoundError is returned by a NameBasedRegistry when no
// registration with the requested name exists.
type NamedRegistrationNotFoundError struct {
	Name string
}

func (e NamedRegistrationNotFoundError) Error() string {
	return fmt.Sprintf("registration with name %s not found", e.Name)
}

// RegistrationNotFoundError is returned by a PredicateBasedRegistry when no
// registration's predicate matches.
type RegistrationNotFoundError struct{}

func (e RegistrationNotFoundError) Error() string {
	return "no matching registration found"
}

// IsNotFoundError returns true if err is, or wraps, either of the not found
// error types defined in this package.
func IsNotFoundError(err error) bool {
	return errors.As(err, &NamedRegistrationNotFoundError{}) ||
		errors.As(err, &RegistrationNotFoundError{})
}
