package artifacts

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned when artifact support is disabled for the
// whole process, as opposed to a specific account or artifact being missing.
var ErrNotConfigured = errors.New(
	"artifacts have not been enabled; configure accounts in the artifacts " +
		"configuration file to enable them",
)

// CredentialNotFoundError is returned when no credential matches a requested
// type and name.
type CredentialNotFoundError struct {
	Type string
	Name string
}

func (e *CredentialNotFoundError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("no credentials with name %q could be found", e.Name)
	}
	return fmt.Sprintf(
		"no credentials of type %q with name %q could be found",
		e.Type,
		e.Name,
	)
}

// UnsupportedTypeError is returned when a type has no registered handler.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("artifacts of type %q are not supported", e.Type)
}

// IndexUnavailableError is returned when an index document cannot be fetched.
type IndexUnavailableError struct {
	Account string
	Err     error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("index for account %q is unavailable: %v", e.Account, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error {
	return e.Err
}

// IndexParseError is returned when an index document is structurally
// unreadable.
type IndexParseError struct {
	Err error
}

func (e *IndexParseError) Error() string {
	return fmt.Sprintf("error parsing index: %v", e.Err)
}

func (e *IndexParseError) Unwrap() error {
	return e.Err
}

// TransportError is returned when fetching artifact bytes fails. StatusCode is
// zero when no response was received at all.
type TransportError struct {
	Location   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf(
			"error fetching %s: received HTTP %d: %v",
			e.Location,
			e.StatusCode,
			e.Err,
		)
	case e.Err != nil:
		return fmt.Sprintf("error fetching %s: %v", e.Location, e.Err)
	default:
		return fmt.Sprintf(
			"error fetching %s: received unexpected HTTP %d",
			e.Location,
			e.StatusCode,
		)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFound returns true if the remote source reported the artifact as missing.
func (e *TransportError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ArtifactNotFoundError is returned when a source is reachable, but does not
// know the referenced artifact.
type ArtifactNotFoundError struct {
	Account   string
	Reference Reference
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf(
		"artifact %s not found using credentials %q",
		e.Reference.String(),
		e.Account,
	)
}

// InvalidReferenceError is returned when a reference is malformed or lacks a
// field the credential handling it depends on.
type InvalidReferenceError struct {
	Type string
	Err  error
}

func (e *InvalidReferenceError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("invalid artifact reference: %v", e.Err)
	}
	return fmt.Sprintf("invalid %s artifact reference: %v", e.Type, e.Err)
}

func (e *InvalidReferenceError) Unwrap() error {
	return e.Err
}

// ResolutionNotFoundError is what the Resolver reports for any failure to
// resolve names or versions for an account. The underlying cause is kept for
// logging, but is not part of the message.
type ResolutionNotFoundError struct {
	Account string
	What    string
	Err     error
}

func (e *ResolutionNotFoundError) Error() string {
	return fmt.Sprintf("failed to resolve %s for %s account", e.What, e.Account)
}

func (e *ResolutionNotFoundError) Unwrap() error {
	return e.Err
}

// IsNotConfigured returns true if err is, or wraps, ErrNotConfigured.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsNotFound returns true if err is, or wraps, an error indicating that a
// credential, an artifact or a resolution target does not exist.
func IsNotFound(err error) bool {
	var credErr *CredentialNotFoundError
	var resErr *ResolutionNotFoundError
	var artifactErr *ArtifactNotFoundError
	var transportErr *TransportError
	return errors.As(err, &credErr) ||
		errors.As(err, &resErr) ||
		errors.As(err, &artifactErr) ||
		(errors.As(err, &transportErr) && transportErr.NotFound())
}

// IsUnsupportedType returns true if err is, or wraps, an *UnsupportedTypeError.
func IsUnsupportedType(err error) bool {
	var typeErr *UnsupportedTypeError
	return errors.As(err, &typeErr)
}

// IsInvalidReference returns true if err is, or wraps, an
// *InvalidReferenceError.
func IsInvalidReference(err error) bool {
	var refErr *InvalidReferenceError
	return errors.As(err, &refErr)
}
