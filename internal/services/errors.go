// Package services defines the business logic for bulk check-in sync and
// attendance queries. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// Request-level errors: these fail the whole batch before any record is
// touched.
var (
	// ErrNoCheckIns is returned when a bulk request carries an empty batch.
	ErrNoCheckIns = errors.New("no check-ins provided")

	// ErrBatchTooLarge is returned when a bulk request exceeds the configured
	// maximum batch size.
	ErrBatchTooLarge = errors.New("too many check-ins in one request")

	// ErrInvalidPolicy is returned when the conflict-resolution value is not
	// one of the supported policies.
	ErrInvalidPolicy = errors.New("unknown conflict resolution policy")

	// ErrChurchAccessDenied is returned when a non-super-admin references a
	// service belonging to another church.
	ErrChurchAccessDenied = errors.New("access denied to services in other churches")

	// ErrServiceNotFound indicates that the requested service does not exist
	// within the caller's tenant.
	ErrServiceNotFound = errors.New("service not found")
)

// ServicesNotFoundError reports the referenced service ids that have no
// matching record within the caller's tenant. The whole request fails before
// any mutation when this is returned.
type ServicesNotFoundError struct {
	IDs []string
}

// Error implements the error interface.
func (e *ServicesNotFoundError) Error() string {
	return fmt.Sprintf("services not found: %s", strings.Join(e.IDs, ", "))
}
