// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a user or track id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means a required store could not serve the call.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrExternalService means the external catalog failed. The engine only
	// ever logs it.
	ErrExternalService = errors.New("external service error")

	// ErrValidation means caller input was rejected.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsRecoverable reports whether the composer may substitute the popularity
// fallback for err. Missing ids and bad input always reach the caller.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrValidation)
}
