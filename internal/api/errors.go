// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/validation"
)

// errorResponse maps err to a status code and error body.
func errorResponse(err error) (int, *APIError) {
	var reqErr *validation.RequestValidationError
	if errors.As(err, &reqErr) {
		v := reqErr.ToAPIError()
		return http.StatusBadRequest, &APIError{Code: v.Code, Message: v.Message, Details: v.Details}
	}

	var fieldErr *recommend.ValidationError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, &APIError{
			Code:    ErrCodeValidation,
			Message: fieldErr.Error(),
			Details: map[string]interface{}{"field": fieldErr.Field},
		}
	}

	switch {
	case errors.Is(err, recommend.ErrValidation):
		return http.StatusBadRequest, &APIError{Code: ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, recommend.ErrNotFound):
		return http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: notFoundMessage(err)}
	case errors.Is(err, recommend.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, &APIError{
			Code:    ErrCodeServiceUnavailable,
			Message: "Storage is temporarily unavailable",
		}
	default:
		return http.StatusInternalServerError, &APIError{
			Code:    ErrCodeInternal,
			Message: "An internal error occurred",
		}
	}
}

// notFoundMessage keeps the part of a wrapped not-found error that names
// the missing resource ("track t1", "profile alice").
func notFoundMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+recommend.ErrNotFound.Error()); i >= 0 {
		msg = msg[:i]
		if j := strings.LastIndex(msg, ": "); j >= 0 {
			msg = msg[j+2:]
		}
		return msg + " not found"
	}
	return "Resource not found"
}

// respondError writes the mapped error and logs server-side failures.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("code", apiErr.Code).
			Str("path", r.URL.Path).
			Msg("API error")
	}
	respondErrorBody(w, r, status, apiErr)
}
