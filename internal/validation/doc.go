// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the HTTP handlers. It caches
// struct metadata, reports fields by their JSON names and adds the
// listening_context and identifier tags. Failures come back as
// *RequestValidationError, which unwraps to recommend.ErrValidation and
// renders as a VALIDATION_ERROR API response.
//
// Example usage:
//
//	type rateRequest struct {
//	    TrackID string `json:"track_id" validate:"required,identifier"`
//	    Rating  int    `json:"rating" validate:"min=1,max=5"`
//	    Context string `json:"context" validate:"omitempty,listening_context"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation
