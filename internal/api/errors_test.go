// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/cadence/internal/recommend"
)

func TestNotFoundMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("track t1: %w", recommend.ErrNotFound), "track t1 not found"},
		{fmt.Errorf("load seed track: track t1: %w", recommend.ErrNotFound), "track t1 not found"},
		{recommend.ErrNotFound, "Resource not found"},
		{fmt.Errorf("profile alice: %w", recommend.ErrNotFound), "profile alice not found"},
	}
	for _, tt := range tests {
		if got := notFoundMessage(tt.err); got != tt.want {
			t.Errorf("notFoundMessage(%q) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"field validation", &recommend.ValidationError{Field: "limit", Message: "must be positive"}, http.StatusBadRequest, ErrCodeValidation},
		{"wrapped validation", fmt.Errorf("rate: %w", recommend.ErrValidation), http.StatusBadRequest, ErrCodeValidation},
		{"not found", fmt.Errorf("track x: %w", recommend.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"store down", fmt.Errorf("find: %w", recommend.ErrStoreUnavailable), http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"external", fmt.Errorf("catalog: %w", recommend.ErrExternalService), http.StatusInternalServerError, ErrCodeInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, apiErr := errorResponse(tt.err)
			if status != tt.wantStatus || apiErr.Code != tt.wantCode {
				t.Errorf("errorResponse() = %d %s, want %d %s", status, apiErr.Code, tt.wantStatus, tt.wantCode)
			}
			if status >= http.StatusInternalServerError && apiErr.Message == tt.err.Error() {
				t.Errorf("internal error leaked: %q", apiErr.Message)
			}
		})
	}
}
