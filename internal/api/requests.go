// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// RateRequest is the body of POST /users/{userID}/ratings.
type RateRequest struct {
	TrackID string `json:"track_id" validate:"required,identifier"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Context string `json:"context" validate:"omitempty,listening_context"`
}

// pageQuery holds the shared limit/offset parameters.
type pageQuery struct {
	Limit  int `json:"limit" validate:"gte=0,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// userQuery validates a user id taken from the path or query string.
type userQuery struct {
	UserID  string `json:"user_id" validate:"required,identifier"`
	Context string `json:"context" validate:"omitempty,listening_context"`
}

// trackQuery validates a track id taken from the path.
type trackQuery struct {
	TrackID string `json:"track_id" validate:"required,identifier"`
}

func validate(v interface{}) error {
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}

// queryInt parses an optional integer parameter.
func queryInt(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &recommend.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

// queryBool parses an optional boolean parameter.
func queryBool(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &recommend.ValidationError{Field: name, Message: "must be true or false"}
	}
	return b, nil
}

func parsePage(q url.Values) (pageQuery, error) {
	var p pageQuery
	var err error
	if p.Limit, err = queryInt(q, "limit", 0); err != nil {
		return p, err
	}
	if p.Offset, err = queryInt(q, "offset", 0); err != nil {
		return p, err
	}
	return p, validate(&p)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &recommend.ValidationError{Field: "body", Message: "is required"}
		case errors.As(err, &maxErr):
			return &recommend.ValidationError{Field: "body", Message: fmt.Sprintf("must be at most %d bytes", maxErr.Limit)}
		default:
			return &recommend.ValidationError{Field: "body", Message: "is not valid JSON: " + err.Error()}
		}
	}
	if dec.More() {
		return &recommend.ValidationError{Field: "body", Message: "must contain a single JSON object"}
	}
	return nil
}
