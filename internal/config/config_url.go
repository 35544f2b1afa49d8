// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	httpSchemes = []string{"http", "https"}
	natsSchemes = []string{"nats", "tls", "ws", "wss"}
)

// parseServiceURL parses raw and checks its scheme and host.
func parseServiceURL(raw string, schemes []string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	known := false
	for _, s := range schemes {
		if u.Scheme == s {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("scheme must be one of %s, got %q", strings.Join(schemes, ", "), u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	return u, nil
}

// validateHTTPURL accepts an http(s) base URL: no path beyond "/" and no
// query string, since request paths are appended to it.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := parseServiceURL(rawURL, httpSchemes)
	if err != nil {
		return fmt.Errorf("%s: %w", fieldName, err)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}

// validateTokenURL accepts an OAuth2 token endpoint, path included.
func validateTokenURL(rawURL string) error {
	_, err := parseServiceURL(rawURL, httpSchemes)
	return err
}

// validateNATSURL accepts nats://, tls://, ws:// and wss:// server URLs.
func validateNATSURL(rawURL string) error {
	_, err := parseServiceURL(rawURL, natsSchemes)
	return err
}
