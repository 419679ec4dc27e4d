// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package kitsu

import (
	"errors"
	"fmt"
)

// ErrLogin marks authentication failures against the Kitsu server.
// Callers can test for it with errors.Is regardless of the wrapped cause.
var ErrLogin = errors.New("kitsu login failed")

// LoginError wraps a login failure with its reason. It satisfies
// errors.Is(err, ErrLogin).
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not login to Kitsu (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("could not login to Kitsu (%s)", e.Reason)
}

func (e *LoginError) Unwrap() error { return e.Err }

// Is reports whether target matches the login sentinel.
func (e *LoginError) Is(target error) bool { return target == ErrLogin }

// APIError is a non-2xx response from the Kitsu API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kitsu API %s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
