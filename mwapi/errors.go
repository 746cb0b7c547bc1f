package mwapi

import (
	"errors"
	"fmt"
)

// APIError is returned when the remote API reports an error object in an
// otherwise well-formed response body.
type APIError struct {
	Code       string
	Info       string
	HTTPStatus int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("MediaWiki API error: %s - %s", e.Code, e.Info)
}

// AsAPIError reports whether err is (or wraps) an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AuthError is returned when the remote login step reports anything other
// than Success.
type AuthError struct {
	Result string
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("login failed: %s (%s)", e.Result, e.Reason)
	}
	return fmt.Sprintf("login failed: %s", e.Result)
}

// AsAuthError reports whether err is (or wraps) an *AuthError.
func AsAuthError(err error) (*AuthError, bool) {
	var e *AuthError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
