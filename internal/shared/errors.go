package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Domain errors, surfaced to clients with the wrapped message
	ErrValidation = fmt.Errorf("validation failed")
	ErrConflict   = fmt.Errorf("conflict")
	ErrNotFound   = fmt.Errorf("not found")
	ErrAuth       = fmt.Errorf("authentication failed")
	ErrForbidden  = fmt.Errorf("forbidden")
	ErrUpstream   = fmt.Errorf("upstream request failed")

	// Session errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("session token expired")

	// API and service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

var kinds = []error{ErrValidation, ErrConflict, ErrNotFound, ErrAuth, ErrForbidden, ErrUpstream, ErrNotAuthenticated, ErrTokenExpired}

// Message returns the human readable part of an error wrapped as "%w: message".
//
// Errors that are not wrapped with one of the domain sentinels are returned unchanged.
func Message(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, kind := range kinds {
		if !errors.Is(err, kind) {
			continue
		}
		if trimmed, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
			return trimmed
		}
		return msg
	}
	return msg
}
