package main

import (
	"errors"
	"net/http"
)

var (
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrValidationFailure    = errors.New("validation failure")
	ErrUpstreamFetch        = errors.New("upstream fetch failure")
	ErrMalformedIdentifier  = errors.New("malformed content identifier")
	ErrMalformedTokenID     = errors.New("malformed token id")
	ErrSigningFailure       = errors.New("signing failure")
	ErrUnauthorizedRequest  = errors.New("unauthorized request")
)

// StatusForError maps an issuance error onto the status code returned to clients. Clients
// only ever see a generic body; the error itself goes to the log.
func StatusForError(err error) int {
	if errors.Is(err, ErrConfigurationMissing) {
		return http.StatusInternalServerError
	}
	return http.StatusServiceUnavailable
}
