package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps network and protocol level failures, it is never retried.
	ErrTransport = errors.New("portal: transport error")

	ErrNotAuthenticated       = errors.New("portal: not logged in")
	ErrReauthFailed           = errors.New("portal: could not log in again after session expired")
	ErrCredentialsMissing     = errors.New("portal: no credentials given or remembered")
	ErrAmbiguousLoginResponse = errors.New("portal: login response did not indicate success or failure")

	ErrInvalidCategory = errors.New("portal: invalid event category")

	// ErrMalformedRow means the markup of a page did not match what an extractor
	// expects, most likely because the portal changed its pages.
	ErrMalformedRow = errors.New("portal: malformed row")

	ErrSignupNotFound   = errors.New("portal: not signed up for this event")
	ErrCapacityExceeded = errors.New("portal: event is full or signup has closed")
	ErrSignupRejected   = errors.New("portal: signup was rejected")
	ErrAlreadySignedUp  = errors.New("portal: already signed up for this event")
)

// errSessionExpired is raised by an attempt when the response says the session
// is gone, only withReauth handles it.
var errSessionExpired = errors.New("portal: session expired")

// MalformedRowError describes which part of which page failed to extract.
// errors.Is(err, ErrMalformedRow) holds for every MalformedRowError.
type MalformedRowError struct {
	Page  string
	Row   int
	Field string
	Value string
	Err   error
}

func (e *MalformedRowError) Error() string {
	msg := fmt.Sprintf("%s: %s row %d: field %s", ErrMalformedRow.Error(), e.Page, e.Row, e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" (%q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}

func transportError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
