package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds for the journal API. Callers branch on these with errors.Is;
// the concrete *StatusError carries the raw status and body when one exists.
var (
	// ErrUnreachable means no response was received at all.
	ErrUnreachable = errors.New("server unreachable")
	// ErrUnauthorized is a 401: credential missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is a 404: resource or endpoint missing.
	ErrNotFound = errors.New("not found")
	// ErrValidation is a 400/422: the server rejected the input.
	ErrValidation = errors.New("invalid request")
	// ErrConflict is a 409: duplicate resource.
	ErrConflict = errors.New("conflict")
	// ErrServer is any 5xx.
	ErrServer = errors.New("server error")
	// ErrSessionExpired means a 401 was received and the automatic credential
	// refresh failed; the local session has been cleared.
	ErrSessionExpired = errors.New("session expired, please login again")
)

// StatusError is an HTTP error response mapped onto the error taxonomy.
type StatusError struct {
	Status int
	Body   string
	kind   error
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// newStatusError classifies an HTTP error status into the taxonomy.
func newStatusError(status int, body string) *StatusError {
	var kind error
	switch {
	case status == http.StatusUnauthorized:
		kind = ErrUnauthorized
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusConflict:
		kind = ErrConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = ErrValidation
	case status >= 500:
		kind = ErrServer
	default:
		kind = fmt.Errorf("unexpected status %d", status)
	}
	return &StatusError{Status: status, Body: body, kind: kind}
}
