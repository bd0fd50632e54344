package launchpad

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when an entry or named lookup does not exist.
	ErrNotFound = errors.New("launchpad: not found")
	// ErrUnauthorized is returned when Launchpad rejects the cached credentials.
	ErrUnauthorized = errors.New("launchpad: unauthorized")
	// ErrCredentialsMissing is returned when no access token has been cached yet.
	ErrCredentialsMissing = errors.New("launchpad credentials not found; run 'lpupload login'")
	// ErrAuthorizationPending is returned while a request token awaits browser approval.
	ErrAuthorizationPending = errors.New("launchpad: request token not yet reviewed")
	// ErrAuthorizationDeclined is returned when the user declines the request token.
	ErrAuthorizationDeclined = errors.New("launchpad: access was declined")
)

// APIError describes an unexpected HTTP status from Launchpad.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("launchpad %s %s returned %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("launchpad %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is lets errors.Is match 404 and 401 responses against ErrNotFound and
// ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	default:
		return false
	}
}
