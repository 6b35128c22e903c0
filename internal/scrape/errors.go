package scrape

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed user input. It is always fatal and
// is surfaced before any network activity.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid website URL %q: %s", e.Input, e.Reason)
}

// FetchErrorKind classifies why a page fetch failed.
type FetchErrorKind string

const (
	// FetchErrNetwork covers DNS, connection and transport failures.
	FetchErrNetwork FetchErrorKind = "network"
	// FetchErrTimeout means the fetch exceeded its deadline.
	FetchErrTimeout FetchErrorKind = "timeout"
	// FetchErrStatus means the server answered with a non-2xx status.
	FetchErrStatus FetchErrorKind = "status"
	// FetchErrContentType means the response was not an HTML document.
	FetchErrContentType FetchErrorKind = "content_type"
)

// FetchError reports a failed page fetch. It is fatal for the seed
// page; the orchestrator absorbs it for secondary pages.
type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int // set when Kind == FetchErrStatus
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchErrStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	case FetchErrTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.URL)
	case FetchErrContentType:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is a user-input validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsFetchError reports whether err is a page fetch failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
