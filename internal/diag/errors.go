package diag

import (
	"errors"
	"fmt"
)

// ErrNoLocations signals a sitemap that parsed but listed no <loc> entries.
// It ends the run without being treated as a failure.
var ErrNoLocations = errors.New("no location found in the sitemap")

// ErrBodyTruncated reports a response body cut off at the configured size cap.
var ErrBodyTruncated = errors.New("response body truncated")

// FetchError wraps any failure to retrieve or parse the sitemap document.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cannot fetch sitemap %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ProbeError wraps a transport failure that aborted probing.
type ProbeError struct {
	URL    string
	Method string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
