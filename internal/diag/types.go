package diag

import (
	"fmt"
	"net/http"
	"time"
)

// Kind identifies which variant a Problem holds.
type Kind string

// Problem kinds reported by the pipeline.
const (
	KindDuplicate   Kind = "duplicate"
	KindStatusCode  Kind = "status_code"
	KindProbeFailed Kind = "probe_failed"
)

// Problem is a single finding about a sitemap. Only the fields relevant to
// Kind are populated.
type Problem struct {
	Kind       Kind   `json:"kind"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Cause      string `json:"cause,omitempty"`
}

// Duplicate reports a repeated sitemap location.
func Duplicate(url string) Problem {
	return Problem{Kind: KindDuplicate, URL: url}
}

// StatusCodeIssue reports a location that did not answer with 200.
func StatusCodeIssue(code int, url string) Problem {
	return Problem{Kind: KindStatusCode, URL: url, StatusCode: code}
}

// ProbeFailed reports a location whose probe never produced a response.
func ProbeFailed(url string, err error) Problem {
	cause := "unknown error"
	if err != nil {
		cause = err.Error()
	}
	return Problem{Kind: KindProbeFailed, URL: url, Cause: cause}
}

// String renders the problem in the report line format consumed by existing
// tooling. The spelling of "Dublicated" is part of that format.
func (p Problem) String() string {
	switch p.Kind {
	case KindDuplicate:
		return fmt.Sprintf("Dublicated Url: %s", p.URL)
	case KindStatusCode:
		return fmt.Sprintf("Status Code: %d Url:%s", p.StatusCode, p.URL)
	case KindProbeFailed:
		return fmt.Sprintf("Probe Failed: %s Url:%s", p.Cause, p.URL)
	default:
		return fmt.Sprintf("Unknown Problem: %s Url:%s", p.Kind, p.URL)
	}
}

// FetchRequest captures everything needed to issue one HTTP request.
type FetchRequest struct {
	Method  string
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation. Non-2xx
// statuses are returned as responses, not errors.
type FetchResponse struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	// Truncated is set when Body filled the fetcher's size cap, so content
	// past the cap may be missing.
	Truncated bool
	Duration  time.Duration
}

// ContentType returns the response Content-Type header, if any.
func (r FetchResponse) ContentType() string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}
