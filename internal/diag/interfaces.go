package diag

import (
	"context"
	"time"
)

// Fetcher issues a single HTTP request. Errors are reserved for transport
// failures and cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// ProbeObserver receives one callback per HTTP request made while probing.
// A zero status means the request failed before a response arrived.
type ProbeObserver interface {
	ObserveProbe(method string, statusCode int, duration time.Duration)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// RunIDGenerator produces the identifier attached to every log line of a run.
type RunIDGenerator interface {
	NewID() (string, error)
}
