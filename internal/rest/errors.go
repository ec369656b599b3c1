package rest

import (
	"errors"
	"fmt"
)

// Sentinel errors for REST operations.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, rest.ErrStatus) {
//	    // endpoint answered with a non-2xx status
//	}
var (
	// ErrStatus indicates the endpoint answered with a non-2xx status.
	ErrStatus = errors.New("rest: unexpected status")

	// ErrPollerRunning indicates Start was called on a running poller.
	ErrPollerRunning = errors.New("rest: poller already running")

	// ErrDuplicateSource indicates two sources share a name.
	ErrDuplicateSource = errors.New("rest: duplicate source name")
)

// TransportError is returned by Client.Fetch once every attempt has failed.
// It wraps the error of the last attempt.
type TransportError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rest: fetching %s failed after %d attempt(s): %v", e.Source, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
