// ABOUTME: Sentinel errors for the sink public API
// ABOUTME: Maps session and start failures to distinct error values
package sink

import "errors"

var (
	// ErrBusy is returned by Reserve when a session is already held
	ErrBusy = errors.New("sink: session already reserved")

	// ErrNotReserved is returned by operations that need a session
	ErrNotReserved = errors.New("sink: no session reserved")

	// ErrUnsupportedFormat is returned by Configure for formats the
	// sink cannot drive; the session state is left unchanged
	ErrUnsupportedFormat = errors.New("sink: unsupported stream format")

	// ErrResourceExhausted is returned by Start when the worker
	// message channel cannot be allocated; the session remains
	// reservable and Start may be retried
	ErrResourceExhausted = errors.New("sink: message channel allocation failed")

	// ErrQueueFull is returned by Enqueue when the worker message
	// channel is saturated; the buffer itself is queued
	ErrQueueFull = errors.New("sink: worker message channel full")
)
