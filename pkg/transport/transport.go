// ABOUTME: Transport interface definition
// ABOUTME: Common contract for hardware and software transfer backends
package transport

import (
	"errors"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

// CompleteFunc is invoked exactly once per submitted buffer, possibly
// from the transport's own goroutine. Implementations of the sink side
// must not block inside it.
type CompleteFunc func(buf *audio.Buffer, err error)

// Transport moves PCM buffers to an output device. Submissions are
// asynchronous: Submit returns as soon as the transfer is accepted and
// the completion callback fires when it finishes. Completions are
// delivered in submission order.
type Transport interface {
	// Open prepares the transport for the given stream format
	Open(format audio.Format) error

	// Submit starts transferring a buffer. The timeout bounds how long
	// the transfer may reasonably take; backends may use it to detect
	// a stalled device.
	Submit(buf *audio.Buffer, complete CompleteFunc, timeout time.Duration) error

	// Close tears the transport down
	Close() error
}

var (
	ErrNotOpen   = errors.New("transport: not opened")
	ErrQueueFull = errors.New("transport: submission queue full")
	ErrTimedOut  = errors.New("transport: transfer timed out")
)
