// ABOUTME: In-memory loopback transport
// ABOUTME: Consumes buffers without a device, optionally paced to real time
package transport

import (
	"sync"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

const loopbackQueueDepth = 64

// LoopbackConfig controls loopback behavior
type LoopbackConfig struct {
	// Realtime paces each transfer to the play time of its data.
	// When false, transfers complete as fast as the queue drains.
	Realtime bool
}

type loopbackJob struct {
	buf      *audio.Buffer
	complete CompleteFunc
	timeout  time.Duration
}

// Loopback is a transport with no device behind it. A single drain
// goroutine completes submissions in order, which makes it useful for
// tests and for running the pipeline headless.
type Loopback struct {
	config LoopbackConfig

	mu     sync.Mutex
	format audio.Format
	jobs   chan loopbackJob
	done   chan struct{}
}

// NewLoopback creates a loopback transport
func NewLoopback(config LoopbackConfig) *Loopback {
	return &Loopback{config: config}
}

// Open starts the drain goroutine for the given format
func (l *Loopback) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.format = format
	if l.jobs == nil {
		l.jobs = make(chan loopbackJob, loopbackQueueDepth)
		l.done = make(chan struct{})
		go l.drain()
	}
	return nil
}

// Submit queues a buffer for completion
func (l *Loopback) Submit(buf *audio.Buffer, complete CompleteFunc, timeout time.Duration) error {
	// Held across the send so Close cannot close the channel under us
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jobs == nil {
		return ErrNotOpen
	}

	select {
	case l.jobs <- loopbackJob{buf: buf, complete: complete, timeout: timeout}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the drain goroutine. Buffers already accepted complete
// before Close returns.
func (l *Loopback) Close() error {
	l.mu.Lock()
	jobs, done := l.jobs, l.done
	l.jobs = nil
	l.mu.Unlock()

	if jobs != nil {
		close(jobs)
		<-done
	}
	return nil
}

func (l *Loopback) drain() {
	defer close(l.done)

	for job := range l.jobs {
		if l.config.Realtime {
			l.mu.Lock()
			d := l.format.Duration(job.buf.Remaining())
			l.mu.Unlock()

			if job.timeout > 0 && d > job.timeout {
				job.buf.Cursor = len(job.buf.Data)
				job.complete(job.buf, ErrTimedOut)
				continue
			}
			time.Sleep(d)
		}

		job.buf.Cursor = len(job.buf.Data)
		job.complete(job.buf, nil)
	}
}
