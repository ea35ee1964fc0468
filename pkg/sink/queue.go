// ABOUTME: Pending/done buffer queues with in-flight accounting
// ABOUTME: Pending under a blocking mutex, done and inflight under a spin lock
package sink

import (
	"container/list"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

// spinLock is a test-and-set lock for state shared with the transport
// completion callback, which must never sleep. Critical sections under
// it are a few list operations at most.
type spinLock struct {
	held atomic.Bool
}

func (l *spinLock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (l *spinLock) Unlock() {
	l.held.Store(false)
}

// bufferQueue holds buffers awaiting transfer and buffers awaiting
// return to the producer. A buffer lives in exactly one of pending,
// in-flight (counted only), or done at any time.
//
// pending is guarded by pendMu, which may be held across enqueue logic.
// done and inflight are guarded by the spin lock so the completion
// callback can take it without blocking.
type bufferQueue struct {
	pendMu  sync.Mutex
	pending *list.List

	lock     spinLock
	done     *list.List
	inflight int
}

func newBufferQueue() *bufferQueue {
	return &bufferQueue{
		pending: list.New(),
		done:    list.New(),
	}
}

// enqueue appends a buffer to the tail of pending, taking a reference
// on behalf of the queue.
func (q *bufferQueue) enqueue(buf *audio.Buffer) {
	buf.Retain()
	buf.SetFlag(audio.FlagEnqueued)

	q.pendMu.Lock()
	q.pending.PushBack(buf)
	q.pendMu.Unlock()
}

// takeNext removes and returns the head of pending
func (q *bufferQueue) takeNext() (*audio.Buffer, bool) {
	q.pendMu.Lock()
	defer q.pendMu.Unlock()

	front := q.pending.Front()
	if front == nil {
		return nil, false
	}
	q.pending.Remove(front)
	return front.Value.(*audio.Buffer), true
}

// requeue puts a buffer whose submission failed back at the head of
// pending and drops its in-flight slot, so the next push retries it.
func (q *bufferQueue) requeue(buf *audio.Buffer) {
	q.lock.Lock()
	q.inflight--
	q.lock.Unlock()

	q.pendMu.Lock()
	q.pending.PushFront(buf)
	q.pendMu.Unlock()
}

// addInFlight reserves an in-flight slot before submission so a fast
// completion cannot race the count negative.
func (q *bufferQueue) addInFlight() {
	q.lock.Lock()
	q.inflight++
	q.lock.Unlock()
}

// inflightCount returns the number of buffers at the transport
func (q *bufferQueue) inflightCount() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.inflight
}

// completeOne moves an in-flight buffer to the tail of done, recording
// the transfer result on the buffer. Safe to call from the completion
// callback: it takes only the spin lock.
func (q *bufferQueue) completeOne(buf *audio.Buffer, result error) {
	buf.Result = result

	q.lock.Lock()
	q.done.PushBack(buf)
	q.inflight--
	q.lock.Unlock()
}

// popDone removes and returns the head of done
func (q *bufferQueue) popDone() (*audio.Buffer, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()

	front := q.done.Front()
	if front == nil {
		return nil, false
	}
	q.done.Remove(front)
	return front.Value.(*audio.Buffer), true
}

// drainPending empties pending and returns the removed buffers, used
// when stopping a stream that still has untransferred data.
func (q *bufferQueue) drainPending() []*audio.Buffer {
	q.pendMu.Lock()
	defer q.pendMu.Unlock()

	var bufs []*audio.Buffer
	for front := q.pending.Front(); front != nil; front = q.pending.Front() {
		q.pending.Remove(front)
		bufs = append(bufs, front.Value.(*audio.Buffer))
	}
	return bufs
}

// pendingCount returns the number of buffers awaiting transfer
func (q *bufferQueue) pendingCount() int {
	q.pendMu.Lock()
	defer q.pendMu.Unlock()
	return q.pending.Len()
}

// idle reports whether nothing is pending, in flight, or waiting to be
// returned.
func (q *bufferQueue) idle() bool {
	q.pendMu.Lock()
	pendingEmpty := q.pending.Len() == 0
	q.pendMu.Unlock()

	q.lock.Lock()
	defer q.lock.Unlock()
	return pendingEmpty && q.done.Len() == 0 && q.inflight == 0
}
