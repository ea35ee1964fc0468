// ABOUTME: Worker loop driving buffers from the pending queue to the transport
// ABOUTME: Message-driven state machine with in-flight cap and transfer timeouts
package sink

import (
	"log"
	"runtime"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

// workerMsg is a control message for the worker loop
type workerMsg uint8

const (
	// msgDataRequest asks for more data; the push at the top of the
	// loop covers it
	msgDataRequest workerMsg = iota

	// msgStop asks the worker to drain in-flight buffers and exit
	msgStop

	// msgEnqueue signals a newly queued buffer; covered by the push at
	// the top of the loop
	msgEnqueue

	// msgComplete signals buffers in the done queue awaiting return
	msgComplete
)

// transferTimeout computes how long a transfer may reasonably take.
//
// Expected transfer seconds = bytes * 8 / bits / rate / channels.
// Doubled as a safety margin and expressed in milliseconds, the
// multiplier is ~16384, so the whole thing reduces to a shift:
// 11 for 8-bit samples, 10 for 16-bit, one less for stereo.
func transferTimeout(buf *audio.Buffer, format audio.Format) time.Duration {
	shift := 10
	if format.BitsPerSample == 8 {
		shift = 11
	}
	if format.Channels > 1 {
		shift--
	}

	if format.SampleRate <= 0 {
		return 0
	}
	ms := (buf.Remaining() << shift) / format.SampleRate
	return time.Duration(ms) * time.Millisecond
}

// pushReady submits pending buffers to the transport while in-flight
// slots are available and the session is not paused. Stops on the
// first submission failure; the failed buffer goes back to the head of
// pending and is retried on the next cycle.
func (s *Sink) pushReady() error {
	for s.queue.inflightCount() < s.config.MaxInFlight &&
		!s.paused.Load() && !s.terminating.Load() {
		buf, ok := s.queue.takeNext()
		if !ok {
			return nil
		}

		s.queue.addInFlight()
		timeout := transferTimeout(buf, s.format())

		if err := s.transport.Submit(buf, s.onComplete, timeout); err != nil {
			s.queue.requeue(buf)
			log.Printf("sink: transport submit failed: %v", err)
			s.notifyError(err)
			return err
		}
		s.stats.submitted.Add(1)
	}
	return nil
}

// onComplete is the transport completion callback. It must not block:
// it moves the buffer to the done queue under the spin lock and pokes
// the worker without waiting.
func (s *Sink) onComplete(buf *audio.Buffer, result error) {
	s.queue.completeOne(buf, result)
	s.stats.completed.Add(1)

	if !s.post(msgComplete) {
		log.Printf("sink: dropped completion message")
	}
}

// drainDone empties the done queue, releasing the queue's reference on
// each buffer and handing it back to the producer. The first buffer
// flagged final ends the stream: at that point nothing may be pending
// or in flight, and the worker is told to terminate.
func (s *Sink) drainDone() {
	for {
		buf, ok := s.queue.popDone()
		if !ok {
			return
		}

		if buf.HasFlag(audio.FlagFinal) {
			if !s.queue.idle() {
				log.Printf("sink: final buffer drained with transfers outstanding")
			}
			s.terminating.Store(true)
		}

		result := buf.Result
		buf.Release()
		s.stats.returned.Add(1)
		s.notifyBufferReturn(buf, result)
	}
}

// workerLoop owns the running/paused/terminating state machine. It is
// the only goroutine that receives control messages and the only one
// that closes the message channel.
func (s *Sink) workerLoop(mq chan workerMsg, done chan struct{}) {
	defer close(done)

	s.terminating.Store(false)
	s.running.Store(true)
	s.applyVolume(false)

	// Loop as long as the stream runs or transfers are still out
	for s.running.Load() || s.queue.inflightCount() > 0 {
		if s.terminating.Load() && s.queue.inflightCount() == 0 {
			break
		}
		s.pushReady()

		msg, ok := <-mq
		if !ok {
			break
		}

		switch msg {
		case msgDataRequest:
			// Push attempted at the top of the loop
		case msgStop:
			s.terminating.Store(true)
		case msgEnqueue:
			// Push attempted at the top of the loop
		case msgComplete:
			s.drainDone()
		default:
			log.Printf("sink: ignoring unknown worker message %d", msg)
		}
	}

	s.running.Store(false)

	// Put the device back in a known state
	if s.control != nil {
		if err := s.control.Reset(); err != nil {
			log.Printf("sink: device reset failed: %v", err)
		}
	}

	// Buffers still pending were never transferred; hand them back
	for _, buf := range s.queue.drainPending() {
		buf.Release()
		s.stats.returned.Add(1)
		s.notifyBufferReturn(buf, nil)
	}

	// Stragglers that completed while we were draining
	s.drainDone()

	// Close and unlink the message channel. Posters check the field
	// under the message lock, so nobody can send on the closed channel.
	s.mqLock.Lock()
	s.mq = nil
	s.mqLock.Unlock()
	close(mq)

	s.notifyStreamDone()
}

// post delivers a message to the worker without blocking. Returns
// false if the channel is gone or full.
func (s *Sink) post(msg workerMsg) bool {
	s.mqLock.Lock()
	defer s.mqLock.Unlock()

	if s.mq == nil {
		return false
	}
	select {
	case s.mq <- msg:
		return true
	default:
		return false
	}
}

// postStop delivers a stop message, retrying while the channel is
// saturated. Gives up only once the worker has gone away.
func (s *Sink) postStop() {
	for {
		s.mqLock.Lock()
		if s.mq == nil {
			s.mqLock.Unlock()
			return
		}
		select {
		case s.mq <- msgStop:
			s.mqLock.Unlock()
			return
		default:
		}
		s.mqLock.Unlock()
		runtime.Gosched()
	}
}
