// ABOUTME: Public audio sink API with single-session semantics
// ABOUTME: Reserve/Configure/Start lifecycle over a transport and device control
package sink

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/Waveline-Audio/waveline-go/pkg/transport"
	"github.com/google/uuid"
)

const (
	// DefaultMaxInFlight bounds concurrent transfers at the transport
	DefaultMaxInFlight = 2

	// DefaultQueueDepth sizes the worker message channel
	DefaultQueueDepth = 16

	// DefaultBufferSize is the preferred producer buffer size in bytes
	DefaultBufferSize = 8192

	// DefaultBufferCount is the preferred number of producer buffers
	DefaultBufferCount = 4
)

// DeviceControl is the codec-side collaborator the sink drives for
// volume, mute, and reset. Register-level details live behind it.
type DeviceControl interface {
	// SetVolume applies the output level (0-100) and soft-mute state
	SetVolume(volume int, muted bool) error

	// EnableDataRequests lets the device ask for more data
	EnableDataRequests() error

	// DisableDataRequests stops device-side data requests
	DisableDataRequests() error

	// Reset puts the device back in a known state
	Reset() error
}

// Config holds sink configuration and producer callbacks
type Config struct {
	// MaxInFlight caps buffers submitted but not yet completed
	MaxInFlight int

	// QueueDepth is the worker message channel capacity
	QueueDepth int

	// PreferredBufferSize and PreferredBufferCount are reported by
	// Caps for producers sizing their buffer pool
	PreferredBufferSize  int
	PreferredBufferCount int

	// OnBufferReturn is called when a buffer is handed back to the
	// producer, whether transferred or force-released on stop
	OnBufferReturn func(buf *audio.Buffer, result error)

	// OnStreamDone is called once the stream has fully wound down
	OnStreamDone func()

	// OnError is called for non-fatal transport errors
	OnError func(err error)
}

// Caps describes the sink's preferences and limits
type Caps struct {
	BufferSize  int
	BufferCount int
	MaxInFlight int
}

// Stats is a snapshot of pipeline counters
type Stats struct {
	Enqueued  int64
	Submitted int64
	Completed int64
	Returned  int64
	InFlight  int
	Pending   int
}

type sinkStats struct {
	enqueued  atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
	returned  atomic.Int64
}

// Sink drives PCM buffers from a single producer session to a
// transport, one worker goroutine per active stream.
type Sink struct {
	config    Config
	transport transport.Transport
	control   DeviceControl

	queue *bufferQueue
	stats sinkStats

	// mqLock guards mq so posting never races the worker closing it
	mqLock spinLock
	mq     chan workerMsg

	// workerDone is closed when the current worker exits
	workerDone chan struct{}

	// mu guards the session fields below
	mu        sync.Mutex
	reserved  bool
	sessionID string
	fmt       audio.Format
	volume    int
	muted     bool
	balance   int

	running     atomic.Bool
	paused      atomic.Bool
	terminating atomic.Bool
}

// New creates a sink over the given transport. control may be nil when
// no codec-side controller is attached.
func New(t transport.Transport, control DeviceControl, config Config) *Sink {
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = DefaultMaxInFlight
	}
	if config.QueueDepth <= 0 {
		config.QueueDepth = DefaultQueueDepth
	}
	if config.PreferredBufferSize <= 0 {
		config.PreferredBufferSize = DefaultBufferSize
	}
	if config.PreferredBufferCount <= 0 {
		config.PreferredBufferCount = DefaultBufferCount
	}

	return &Sink{
		config:    config,
		transport: t,
		control:   control,
		queue:     newBufferQueue(),
		volume:    100,
	}
}

// Reserve claims the sink's single session
func (s *Sink) Reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reserved {
		return ErrBusy
	}

	s.sessionID = uuid.New().String()
	s.running.Store(false)
	s.paused.Store(false)
	s.terminating.Store(false)
	s.reserved = true

	log.Printf("sink: session %s reserved", s.sessionID)
	return nil
}

// Release gives the session up. A still-running stream is stopped
// first; like Stop, this waits for in-flight transfers to complete
// before the worker is joined.
func (s *Sink) Release() error {
	s.postStop()
	s.joinWorker()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, buf := range s.queue.drainPending() {
		buf.Release()
		s.stats.returned.Add(1)
		s.notifyBufferReturn(buf, nil)
	}

	s.reserved = false
	s.sessionID = ""
	return nil
}

// SessionID returns the identifier of the current session, empty when
// none is reserved.
func (s *Sink) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Configure sets the stream format. An unsupported format is reported
// to the caller and leaves all state unchanged.
func (s *Sink) Configure(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	if err := s.transport.Open(format); err != nil {
		return fmt.Errorf("opening transport: %w", err)
	}

	s.mu.Lock()
	s.fmt = format
	s.mu.Unlock()

	log.Printf("sink: configured %dHz %dch %d-bit",
		format.SampleRate, format.Channels, format.BitsPerSample)
	return nil
}

// Start launches the worker for the reserved session
func (s *Sink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reserved {
		return ErrNotReserved
	}

	// Allocate the worker message channel
	s.mqLock.Lock()
	if s.mq != nil {
		// A previous channel is still live; this start attempt fails
		// but the session stays usable
		s.mqLock.Unlock()
		return ErrResourceExhausted
	}
	mq := make(chan workerMsg, s.config.QueueDepth)
	s.mq = mq
	s.mqLock.Unlock()

	// Join any old worker we had created to prevent a leak on restart
	if s.workerDone != nil {
		<-s.workerDone
	}

	done := make(chan struct{})
	s.workerDone = done
	go s.workerLoop(mq, done)

	log.Printf("sink: session %s started", s.sessionID)
	return nil
}

// Stop asks the worker to drain and waits for it to exit. Buffers
// still pending are handed back untransferred.
func (s *Sink) Stop() error {
	s.postStop()
	s.joinWorker()
	return nil
}

// Pause suspends submissions. Only meaningful while running.
func (s *Sink) Pause() error {
	if !s.running.Load() || s.paused.Load() {
		return nil
	}

	s.paused.Store(true)
	s.applyVolume(true)
	if s.control != nil {
		if err := s.control.DisableDataRequests(); err != nil {
			log.Printf("sink: disabling data requests: %v", err)
		}
	}
	return nil
}

// Resume restores submissions after a pause
func (s *Sink) Resume() error {
	if !s.running.Load() || !s.paused.Load() {
		return nil
	}

	s.paused.Store(false)
	s.applyVolume(false)
	// Wake the worker; it owns all transport submissions
	if !s.post(msgDataRequest) {
		log.Printf("sink: resume could not wake worker")
	}
	if s.control != nil {
		if err := s.control.EnableDataRequests(); err != nil {
			log.Printf("sink: enabling data requests: %v", err)
		}
	}
	return nil
}

// Enqueue appends a buffer to the pending queue. With no worker
// running this just primes the pump; the buffer is picked up when the
// stream starts. One producer per stream: at most one buffer may carry
// the final flag.
func (s *Sink) Enqueue(buf *audio.Buffer) error {
	s.queue.enqueue(buf)
	s.stats.enqueued.Add(1)

	s.mqLock.Lock()
	started := s.mq != nil
	s.mqLock.Unlock()
	if !started {
		return nil
	}

	if !s.post(msgEnqueue) {
		return ErrQueueFull
	}
	return nil
}

// Cancel acknowledges a cancel request for an enqueued buffer. The
// stop drain path is what actually reclaims pending buffers.
func (s *Sink) Cancel(buf *audio.Buffer) error {
	log.Printf("sink: cancel requested for buffer %p", buf)
	return nil
}

// SetVolume sets the output level (0-100)
func (s *Sink) SetVolume(volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	s.applyVolume(s.paused.Load())
	return nil
}

// SetMute sets the mute state
func (s *Sink) SetMute(muted bool) error {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()

	s.applyVolume(s.paused.Load())
	return nil
}

// SetBalance sets left/right balance (-100 full left, +100 full right)
func (s *Sink) SetBalance(balance int) error {
	if balance < -100 || balance > 100 {
		return fmt.Errorf("%w: balance %d out of range", ErrUnsupportedFormat, balance)
	}

	s.mu.Lock()
	s.balance = balance
	s.mu.Unlock()

	s.applyVolume(s.paused.Load())
	return nil
}

// Caps reports preferred buffer sizing and the in-flight limit
func (s *Sink) Caps() Caps {
	return Caps{
		BufferSize:  s.config.PreferredBufferSize,
		BufferCount: s.config.PreferredBufferCount,
		MaxInFlight: s.config.MaxInFlight,
	}
}

// Stats returns a snapshot of pipeline counters
func (s *Sink) Stats() Stats {
	return Stats{
		Enqueued:  s.stats.enqueued.Load(),
		Submitted: s.stats.submitted.Load(),
		Completed: s.stats.completed.Load(),
		Returned:  s.stats.returned.Load(),
		InFlight:  s.queue.inflightCount(),
		Pending:   s.queue.pendingCount(),
	}
}

// Running reports whether the worker is active
func (s *Sink) Running() bool {
	return s.running.Load()
}

// Paused reports whether submissions are suspended
func (s *Sink) Paused() bool {
	return s.paused.Load()
}

// format returns the configured stream format
func (s *Sink) format() audio.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fmt
}

// joinWorker waits for the current worker to exit, if any
func (s *Sink) joinWorker() {
	s.mu.Lock()
	done := s.workerDone
	s.workerDone = nil
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// applyVolume pushes the session volume, balance, and mute state to
// the device controller.
func (s *Sink) applyVolume(muted bool) {
	if s.control == nil {
		return
	}

	s.mu.Lock()
	volume := s.volume
	m := muted || s.muted
	s.mu.Unlock()

	if err := s.control.SetVolume(volume, m); err != nil {
		log.Printf("sink: setting volume: %v", err)
	}
}

func (s *Sink) notifyBufferReturn(buf *audio.Buffer, result error) {
	if s.config.OnBufferReturn != nil {
		s.config.OnBufferReturn(buf, result)
	}
}

func (s *Sink) notifyStreamDone() {
	if s.config.OnStreamDone != nil {
		s.config.OnStreamDone()
	}
}

func (s *Sink) notifyError(err error) {
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
}
