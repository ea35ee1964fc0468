// ABOUTME: Reference-counted PCM buffers shared between producer and sink
// ABOUTME: Pool-backed allocation with cursor, flags, and transfer result
package audio

import (
	"sync"
	"sync/atomic"
)

// BufferFlags mark buffer state within the pipeline
type BufferFlags uint16

const (
	// FlagEnqueued is set once the buffer has been handed to a sink
	FlagEnqueued BufferFlags = 1 << iota

	// FlagFinal marks the last buffer of a stream
	FlagFinal
)

// Buffer is a block of PCM data shared between the producer that
// submitted it and the sink while it is queued or in flight. The
// reference count reaches zero when both sides are done with it.
type Buffer struct {
	Data   []byte
	Cursor int // bytes already consumed by the transport

	// Result holds the transfer outcome, recorded on completion
	Result error

	flags atomicFlags
	refs  atomic.Int32
}

type atomicFlags struct{ v atomic.Uint32 }

func (f *atomicFlags) set(b BufferFlags)      { f.v.Or(uint32(b)) }
func (f *atomicFlags) has(b BufferFlags) bool { return f.v.Load()&uint32(b) != 0 }

var bufferPool = sync.Pool{
	New: func() any { return new(Buffer) },
}

// NewBuffer allocates a buffer of the given size with one reference,
// owned by the caller.
func NewBuffer(size int) *Buffer {
	b := bufferPool.Get().(*Buffer)
	if cap(b.Data) < size {
		b.Data = make([]byte, size)
	}
	b.Data = b.Data[:size]
	b.Cursor = 0
	b.Result = nil
	b.flags.v.Store(0)
	b.refs.Store(1)
	return b
}

// Retain adds a reference to the buffer
func (b *Buffer) Retain() {
	b.refs.Add(1)
}

// Release drops a reference; the buffer returns to the pool when the
// last reference is dropped. Returns the remaining reference count.
func (b *Buffer) Release() int32 {
	refs := b.refs.Add(-1)
	if refs == 0 {
		bufferPool.Put(b)
	}
	return refs
}

// Refs returns the current reference count
func (b *Buffer) Refs() int32 {
	return b.refs.Load()
}

// SetFlag marks the buffer with the given flags
func (b *Buffer) SetFlag(f BufferFlags) {
	b.flags.set(f)
}

// HasFlag reports whether all given flags are set
func (b *Buffer) HasFlag(f BufferFlags) bool {
	return b.flags.has(f)
}

// Remaining returns the bytes not yet consumed by the transport
func (b *Buffer) Remaining() int {
	return len(b.Data) - b.Cursor
}
