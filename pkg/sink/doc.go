// ABOUTME: High-level sink package documentation
// ABOUTME: Describes the session lifecycle and buffer pipeline
// Package sink drives PCM buffers from a single producer to a
// playback transport through a worker-owned pipeline.
//
// A Sink supports exactly one session at a time. The lifecycle is:
//
//	s := sink.New(transport, control, sink.Config{})
//	err := s.Reserve()
//	err = s.Configure(audio.Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16})
//	err = s.Enqueue(buf) // may be called before Start to prime the pump
//	err = s.Start()
//	...
//	err = s.Stop()
//	err = s.Release()
//
// Buffers flow from a pending queue to the transport, bounded by the
// configured in-flight cap, and come back to the producer through the
// OnBufferReturn callback. A buffer flagged audio.FlagFinal ends the
// stream; the worker drains and OnStreamDone fires.
//
// Pause suspends submissions without rejecting Enqueue; Resume picks
// the stream back up in FIFO order.
package sink
