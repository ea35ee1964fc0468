// ABOUTME: File player orchestration
// ABOUTME: Decodes a local audio file and feeds it through a sink
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/Waveline-Audio/waveline-go/pkg/audio/decode"
	"github.com/Waveline-Audio/waveline-go/pkg/sink"
	"github.com/Waveline-Audio/waveline-go/pkg/transport"
)

// Config holds player configuration
type Config struct {
	File        string
	Volume      int
	MaxInFlight int

	// Transport to play through; defaults to a realtime loopback
	Transport transport.Transport

	// Control is the optional codec-side controller
	Control sink.DeviceControl

	// OnProgress is called periodically with pipeline counters
	OnProgress func(sink.Stats)
}

// Player plays a single local file through a sink
type Player struct {
	config Config
	sink   *sink.Sink

	ctx    context.Context
	cancel context.CancelFunc

	free chan struct{}
	done chan struct{}
}

// New creates a player
func New(config Config) *Player {
	if config.Volume == 0 {
		config.Volume = 100
	}
	if config.Transport == nil {
		config.Transport = transport.NewLoopback(transport.LoopbackConfig{Realtime: true})
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Player{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Run plays the configured file to completion. Blocks until the
// stream finishes or Stop is called.
func (p *Player) Run() error {
	dec, err := decode.Open(p.config.File)
	if err != nil {
		return err
	}
	defer dec.Close()

	format := dec.Format()
	log.Printf("Playing %s: %dHz %dch %d-bit",
		p.config.File, format.SampleRate, format.Channels, format.BitsPerSample)

	p.sink = sink.New(p.config.Transport, p.config.Control, sink.Config{
		MaxInFlight: p.config.MaxInFlight,
		OnBufferReturn: func(buf *audio.Buffer, result error) {
			if result != nil {
				log.Printf("Buffer returned with error: %v", result)
			}
			buf.Release()
			select {
			case p.free <- struct{}{}:
			default:
			}
		},
		OnStreamDone: func() {
			close(p.done)
		},
		OnError: func(err error) {
			log.Printf("Transport error: %v", err)
		},
	})

	if err := p.sink.Reserve(); err != nil {
		return fmt.Errorf("reserving sink: %w", err)
	}
	defer p.sink.Release()

	if err := p.sink.Configure(format); err != nil {
		return err
	}
	p.sink.SetVolume(p.config.Volume)

	caps := p.sink.Caps()
	p.free = make(chan struct{}, caps.BufferCount)
	for i := 0; i < caps.BufferCount; i++ {
		p.free <- struct{}{}
	}

	// Queue the first buffers before starting the worker
	final, err := p.feedOne(dec, caps.BufferSize)
	if err != nil {
		return err
	}

	if err := p.sink.Start(); err != nil {
		return err
	}
	defer p.sink.Stop()

	go p.report()

	for !final {
		select {
		case <-p.ctx.Done():
			return nil
		default:
		}
		if final, err = p.feedOne(dec, caps.BufferSize); err != nil {
			return err
		}
	}

	select {
	case <-p.done:
	case <-p.ctx.Done():
	}
	return nil
}

// feedOne waits for a free pool slot and queues the next chunk of the
// file. Returns true once the final buffer has been queued.
func (p *Player) feedOne(dec decode.Decoder, size int) (bool, error) {
	select {
	case <-p.free:
	case <-p.ctx.Done():
		return true, nil
	}

	buf := audio.NewBuffer(size)
	n, err := io.ReadFull(dec, buf.Data)
	final := false

	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		buf.Data = buf.Data[:n]
		buf.SetFlag(audio.FlagFinal)
		final = true
	default:
		buf.Release()
		return false, fmt.Errorf("decoding %s: %w", p.config.File, err)
	}

	if err := p.sink.Enqueue(buf); err != nil {
		if errors.Is(err, sink.ErrQueueFull) {
			// The buffer is queued regardless; only the wakeup was
			// dropped, and the next push cycle picks it up
			return final, nil
		}
		buf.Release()
		return false, err
	}
	return final, nil
}

// report periodically publishes pipeline counters
func (p *Player) report() {
	if p.config.OnProgress == nil {
		return
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.config.OnProgress(p.sink.Stats())
		case <-p.done:
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// TogglePause flips between paused and running
func (p *Player) TogglePause() {
	if p.sink == nil {
		return
	}
	if p.sink.Paused() {
		p.sink.Resume()
	} else {
		p.sink.Pause()
	}
}

// SetVolume adjusts the output level
func (p *Player) SetVolume(volume int) {
	if p.sink != nil {
		p.sink.SetVolume(volume)
	}
}

// SetMute adjusts the mute state
func (p *Player) SetMute(muted bool) {
	if p.sink != nil {
		p.sink.SetMute(muted)
	}
}

// Stats returns current pipeline counters
func (p *Player) Stats() sink.Stats {
	if p.sink == nil {
		return sink.Stats{}
	}
	return p.sink.Stats()
}

// Stop ends playback
func (p *Player) Stop() {
	p.cancel()
}
