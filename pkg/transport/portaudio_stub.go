//go:build !portaudio

// ABOUTME: PortAudio stub when the cgo backend is not compiled in
// ABOUTME: Keeps the transport constructible without system portaudio
package transport

import (
	"fmt"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

var errNoPortAudio = fmt.Errorf("portaudio support not enabled (build with -tags portaudio)")

// PortAudio playback transport (stub)
type PortAudio struct{}

// NewPortAudio creates a portaudio transport
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open reports that portaudio is not compiled in
func (p *PortAudio) Open(format audio.Format) error {
	return errNoPortAudio
}

// Submit reports that portaudio is not compiled in
func (p *PortAudio) Submit(buf *audio.Buffer, complete CompleteFunc, timeout time.Duration) error {
	return errNoPortAudio
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
