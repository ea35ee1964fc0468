//go:build !portaudio

// ABOUTME: Tests for the portaudio stub transport
// ABOUTME: The stub must construct cleanly and refuse to open
package transport

import (
	"testing"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

func TestPortAudioStubRefusesOpen(t *testing.T) {
	p := NewPortAudio()

	if err := p.Open(audio.Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}); err == nil {
		t.Error("stub Open succeeded; expected not-enabled error")
	}
	if err := p.Submit(audio.NewBuffer(8), func(*audio.Buffer, error) {}, 0); err == nil {
		t.Error("stub Submit succeeded; expected not-enabled error")
	}
	if err := p.Close(); err != nil {
		t.Errorf("stub Close failed: %v", err)
	}
}

// The stub must still satisfy the transport contract so backend
// selection compiles either way.
var _ Transport = (*PortAudio)(nil)
