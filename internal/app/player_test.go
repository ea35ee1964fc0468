// ABOUTME: End-to-end player test over the loopback transport
// ABOUTME: Plays a generated wav file and checks the pipeline drains
package app

import (
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Waveline-Audio/waveline-go/pkg/transport"
)

func writeToneWAV(t *testing.T, path string, frames int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, frames)
	for i := range data {
		data[i] = (i % 64) * 512
	}

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: 8000},
		SourceBitDepth: 16,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPlayerRunsFileToCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeToneWAV(t, path, 8000)

	p := New(Config{
		File:      path,
		Transport: transport.NewLoopback(transport.LoopbackConfig{}),
	})

	if err := p.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	stats := p.Stats()
	if stats.Enqueued == 0 {
		t.Error("no buffers were enqueued")
	}
	if stats.Returned != stats.Enqueued {
		t.Errorf("returned %d of %d enqueued buffers", stats.Returned, stats.Enqueued)
	}
	if stats.InFlight != 0 || stats.Pending != 0 {
		t.Errorf("pipeline not drained: %d in flight, %d pending", stats.InFlight, stats.Pending)
	}
}

func TestPlayerMissingFile(t *testing.T) {
	p := New(Config{File: filepath.Join(t.TempDir(), "nope.wav")})
	if err := p.Run(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPlayerStopInterrupts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeToneWAV(t, path, 8000*10)

	p := New(Config{
		File:      path,
		Transport: transport.NewLoopback(transport.LoopbackConfig{Realtime: true}),
	})

	errs := make(chan error, 1)
	go func() { errs <- p.Run() }()

	// Let playback get going, then cut it short
	p.Stop()
	if err := <-errs; err != nil {
		t.Errorf("interrupted run returned %v", err)
	}
}
