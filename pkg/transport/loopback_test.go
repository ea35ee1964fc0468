// ABOUTME: Tests for the loopback transport
// ABOUTME: Covers ordering, lifecycle, and realtime timeout enforcement
package transport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

var testFormat = audio.Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}

func TestLoopbackSubmitBeforeOpen(t *testing.T) {
	l := NewLoopback(LoopbackConfig{})
	err := l.Submit(audio.NewBuffer(8), func(*audio.Buffer, error) {}, 0)
	if !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestLoopbackRejectsBadFormat(t *testing.T) {
	l := NewLoopback(LoopbackConfig{})
	if err := l.Open(audio.Format{SampleRate: 44100, Channels: 5, BitsPerSample: 16}); err == nil {
		t.Error("expected error for unsupported channel count")
	}
}

func TestLoopbackCompletesInOrder(t *testing.T) {
	l := NewLoopback(LoopbackConfig{})
	if err := l.Open(testFormat); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	var mu sync.Mutex
	var order []*audio.Buffer
	complete := func(buf *audio.Buffer, err error) {
		if err != nil {
			t.Errorf("unexpected completion error: %v", err)
		}
		mu.Lock()
		order = append(order, buf)
		mu.Unlock()
	}

	bufs := []*audio.Buffer{audio.NewBuffer(64), audio.NewBuffer(64), audio.NewBuffer(64)}
	for _, buf := range bufs {
		if err := l.Submit(buf, complete, 0); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	// Close waits for accepted buffers to complete
	if err := l.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("%d completions, expected 3", len(order))
	}
	for i, buf := range bufs {
		if order[i] != buf {
			t.Errorf("completion %d out of order", i)
		}
		if buf.Remaining() != 0 {
			t.Errorf("buffer %d not fully consumed", i)
		}
	}
}

func TestLoopbackSubmitAfterClose(t *testing.T) {
	l := NewLoopback(LoopbackConfig{})
	if err := l.Open(testFormat); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	err := l.Submit(audio.NewBuffer(8), func(*audio.Buffer, error) {}, 0)
	if !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen after close, got %v", err)
	}
}

func TestLoopbackRealtimeTimeout(t *testing.T) {
	l := NewLoopback(LoopbackConfig{Realtime: true})
	if err := l.Open(testFormat); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer l.Close()

	// One second of audio against a 1ms deadline must time out
	buf := audio.NewBuffer(testFormat.BytesPerSecond())
	results := make(chan error, 1)
	err := l.Submit(buf, func(_ *audio.Buffer, err error) { results <- err }, time.Millisecond)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	select {
	case err := <-results:
		if !errors.Is(err, ErrTimedOut) {
			t.Errorf("expected ErrTimedOut, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("completion never arrived")
	}
}

func TestLoopbackRealtimePacing(t *testing.T) {
	l := NewLoopback(LoopbackConfig{Realtime: true})
	if err := l.Open(testFormat); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer l.Close()

	// 50ms of audio should not complete immediately
	buf := audio.NewBuffer(testFormat.BytesPerSecond() / 20)
	start := time.Now()
	done := make(chan struct{})
	err := l.Submit(buf, func(*audio.Buffer, error) { close(done) }, 0)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	<-done
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("completed in %v, expected realtime pacing", elapsed)
	}
}
