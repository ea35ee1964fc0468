// ABOUTME: Tests for reference-counted buffer lifecycle
// ABOUTME: Covers refcounts, flags, and cursor accounting
package audio

import "testing"

func TestNewBufferInitialState(t *testing.T) {
	buf := NewBuffer(512)

	if got := len(buf.Data); got != 512 {
		t.Errorf("data length %d, expected 512", got)
	}
	if got := buf.Refs(); got != 1 {
		t.Errorf("refs %d, expected 1", got)
	}
	if buf.Cursor != 0 {
		t.Errorf("cursor %d, expected 0", buf.Cursor)
	}
	if buf.Result != nil {
		t.Errorf("result %v, expected nil", buf.Result)
	}
	if buf.HasFlag(FlagEnqueued) || buf.HasFlag(FlagFinal) {
		t.Error("fresh buffer has flags set")
	}
}

func TestBufferRetainRelease(t *testing.T) {
	buf := NewBuffer(8)

	buf.Retain()
	if got := buf.Refs(); got != 2 {
		t.Errorf("refs %d after retain, expected 2", got)
	}
	if got := buf.Release(); got != 1 {
		t.Errorf("release returned %d, expected 1", got)
	}
	if got := buf.Release(); got != 0 {
		t.Errorf("release returned %d, expected 0", got)
	}
}

func TestBufferRecycleResetsState(t *testing.T) {
	buf := NewBuffer(8)
	buf.Cursor = 4
	buf.SetFlag(FlagFinal)
	buf.Release()

	// The pool may hand the same object back; state must be fresh
	fresh := NewBuffer(8)
	if fresh.Cursor != 0 {
		t.Errorf("cursor %d after recycle, expected 0", fresh.Cursor)
	}
	if fresh.HasFlag(FlagFinal) {
		t.Error("final flag survived recycle")
	}
	if got := fresh.Refs(); got != 1 {
		t.Errorf("refs %d after recycle, expected 1", got)
	}
}

func TestBufferFlags(t *testing.T) {
	buf := NewBuffer(8)

	buf.SetFlag(FlagEnqueued)
	if !buf.HasFlag(FlagEnqueued) {
		t.Error("enqueued flag not set")
	}
	if buf.HasFlag(FlagFinal) {
		t.Error("final flag set unexpectedly")
	}

	buf.SetFlag(FlagFinal)
	if !buf.HasFlag(FlagEnqueued) || !buf.HasFlag(FlagFinal) {
		t.Error("flags are not cumulative")
	}
}

func TestBufferRemaining(t *testing.T) {
	buf := NewBuffer(100)

	if got := buf.Remaining(); got != 100 {
		t.Errorf("remaining %d, expected 100", got)
	}
	buf.Cursor = 60
	if got := buf.Remaining(); got != 40 {
		t.Errorf("remaining %d, expected 40", got)
	}
	buf.Cursor = 100
	if got := buf.Remaining(); got != 0 {
		t.Errorf("remaining %d, expected 0", got)
	}
}
