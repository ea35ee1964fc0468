// ABOUTME: Tests for PCM format validation and arithmetic
// ABOUTME: Covers validation tables, data rates, and sample round-trips
package audio

import (
	"errors"
	"testing"
	"time"
)

func TestFormatValidate(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		want   error
	}{
		{"cd quality", Format{44100, 2, 16}, nil},
		{"telephony", Format{8000, 1, 8}, nil},
		{"zero rate", Format{0, 2, 16}, ErrBadSampleRate},
		{"negative rate", Format{-44100, 2, 16}, ErrBadSampleRate},
		{"zero channels", Format{44100, 0, 16}, ErrBadChannels},
		{"surround", Format{44100, 6, 16}, ErrBadChannels},
		{"24-bit", Format{44100, 2, 24}, ErrBadSampleWidth},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.format.Validate()
			if tc.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, expected nil", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, expected %v", err, tc.want)
			}
		})
	}
}

func TestFormatRates(t *testing.T) {
	cd := Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}
	if got := cd.BytesPerFrame(); got != 4 {
		t.Errorf("BytesPerFrame() = %d, expected 4", got)
	}
	if got := cd.BytesPerSecond(); got != 176400 {
		t.Errorf("BytesPerSecond() = %d, expected 176400", got)
	}

	mono8 := Format{SampleRate: 8000, Channels: 1, BitsPerSample: 8}
	if got := mono8.BytesPerFrame(); got != 1 {
		t.Errorf("BytesPerFrame() = %d, expected 1", got)
	}
	if got := mono8.BytesPerSecond(); got != 8000 {
		t.Errorf("BytesPerSecond() = %d, expected 8000", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cd := Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}
	if got := cd.Duration(176400); got != time.Second {
		t.Errorf("Duration(1s of data) = %v", got)
	}
	if got := cd.Duration(0); got != 0 {
		t.Errorf("Duration(0) = %v", got)
	}
	if got := (Format{}).Duration(1000); got != 0 {
		t.Errorf("Duration on zero format = %v, expected 0", got)
	}
}

func TestSampleConversionRoundTrip(t *testing.T) {
	for _, s := range []int16{-32768, -1, 0, 1, 32767} {
		if got := SampleToInt16(SampleFromInt16(s)); got != s {
			t.Errorf("round trip of %d gave %d", s, got)
		}
	}
}
