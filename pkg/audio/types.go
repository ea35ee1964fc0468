// ABOUTME: Audio format definitions for the sink pipeline
// ABOUTME: Defines stream formats, validation, and sample conversion helpers
package audio

import "time"

// Format describes an interleaved PCM stream
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Validate checks that the format is something the sink can drive
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return ErrBadSampleRate
	}
	if f.Channels < 1 || f.Channels > 2 {
		return ErrBadChannels
	}
	if f.BitsPerSample != 8 && f.BitsPerSample != 16 {
		return ErrBadSampleWidth
	}
	return nil
}

// BytesPerFrame returns the size of one sample frame across all channels
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond returns the PCM data rate
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerFrame()
}

// Duration returns the play time of n bytes of PCM in this format
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// SampleToInt16 converts an int32 working sample to the int16 output range
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts an int16 sample to the int32 working range
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}
