// ABOUTME: Sentinel errors for audio format validation
// ABOUTME: Returned by Format.Validate and the decoders
package audio

import "errors"

var (
	ErrBadSampleRate  = errors.New("audio: sample rate must be positive")
	ErrBadChannels    = errors.New("audio: channel count must be 1 or 2")
	ErrBadSampleWidth = errors.New("audio: sample width must be 8 or 16 bits")
)
