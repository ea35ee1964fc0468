// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes opus streams via hraban/opus to 16-bit samples
package decode

import (
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

const opusChunk = 5760 // max opus frame per channel

// OpusDecoder decodes ogg-encapsulated opus streams. Opus always
// decodes at 48kHz.
type OpusDecoder struct {
	stream *opus.Stream
	format audio.Format
	pcm    []int16
	rest   []byte
}

// NewOpus creates an opus decoder
func NewOpus(r io.Reader) (Decoder, error) {
	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, fmt.Errorf("creating opus stream: %w", err)
	}

	return &OpusDecoder{
		stream: stream,
		format: audio.Format{
			SampleRate:    48000,
			Channels:      2,
			BitsPerSample: 16,
		},
		pcm: make([]int16, opusChunk*2),
	}, nil
}

// Read fills p with 16-bit little-endian PCM
func (d *OpusDecoder) Read(p []byte) (int, error) {
	for len(d.rest) == 0 {
		n, err := d.stream.Read(d.pcm)
		if n == 0 {
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		d.rest = samplesToBytes(d.pcm[:n*d.format.Channels])
	}

	n := copy(p, d.rest)
	d.rest = d.rest[n:]
	return n, nil
}

// samplesToBytes packs int16 samples little endian
func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// Format describes the decoded stream
func (d *OpusDecoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *OpusDecoder) Close() error {
	return d.stream.Close()
}
