// ABOUTME: WAV audio decoder
// ABOUTME: Decodes PCM WAV files via go-audio/wav to 16-bit samples
package decode

import (
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

const wavChunkFrames = 4096

// WAVDecoder decodes PCM WAV files
type WAVDecoder struct {
	dec    *wav.Decoder
	format audio.Format
	buf    *gaudio.IntBuffer
	rest   []byte
}

// NewWAV creates a WAV decoder
func NewWAV(rs io.ReadSeeker) (Decoder, error) {
	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}

	format := audio.Format{
		SampleRate:    int(dec.SampleRate),
		Channels:      int(dec.NumChans),
		BitsPerSample: 16,
	}

	return &WAVDecoder{
		dec:    dec,
		format: format,
		buf: &gaudio.IntBuffer{
			Format: &gaudio.Format{
				NumChannels: int(dec.NumChans),
				SampleRate:  int(dec.SampleRate),
			},
			Data: make([]int, wavChunkFrames*int(dec.NumChans)),
		},
	}, nil
}

// Read fills p with 16-bit little-endian PCM
func (d *WAVDecoder) Read(p []byte) (int, error) {
	for len(d.rest) == 0 {
		n, err := d.dec.PCMBuffer(d.buf)
		if err != nil {
			return 0, fmt.Errorf("wav decode: %w", err)
		}
		if n == 0 {
			return 0, io.EOF
		}
		d.rest = d.toBytes(d.buf.Data[:n])
	}

	n := copy(p, d.rest)
	d.rest = d.rest[n:]
	return n, nil
}

// toBytes converts source-width samples to 16-bit little endian
func (d *WAVDecoder) toBytes(samples []int) []byte {
	shift := int(d.dec.BitDepth) - 16
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		var v int16
		switch {
		case shift > 0:
			v = int16(s >> shift)
		case shift < 0:
			// 8-bit wav is unsigned
			v = int16(s-128) << 8
		default:
			v = int16(s)
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// Format describes the decoded stream
func (d *WAVDecoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *WAVDecoder) Close() error {
	return nil
}
