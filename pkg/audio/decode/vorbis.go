// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes vorbis streams via jfreymuth/oggvorbis to 16-bit samples
package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

const vorbisChunk = 4096

// VorbisDecoder decodes ogg vorbis streams
type VorbisDecoder struct {
	dec    *oggvorbis.Reader
	format audio.Format
	fbuf   []float32
	rest   []byte
}

// NewVorbis creates a vorbis decoder
func NewVorbis(r io.Reader) (Decoder, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating vorbis decoder: %w", err)
	}

	return &VorbisDecoder{
		dec: dec,
		format: audio.Format{
			SampleRate:    dec.SampleRate(),
			Channels:      dec.Channels(),
			BitsPerSample: 16,
		},
		fbuf: make([]float32, vorbisChunk*dec.Channels()),
	}, nil
}

// Read fills p with 16-bit little-endian PCM
func (d *VorbisDecoder) Read(p []byte) (int, error) {
	for len(d.rest) == 0 {
		n, err := d.dec.Read(d.fbuf)
		if n == 0 {
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		d.rest = floatsToBytes(d.fbuf[:n])
	}

	n := copy(p, d.rest)
	d.rest = d.rest[n:]
	return n, nil
}

// floatsToBytes converts float samples to 16-bit little endian with
// clipping.
func floatsToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		v := int16(f * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// Format describes the decoded stream
func (d *VorbisDecoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *VorbisDecoder) Close() error {
	return nil
}
