// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC frames via mewkiz/flac to 16-bit samples
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

// FLACDecoder decodes FLAC streams frame by frame
type FLACDecoder struct {
	stream *flac.Stream
	format audio.Format
	shift  int
	rest   []byte
}

// NewFLAC creates a FLAC decoder
func NewFLAC(r io.Reader) (Decoder, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("parsing flac stream: %w", err)
	}

	info := stream.Info
	return &FLACDecoder{
		stream: stream,
		format: audio.Format{
			SampleRate:    int(info.SampleRate),
			Channels:      int(info.NChannels),
			BitsPerSample: 16,
		},
		shift: int(info.BitsPerSample) - 16,
	}, nil
}

// Read fills p with 16-bit little-endian PCM
func (d *FLACDecoder) Read(p []byte) (int, error) {
	for len(d.rest) == 0 {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("flac decode: %w", err)
		}
		d.rest = d.interleave(frame)
	}

	n := copy(p, d.rest)
	d.rest = d.rest[n:]
	return n, nil
}

// interleave converts one frame's per-channel subframes to
// interleaved 16-bit little endian.
func (d *FLACDecoder) interleave(frame *flac.Frame) []byte {
	channels := len(frame.Subframes)
	samples := int(frame.BlockSize)

	out := make([]byte, samples*channels*2)
	for i := 0; i < samples; i++ {
		for ch := 0; ch < channels; ch++ {
			s := frame.Subframes[ch].Samples[i]
			var v int16
			if d.shift > 0 {
				v = int16(s >> d.shift)
			} else {
				v = int16(s << -d.shift)
			}
			off := (i*channels + ch) * 2
			out[off] = byte(v)
			out[off+1] = byte(v >> 8)
		}
	}
	return out
}

// Format describes the decoded stream
func (d *FLACDecoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *FLACDecoder) Close() error {
	return d.stream.Close()
}
