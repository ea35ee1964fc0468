// ABOUTME: Raw PCM pass-through decoder
// ABOUTME: Wraps an already-decoded PCM stream with an explicit format
package decode

import (
	"io"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

// PCMDecoder passes raw PCM through unchanged
type PCMDecoder struct {
	r      io.Reader
	format audio.Format
}

// NewPCM wraps a raw PCM stream. The caller supplies the format since
// raw streams carry no header.
func NewPCM(r io.Reader, format audio.Format) (Decoder, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &PCMDecoder{r: r, format: format}, nil
}

func (d *PCMDecoder) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

// Format describes the wrapped stream
func (d *PCMDecoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
