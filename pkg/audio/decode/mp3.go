// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 streams via go-mp3 to 16-bit stereo PCM
package decode

import (
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

// MP3Decoder decodes MP3 streams. go-mp3 always outputs 16-bit
// little-endian stereo.
type MP3Decoder struct {
	dec    *mp3.Decoder
	format audio.Format
}

// NewMP3 creates an MP3 decoder
func NewMP3(r io.Reader) (Decoder, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("creating mp3 decoder: %w", err)
	}

	return &MP3Decoder{
		dec: dec,
		format: audio.Format{
			SampleRate:    dec.SampleRate(),
			Channels:      2,
			BitsPerSample: 16,
		},
	}, nil
}

// Read fills p with decoded PCM
func (d *MP3Decoder) Read(p []byte) (int, error) {
	return d.dec.Read(p)
}

// Format describes the decoded stream
func (d *MP3Decoder) Format() audio.Format {
	return d.format
}

// Close releases resources
func (d *MP3Decoder) Close() error {
	return nil
}
