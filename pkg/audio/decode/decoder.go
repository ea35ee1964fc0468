// ABOUTME: Decoder interface and file-type dispatch
// ABOUTME: Common contract for decoders producing interleaved 16-bit PCM
package decode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

// Decoder turns an encoded stream into interleaved little-endian
// 16-bit PCM via the io.Reader contract.
type Decoder interface {
	io.Reader

	// Format describes the decoded PCM stream
	Format() audio.Format

	// Close releases decoder resources
	Close() error
}

// Open creates a decoder for the named file based on its extension
func Open(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	var dec Decoder
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		dec, err = NewWAV(f)
	case ".mp3":
		dec, err = NewMP3(f)
	case ".flac":
		dec, err = NewFLAC(f)
	case ".ogg":
		dec, err = NewVorbis(f)
	case ".opus":
		dec, err = NewOpus(f)
	default:
		err = fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileDecoder{Decoder: dec, f: f}, nil
}

// fileDecoder ties the backing file's lifetime to the decoder
type fileDecoder struct {
	Decoder
	f *os.File
}

func (d *fileDecoder) Close() error {
	err := d.Decoder.Close()
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return err
}
