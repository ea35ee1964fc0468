// ABOUTME: Tests for worker-side helpers
// ABOUTME: Pins down the transfer timeout arithmetic
package sink

import (
	"testing"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
)

func TestTransferTimeout(t *testing.T) {
	cases := []struct {
		name   string
		bytes  int
		cursor int
		format audio.Format
		want   time.Duration
	}{
		{
			name:   "16-bit stereo",
			bytes:  4096,
			format: audio.Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16},
			// 4096 << 9 / 44100 = 47ms
			want: 47 * time.Millisecond,
		},
		{
			name:   "16-bit mono",
			bytes:  2000,
			format: audio.Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16},
			// 2000 << 10 / 16000 = 128ms
			want: 128 * time.Millisecond,
		},
		{
			name:   "8-bit mono",
			bytes:  1000,
			format: audio.Format{SampleRate: 8000, Channels: 1, BitsPerSample: 8},
			// 1000 << 11 / 8000 = 256ms
			want: 256 * time.Millisecond,
		},
		{
			name:   "8-bit stereo",
			bytes:  1000,
			format: audio.Format{SampleRate: 8000, Channels: 2, BitsPerSample: 8},
			// 1000 << 10 / 8000 = 128ms
			want: 128 * time.Millisecond,
		},
		{
			name:   "partially consumed buffer",
			bytes:  4096,
			cursor: 2048,
			format: audio.Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16},
			// remaining 2048 << 9 / 44100 = 23ms
			want: 23 * time.Millisecond,
		},
		{
			name:   "unconfigured format",
			bytes:  4096,
			format: audio.Format{},
			want:   0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := audio.NewBuffer(tc.bytes)
			buf.Cursor = tc.cursor
			if got := transferTimeout(buf, tc.format); got != tc.want {
				t.Errorf("timeout %v, expected %v", got, tc.want)
			}
		})
	}
}
