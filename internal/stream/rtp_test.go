// ABOUTME: Tests for RTP depacketization into sink buffers
// ABOUTME: Feeds packets directly to the handler against an idle sink
package stream

import (
	"testing"

	"github.com/pion/rtp"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/Waveline-Audio/waveline-go/pkg/sink"
	"github.com/Waveline-Audio/waveline-go/pkg/transport"
)

func newIdleSink(t *testing.T) *sink.Sink {
	t.Helper()
	s := sink.New(transport.NewLoopback(transport.LoopbackConfig{}), nil, sink.Config{
		OnBufferReturn: func(buf *audio.Buffer, result error) { buf.Release() },
	})
	if err := s.Reserve(); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	return s
}

func TestHandlePacketPrimesSink(t *testing.T) {
	s := newIdleSink(t)
	r := NewRTPReceiver(RTPConfig{Format: audio.Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}}, s)

	// With no worker running, payloads accumulate as pending buffers
	for i := 0; i < 3; i++ {
		r.handlePacket(&rtp.Packet{
			Header:  rtp.Header{SequenceNumber: uint16(i)},
			Payload: []byte{1, 2, 3, 4},
		})
	}

	if got := s.Stats().Pending; got != 3 {
		t.Errorf("%d pending buffers, expected 3", got)
	}
	if got := s.Stats().Enqueued; got != 3 {
		t.Errorf("%d enqueued, expected 3", got)
	}
}

func TestHandlePacketMarkerEndsStream(t *testing.T) {
	s := newIdleSink(t)
	r := NewRTPReceiver(RTPConfig{Format: audio.Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}}, s)

	r.handlePacket(&rtp.Packet{
		Header:  rtp.Header{Marker: true},
		Payload: []byte{1, 2, 3, 4},
	})

	if got := s.Stats().Pending; got != 1 {
		t.Fatalf("%d pending buffers, expected 1", got)
	}
}
