// ABOUTME: RTP/UDP PCM ingest feeding a sink
// ABOUTME: Depacketizes RTP payloads into buffers, marker bit ends the stream
package stream

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/pion/rtp"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/Waveline-Audio/waveline-go/pkg/sink"
)

const rtpReadBuffer = 1500

// RTPConfig holds RTP receiver configuration
type RTPConfig struct {
	Port int

	// Format of the PCM carried in the RTP payload
	Format audio.Format
}

// RTPReceiver listens for RTP packets carrying raw PCM and enqueues
// their payloads. A packet with the marker bit set carries the final
// buffer of the stream.
type RTPReceiver struct {
	config RTPConfig
	sink   *sink.Sink

	mu   sync.Mutex
	conn *net.UDPConn
}

// NewRTPReceiver creates an RTP receiver over the given sink
func NewRTPReceiver(config RTPConfig, s *sink.Sink) *RTPReceiver {
	return &RTPReceiver{config: config, sink: s}
}

// Start binds the UDP socket and begins receiving
func (r *RTPReceiver) Start() error {
	addr := &net.UDPAddr{Port: r.config.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("binding rtp socket: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	if err := r.sink.Reserve(); err != nil {
		conn.Close()
		return fmt.Errorf("reserving sink: %w", err)
	}
	if err := r.sink.Configure(r.config.Format); err != nil {
		conn.Close()
		r.sink.Release()
		return err
	}
	if err := r.sink.Start(); err != nil {
		conn.Close()
		r.sink.Release()
		return err
	}

	go r.receive(conn)
	log.Printf("stream: rtp listening on :%d", r.config.Port)
	return nil
}

// Stop closes the socket and winds the sink down
func (r *RTPReceiver) Stop() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	r.sink.Stop()
	return r.sink.Release()
}

func (r *RTPReceiver) receive(conn *net.UDPConn) {
	raw := make([]byte, rtpReadBuffer)

	for {
		n, _, err := conn.ReadFromUDP(raw)
		if err != nil {
			log.Printf("stream: rtp receive ended: %v", err)
			return
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(raw[:n]); err != nil {
			log.Printf("stream: dropping malformed rtp packet: %v", err)
			continue
		}

		r.handlePacket(&pkt)
	}
}

// handlePacket turns one RTP payload into a queued buffer
func (r *RTPReceiver) handlePacket(pkt *rtp.Packet) {
	buf := audio.NewBuffer(len(pkt.Payload))
	copy(buf.Data, pkt.Payload)
	if pkt.Marker {
		buf.SetFlag(audio.FlagFinal)
	}

	if err := r.sink.Enqueue(buf); err != nil {
		log.Printf("stream: rtp enqueue failed: %v", err)
	}
}
