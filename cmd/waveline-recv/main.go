// ABOUTME: Entry point for the Waveline network receiver
// ABOUTME: Accepts PCM over websocket or RTP and plays it through a sink
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Waveline-Audio/waveline-go/internal/discovery"
	"github.com/Waveline-Audio/waveline-go/internal/stream"
	"github.com/Waveline-Audio/waveline-go/internal/version"
	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/Waveline-Audio/waveline-go/pkg/sink"
	"github.com/Waveline-Audio/waveline-go/pkg/transport"
)

var (
	port     = flag.Int("port", 8937, "WebSocket ingest port")
	rtpPort  = flag.Int("rtp-port", 0, "RTP ingest port (0 = disabled)")
	rtpRate  = flag.Int("rtp-rate", 48000, "Sample rate of RTP payload PCM")
	rtpCh    = flag.Int("rtp-channels", 2, "Channel count of RTP payload PCM")
	name     = flag.String("name", "", "Receiver name for mDNS (default: hostname-waveline)")
	noMDNS   = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	backend  = flag.String("backend", "oto", "Output backend: oto, portaudio, or loopback")
	inFlight = flag.Int("max-inflight", sink.DefaultMaxInFlight, "Concurrent transfers at the output")
)

func main() {
	flag.Parse()

	log.Printf("Starting %s receiver %s", version.Product, version.Version)

	var t transport.Transport
	switch *backend {
	case "oto":
		t = transport.NewOto()
	case "portaudio":
		t = transport.NewPortAudio()
	case "loopback":
		t = transport.NewLoopback(transport.LoopbackConfig{Realtime: true})
	default:
		log.Fatalf("unknown backend %q", *backend)
	}
	defer t.Close()

	s := sink.New(t, nil, sink.Config{
		MaxInFlight: *inFlight,
		OnBufferReturn: func(buf *audio.Buffer, result error) {
			buf.Release()
		},
		OnStreamDone: func() {
			log.Printf("Stream complete")
		},
	})

	server := stream.NewServer(stream.ServerConfig{Port: *port}, s)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start ingest server: %v", err)
	}
	defer server.Stop()

	var rtpRecv *stream.RTPReceiver
	if *rtpPort > 0 {
		rtpRecv = stream.NewRTPReceiver(stream.RTPConfig{
			Port: *rtpPort,
			Format: audio.Format{
				SampleRate:    *rtpRate,
				Channels:      *rtpCh,
				BitsPerSample: 16,
			},
		}, s)
		if err := rtpRecv.Start(); err != nil {
			log.Fatalf("Failed to start RTP receiver: %v", err)
		}
		defer rtpRecv.Stop()
	}

	if !*noMDNS {
		serviceName := *name
		if serviceName == "" {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}
			serviceName = fmt.Sprintf("%s-waveline", hostname)
		}

		mdns := discovery.NewManager(discovery.Config{
			ServiceName: serviceName,
			Port:        *port,
		})
		if err := mdns.Advertise(); err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
		}
		defer mdns.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Printf("Shutdown signal received")
}
