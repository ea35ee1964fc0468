// ABOUTME: WebSocket PCM ingest server feeding a sink
// ABOUTME: Accepts a sender connection, configures the sink, and enqueues buffers
package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/Waveline-Audio/waveline-go/pkg/sink"
)

// ServerConfig holds ingest server configuration
type ServerConfig struct {
	Port int
	Path string // defaults to /waveline
}

// controlMessage is the JSON control frame senders use
type controlMessage struct {
	Type          string `json:"type"` // "stream/start" or "stream/end"
	SampleRate    int    `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	BitsPerSample int    `json:"bits_per_sample,omitempty"`
}

// Server ingests PCM over a websocket and plays it through a sink.
// One sender at a time, mirroring the sink's single-session model.
type Server struct {
	config ServerConfig
	sink   *sink.Sink

	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu     sync.Mutex
	active bool
}

// NewServer creates an ingest server over the given sink
func NewServer(config ServerConfig, s *sink.Sink) *Server {
	if config.Path == "" {
		config.Path = "/waveline"
	}

	return &Server{
		config: config,
		sink:   s,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start begins listening for sender connections
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleSender)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("stream: listening on :%d%s", s.config.Port, s.config.Path)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("stream: server error: %v", err)
		}
	}()
	return nil
}

// Stop shuts the listener down
func (s *Server) Stop() error {
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// handleSender upgrades a sender connection and pumps its frames into
// the sink until the stream ends or the connection drops.
func (s *Server) handleSender(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		http.Error(w, "stream busy", http.StatusConflict)
		return
	}
	s.active = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := s.sink.Reserve(); err != nil {
		log.Printf("stream: sink busy: %v", err)
		return
	}
	defer s.sink.Release()

	log.Printf("stream: sender connected from %s", r.RemoteAddr)
	s.pump(conn)
}

func (s *Server) pump(conn *websocket.Conn) {
	started := false
	defer func() {
		if started {
			s.sink.Stop()
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("stream: sender gone: %v", err)
			return
		}

		switch msgType {
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("stream: bad control frame: %v", err)
				continue
			}

			switch msg.Type {
			case "stream/start":
				format := audio.Format{
					SampleRate:    msg.SampleRate,
					Channels:      msg.Channels,
					BitsPerSample: msg.BitsPerSample,
				}
				if err := s.sink.Configure(format); err != nil {
					log.Printf("stream: configure failed: %v", err)
					return
				}
				if err := s.sink.Start(); err != nil {
					log.Printf("stream: start failed: %v", err)
					return
				}
				started = true

			case "stream/end":
				// An empty final buffer carries the end-of-stream mark
				buf := audio.NewBuffer(0)
				buf.SetFlag(audio.FlagFinal)
				if err := s.sink.Enqueue(buf); err != nil {
					log.Printf("stream: final enqueue failed: %v", err)
				}
				return

			default:
				log.Printf("stream: ignoring control frame %q", msg.Type)
			}

		case websocket.BinaryMessage:
			// The producer reference is dropped by the sink owner's
			// OnBufferReturn once the buffer comes back
			buf := audio.NewBuffer(len(data))
			copy(buf.Data, data)
			if err := s.sink.Enqueue(buf); err != nil {
				log.Printf("stream: enqueue failed: %v", err)
			}
		}
	}
}
