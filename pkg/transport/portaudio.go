//go:build portaudio

// ABOUTME: PortAudio-based playback transport
// ABOUTME: Streams submitted buffers through a blocking portaudio stream
package transport

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

const (
	portaudioQueueDepth = 64
	portaudioFrames     = 1024
)

type portaudioJob struct {
	buf      *audio.Buffer
	complete CompleteFunc
}

// PortAudio plays submitted buffers through a blocking portaudio
// stream, chunked at the stream's frame size. One feeder goroutine
// keeps completions in submission order.
type PortAudio struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	out    []int16
	format audio.Format
	jobs   chan portaudioJob
	done   chan struct{}
}

// NewPortAudio creates a portaudio transport. Initializes the
// portaudio runtime on first Open.
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open creates the output stream for the given format
func (p *PortAudio) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		if p.format == format {
			return nil
		}
		return fmt.Errorf("portaudio stream already open at %dHz %dch",
			p.format.SampleRate, p.format.Channels)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	out := make([]int16, portaudioFrames*format.Channels)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels,
		float64(format.SampleRate), portaudioFrames, &out)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting portaudio stream: %w", err)
	}

	p.stream = stream
	p.out = out
	p.format = format
	p.jobs = make(chan portaudioJob, portaudioQueueDepth)
	p.done = make(chan struct{})
	go p.feed()

	log.Printf("transport: portaudio opened %dHz %dch", format.SampleRate, format.Channels)
	return nil
}

// Submit queues a buffer for playback
func (p *PortAudio) Submit(buf *audio.Buffer, complete CompleteFunc, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.jobs == nil {
		return ErrNotOpen
	}

	select {
	case p.jobs <- portaudioJob{buf: buf, complete: complete}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the feeder and shuts the stream down
func (p *PortAudio) Close() error {
	p.mu.Lock()
	jobs, done := p.jobs, p.done
	p.jobs = nil
	p.mu.Unlock()

	if jobs != nil {
		close(jobs)
		<-done
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		p.stream.Stop()
		p.stream.Close()
		p.stream = nil
		portaudio.Terminate()
	}
	return nil
}

func (p *PortAudio) feed() {
	defer close(p.done)

	for job := range p.jobs {
		err := p.play(job.buf)
		job.buf.Cursor = len(job.buf.Data)
		job.complete(job.buf, err)
	}
}

// play writes one buffer to the stream in frame-sized chunks
func (p *PortAudio) play(buf *audio.Buffer) error {
	samples := p.toSamples(buf.Data[buf.Cursor:])

	for off := 0; off < len(samples); off += len(p.out) {
		n := copy(p.out, samples[off:])
		for i := n; i < len(p.out); i++ {
			p.out[i] = 0
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("portaudio write: %w", err)
		}
	}
	return nil
}

// toSamples decodes the buffer's PCM bytes into int16 samples
func (p *PortAudio) toSamples(data []byte) []int16 {
	if p.format.BitsPerSample == 8 {
		samples := make([]int16, len(data))
		for i, b := range data {
			samples[i] = int16(int(b)-128) << 8
		}
		return samples
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
