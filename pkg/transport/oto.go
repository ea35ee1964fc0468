// ABOUTME: Oto-based playback transport
// ABOUTME: Streams submitted buffers through a persistent oto player via a pipe
package transport

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Waveline-Audio/waveline-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

const otoQueueDepth = 64

type otoJob struct {
	buf      *audio.Buffer
	complete CompleteFunc
	timeout  time.Duration
}

// Oto plays submitted buffers through the ebitengine/oto backend. A
// single feeder goroutine writes into a pipe read by a persistent
// player, so completions arrive in submission order and roughly track
// the device consuming the data.
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	pipeWriter *io.PipeWriter
	format     audio.Format
	jobs       chan otoJob
	done       chan struct{}
}

// NewOto creates an oto transport
func NewOto() *Oto {
	return &Oto{}
}

// Open initializes the oto context for the given format. Oto allows
// only one context per process, so a format change after the first
// Open keeps the existing context.
func (o *Oto) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		if o.format != format {
			log.Printf("transport: oto cannot reinitialize, keeping %dHz %dch",
				o.format.SampleRate, o.format.Channels)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("creating oto context: %w", err)
	}
	<-readyChan

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	o.otoCtx = ctx
	o.player = player
	o.pipeWriter = pw
	o.format = format
	o.jobs = make(chan otoJob, otoQueueDepth)
	o.done = make(chan struct{})
	go o.feed()

	log.Printf("transport: oto opened %dHz %dch", format.SampleRate, format.Channels)
	return nil
}

// Submit queues a buffer for playback
func (o *Oto) Submit(buf *audio.Buffer, complete CompleteFunc, timeout time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.jobs == nil {
		return ErrNotOpen
	}

	select {
	case o.jobs <- otoJob{buf: buf, complete: complete, timeout: timeout}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the feeder and tears the player down
func (o *Oto) Close() error {
	o.mu.Lock()
	jobs, done := o.jobs, o.done
	o.jobs = nil
	o.mu.Unlock()

	if jobs != nil {
		close(jobs)
		<-done
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
	}
	if o.player != nil {
		o.player.Close()
	}
	return nil
}

func (o *Oto) feed() {
	defer close(o.done)

	for job := range o.jobs {
		data := job.buf.Data[job.buf.Cursor:]
		if o.format.BitsPerSample == 8 {
			data = expand8to16(data)
		}

		started := time.Now()
		n, err := o.pipeWriter.Write(data)
		if o.format.BitsPerSample == 8 {
			job.buf.Cursor += n / 2
		} else {
			job.buf.Cursor += n
		}

		if err == nil && job.timeout > 0 && time.Since(started) > job.timeout {
			log.Printf("transport: oto transfer exceeded %v timeout", job.timeout)
		}
		job.complete(job.buf, err)
	}
}

// expand8to16 widens unsigned 8-bit PCM to signed 16-bit little endian
func expand8to16(data []byte) []byte {
	out := make([]byte, len(data)*2)
	for i, b := range data {
		s := int16(int(b)-128) << 8
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
