package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/MrWong99/vocalith/pkg/types"
)

// Option is a functional option for configuring a Capture.
type Option func(*Capture)

// WithDevice selects the input device by name. An empty name selects the
// system default input device.
func WithDevice(name string) Option {
	return func(c *Capture) {
		c.deviceName = name
	}
}

// WithLevelObserver registers a callback invoked once per captured chunk with
// the chunk's normalized level in [0, 100]. The callback runs on the capture
// goroutine and must not block.
func WithLevelObserver(fn func(level float64)) Option {
	return func(c *Capture) {
		c.onLevel = fn
	}
}

// WithLogger sets the logger used for capture diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Capture) {
		c.log = log
	}
}

// Capture reads microphone audio through PortAudio and delivers fixed-size
// chunks on a bounded channel. It implements Source.
type Capture struct {
	deviceName string
	onLevel    func(float64)
	log        *slog.Logger

	stream *portaudio.Stream
	chunks chan types.AudioChunk
	start  time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  atomic.Bool
	dropped  atomic.Uint64
}

// NewCapture initializes PortAudio and creates a Capture. The caller must
// call Stop to release the stream and terminate PortAudio.
func NewCapture(opts ...Option) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}
	c := &Capture{
		log:    slog.Default(),
		chunks: make(chan types.AudioChunk, QueueDepth),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Start opens the input stream and begins delivering chunks.
func (c *Capture) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	device, err := findInputDevice(c.deviceName)
	if err != nil {
		return err
	}

	buffer := make([]int16, ChunkSize)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(SampleRate),
		FramesPerBuffer: len(buffer),
	}, buffer)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}

	c.stream = stream
	c.start = time.Now()
	c.log.Info("audio capture started",
		"device", device.Name,
		"sample_rate", SampleRate,
		"chunk_size", ChunkSize)

	c.wg.Add(1)
	go c.readLoop(buffer)
	return nil
}

// readLoop blocks on stream reads and forwards copies of the buffer. A full
// chunk channel drops the chunk rather than stalling the stream.
func (c *Capture) readLoop(buffer []int16) {
	defer c.wg.Done()
	defer close(c.chunks)
	for {
		select {
		case <-c.done:
			return
		default:
		}
		if err := c.stream.Read(); err != nil {
			select {
			case <-c.done:
			default:
				c.log.Error("audio stream read failed", "error", err)
			}
			return
		}
		c.enqueue(buffer)
	}
}

// enqueue stamps and copies one stream buffer into the chunk channel. A full
// channel drops the chunk and counts it; the level observer still fires so
// UI meters keep moving under backpressure.
func (c *Capture) enqueue(buffer []int16) {
	if c.onLevel != nil {
		c.onLevel(Level(buffer))
	}
	samples := make([]int16, len(buffer))
	copy(samples, buffer)
	chunk := types.AudioChunk{Samples: samples, Timestamp: c.Elapsed()}
	select {
	case c.chunks <- chunk:
	default:
		c.dropped.Add(1)
	}
}

// Chunks returns the channel of captured audio chunks.
func (c *Capture) Chunks() <-chan types.AudioChunk { return c.chunks }

// Elapsed returns the time since capture started. It reports zero before
// Start is called.
func (c *Capture) Elapsed() time.Duration {
	if c.start.IsZero() {
		return 0
	}
	return time.Since(c.start)
}

// Dropped returns the number of chunks discarded because the consumer fell
// behind.
func (c *Capture) Dropped() uint64 { return c.dropped.Load() }

// Stop halts capture, closes the stream, and terminates PortAudio. It is safe
// to call Stop multiple times.
func (c *Capture) Stop() error {
	c.stopOnce.Do(func() {
		close(c.done)
		if c.stream != nil {
			c.stream.Abort()
			c.wg.Wait()
			c.stream.Close()
		}
		portaudio.Terminate()
		if n := c.dropped.Load(); n > 0 {
			c.log.Warn("audio capture dropped chunks", "count", n)
		}
	})
	return nil
}
