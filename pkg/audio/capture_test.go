package audio

import (
	"log/slog"
	"testing"
	"time"

	"github.com/MrWong99/vocalith/pkg/types"
)

// bareCapture builds a Capture around a small chunk channel without touching
// PortAudio, so the enqueue path can be exercised directly.
func bareCapture(capacity int, onLevel func(float64)) *Capture {
	return &Capture{
		log:     slog.Default(),
		chunks:  make(chan types.AudioChunk, capacity),
		onLevel: onLevel,
	}
}

func TestEnqueueDropsNewestWhenFull(t *testing.T) {
	var levels int
	c := bareCapture(2, func(float64) { levels++ })

	buffer := make([]int16, ChunkSize)
	for i := range buffer {
		buffer[i] = 1000
	}

	for i := 0; i < 5; i++ {
		c.enqueue(buffer)
	}

	if got := c.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if got := len(c.chunks); got != 2 {
		t.Errorf("queued chunks = %d, want 2", got)
	}
	// The level observer fires for every buffer, dropped or not.
	if levels != 5 {
		t.Errorf("level observer calls = %d, want 5", levels)
	}
}

func TestEnqueueCopiesBuffer(t *testing.T) {
	c := bareCapture(1, nil)

	buffer := []int16{1, 2, 3}
	c.enqueue(buffer)
	buffer[0] = 99

	chunk := <-c.chunks
	if chunk.Samples[0] != 1 {
		t.Errorf("Samples[0] = %d, want 1; chunk aliases the stream buffer", chunk.Samples[0])
	}
}

func TestEnqueueStampsChunks(t *testing.T) {
	c := bareCapture(2, nil)
	c.start = time.Now().Add(-time.Second)

	c.enqueue([]int16{0})
	chunk := <-c.chunks
	if chunk.Timestamp < time.Second {
		t.Errorf("Timestamp = %v, want at least 1s since stream start", chunk.Timestamp)
	}
}
