// Package mock provides an in-memory audio Source for tests.
package mock

import (
	"sync"
	"time"

	"github.com/MrWong99/vocalith/pkg/audio"
	"github.com/MrWong99/vocalith/pkg/types"
)

// Source is a scripted audio source. Tests enqueue chunks with Push and close
// the stream with Stop. Starting a stopped source opens a fresh channel, so
// one Source can back several sessions in a row. It implements audio.Source.
type Source struct {
	mu       sync.Mutex
	chunks   chan types.AudioChunk
	capacity int
	pushed   int // total samples pushed, drives chunk timestamps
	stopped  bool
}

// NewSource creates a Source with the given channel capacity.
func NewSource(capacity int) *Source {
	return &Source{
		capacity: capacity,
		chunks:   make(chan types.AudioChunk, capacity),
	}
}

// Start marks the source as running. After Stop it replaces the closed
// channel with a fresh one, mirroring the fresh-queue-per-session behavior
// of the real capture layer.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.chunks = make(chan types.AudioChunk, s.capacity)
		s.pushed = 0
		s.stopped = false
	}
	return nil
}

// Chunks returns the current chunk channel.
func (s *Source) Chunks() <-chan types.AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks
}

// Push enqueues samples as one chunk, stamped as if the audio had been
// captured in real time. It blocks if the channel is full and panics if the
// source was stopped.
func (s *Source) Push(samples []int16) {
	s.mu.Lock()
	ch := s.chunks
	ts := time.Duration(s.pushed) * time.Second / audio.SampleRate
	s.pushed += len(samples)
	s.mu.Unlock()
	ch <- types.AudioChunk{Samples: samples, Timestamp: ts}
}

// Stop closes the chunk channel. Safe to call multiple times.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.chunks)
	}
	return nil
}

// Constant returns a chunk of n samples all set to v. Useful for shaping
// loud and silent test input.
func Constant(n int, v int16) []int16 {
	chunk := make([]int16, n)
	for i := range chunk {
		chunk[i] = v
	}
	return chunk
}
