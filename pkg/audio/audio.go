// Package audio captures microphone input for the dictation pipeline.
//
// The capture layer produces fixed-size chunks of 16 kHz mono signed 16-bit
// PCM on a bounded channel. When the consumer falls behind, the newest chunk
// is dropped so the pipeline never blocks the audio callback.
package audio

import (
	"errors"

	"github.com/MrWong99/vocalith/pkg/types"
)

const (
	// SampleRate is the fixed capture sample rate in Hz.
	SampleRate = 16000

	// Channels is the fixed capture channel count.
	Channels = 1

	// ChunkSize is the number of samples per captured chunk.
	ChunkSize = 1024

	// QueueDepth is the capacity of the chunk channel. Chunks arriving while
	// the queue is full are dropped.
	QueueDepth = 100
)

var (
	// ErrDeviceNotFound is returned when the named input device does not exist.
	ErrDeviceNotFound = errors.New("audio: input device not found")

	// ErrStreamOpen is returned when the input stream cannot be opened.
	ErrStreamOpen = errors.New("audio: failed to open input stream")

	// ErrAlreadyStarted is returned when Start is called on a running capture.
	ErrAlreadyStarted = errors.New("audio: capture already started")
)

// Source is anything that produces audio chunks for the pipeline. The channel
// is closed when the source stops, either because Stop was called or because
// the underlying stream failed.
type Source interface {
	// Start begins producing chunks on a fresh channel. Calling Start on a
	// running source is an error; a stopped source may be started again if
	// the implementation supports it (Capture is one-shot, the test source
	// is not).
	Start() error

	// Chunks returns the channel of captured audio. The channel is closed
	// after Stop returns or on unrecoverable stream failure.
	Chunks() <-chan types.AudioChunk

	// Stop halts capture and releases the underlying stream. Stop is
	// idempotent.
	Stop() error
}

// Level computes the normalized loudness of a chunk as the mean absolute
// sample amplitude scaled to [0, 100].
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}
	level := sum / float64(len(samples)) / 327.68
	if level > 100 {
		level = 100
	}
	return level
}
