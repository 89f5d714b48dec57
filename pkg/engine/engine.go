// Package engine defines the interface implemented by offline speech
// recognition backends.
//
// An Engine performs batch transcription: the pipeline buffers one utterance
// worth of audio and hands it over in a single call. Streaming recognition is
// handled separately by the soniox package.
package engine

import "errors"

var (
	// ErrModelNotFound is returned when the model path does not exist on disk.
	ErrModelNotFound = errors.New("engine: model not found")

	// ErrClosed is returned by Recognize after Close.
	ErrClosed = errors.New("engine: engine is closed")
)

// Engine transcribes buffered utterances. Implementations are safe for use
// from a single goroutine; the speech manager serializes calls.
type Engine interface {
	// Name identifies the backend ("vosk", "whisper", "mock").
	Name() string

	// Recognize transcribes one utterance of 16 kHz mono PCM samples and
	// returns the raw recognized text. An empty string with a nil error
	// means the engine heard nothing intelligible.
	Recognize(samples []int16) (string, error)

	// Close releases model resources. The engine is unusable afterwards.
	Close() error
}
