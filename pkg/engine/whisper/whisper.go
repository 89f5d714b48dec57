// Package whisper provides an offline recognition engine backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
package whisper

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/vocalith/pkg/engine"
)

// Compile-time assertion that Engine satisfies engine.Engine.
var _ engine.Engine = (*Engine)(nil)

const defaultLanguage = "en"

// Option is a functional option for configuring the whisper Engine.
type Option func(*Engine)

// WithLanguage sets the transcription language code (e.g. "en", "de").
// The value "auto" enables whisper's language detection.
func WithLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

// Engine wraps a whisper.cpp model. The model is loaded once; each Recognize
// call creates a fresh inference context, which is the thread-safety unit in
// whisper.cpp.
type Engine struct {
	model    whisperlib.Model
	language string

	mu     sync.Mutex
	closed bool
}

// New loads the ggml model from the given file path. The caller must call
// Close to release the model.
func New(modelPath string, opts ...Option) (*Engine, error) {
	if _, err := os.Stat(modelPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", engine.ErrModelNotFound, modelPath)
	}

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	e := &Engine{model: model, language: defaultLanguage}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Name identifies the backend.
func (e *Engine) Name() string { return "whisper" }

// Recognize converts the samples to float32, runs inference on a fresh
// context, and returns the concatenated segment text.
func (e *Engine) Recognize(samples []int16) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", engine.ErrClosed
	}

	data := make([]float32, len(samples))
	for i, s := range samples {
		data[i] = float32(s) / 32768.0
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(e.language); err != nil {
		slog.Warn("whisper: failed to set language, using default",
			"language", e.language, "error", err)
	}

	if err := wctx.Process(data, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the whisper model.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.model.Close()
}
