// Package vosk provides an offline recognition engine backed by the Vosk
// CGO bindings. The libvosk shared library must be available at link time.
package vosk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	vosklib "github.com/alphacep/vosk-api/go"

	"github.com/MrWong99/vocalith/pkg/engine"
)

// Compile-time assertion that Engine satisfies engine.Engine.
var _ engine.Engine = (*Engine)(nil)

const sampleRate = 16000.0

// Engine wraps a Vosk model and recognizer pair. The recognizer carries
// internal state between AcceptWaveform calls, so a mutex guards Recognize
// against concurrent misuse.
type Engine struct {
	mu         sync.Mutex
	model      *vosklib.VoskModel
	recognizer *vosklib.VoskRecognizer
	closed     bool
}

// voskResult is the JSON payload returned by the recognizer.
type voskResult struct {
	Text string `json:"text"`
}

// New loads the Vosk model from the given directory and creates a recognizer
// fixed at 16 kHz. The caller must call Close to free the native resources.
func New(modelPath string) (*Engine, error) {
	if _, err := os.Stat(modelPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", engine.ErrModelNotFound, modelPath)
	}

	model, err := vosklib.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("vosk: load model %q: %w", modelPath, err)
	}

	rec, err := vosklib.NewRecognizer(model, sampleRate)
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("vosk: create recognizer: %w", err)
	}

	return &Engine{model: model, recognizer: rec}, nil
}

// Name identifies the backend.
func (e *Engine) Name() string { return "vosk" }

// Recognize feeds the samples through the recognizer and returns the final
// text. The recognizer is reset afterwards so each call is independent.
func (e *Engine) Recognize(samples []int16) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", engine.ErrClosed
	}

	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	e.recognizer.AcceptWaveform(pcm)
	resultJSON := e.recognizer.FinalResult()
	e.recognizer.Reset()

	var result voskResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return "", fmt.Errorf("vosk: parse result: %w", err)
	}
	return result.Text, nil
}

// Close frees the recognizer and model.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.recognizer.Free()
	e.model.Free()
	return nil
}
