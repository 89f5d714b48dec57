// Package mock provides a scripted recognition engine for tests.
package mock

import (
	"sync"

	"github.com/MrWong99/vocalith/pkg/engine"
)

// Compile-time assertion that Engine satisfies engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// Result is one scripted Recognize outcome.
type Result struct {
	Text string
	Err  error
}

// Engine returns scripted results in order and records every Recognize call.
// When the script is exhausted it returns empty text.
type Engine struct {
	mu      sync.Mutex
	script  []Result
	calls   [][]int16
	closed  bool
	closeFn func()
}

// New creates an Engine that will return the given results in order.
func New(script ...Result) *Engine {
	return &Engine{script: script}
}

// Name identifies the backend.
func (e *Engine) Name() string { return "mock" }

// Recognize records the call and pops the next scripted result.
func (e *Engine) Recognize(samples []int16) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return "", engine.ErrClosed
	}

	recorded := make([]int16, len(samples))
	copy(recorded, samples)
	e.calls = append(e.calls, recorded)

	if len(e.script) == 0 {
		return "", nil
	}
	r := e.script[0]
	e.script = e.script[1:]
	return r.Text, r.Err
}

// Calls returns the recorded sample slices, one per Recognize call.
func (e *Engine) Calls() [][]int16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]int16, len(e.calls))
	copy(out, e.calls)
	return out
}

// OnClose registers a callback invoked by Close.
func (e *Engine) OnClose(fn func()) { e.closeFn = fn }

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.closeFn != nil {
		e.closeFn()
	}
	return nil
}
