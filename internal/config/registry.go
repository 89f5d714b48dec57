package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/vocalith/pkg/engine"
)

// ErrEngineNotRegistered is returned by CreateEngine when no factory has been
// registered under the requested engine name.
var ErrEngineNotRegistered = errors.New("config: engine not registered")

// EngineFactory builds an offline recognition engine from the loaded config.
// Factories receive the full config so they can resolve model paths and
// language settings.
type EngineFactory func(cfg *Config) (engine.Engine, error)

// Registry maps engine names to their constructor functions. It lets the
// binary decide which CGO-backed engines to link while the rest of the code
// selects them by config name. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	engines map[Engine]EngineFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{engines: make(map[Engine]EngineFactory)}
}

// RegisterEngine registers an engine factory under name. Subsequent calls
// with the same name overwrite the previous registration.
func (r *Registry) RegisterEngine(name Engine, factory EngineFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = factory
}

// CreateEngine instantiates the engine selected by cfg.Speech.Engine.
// Returns [ErrEngineNotRegistered] if no factory has been registered for
// that name.
func (r *Registry) CreateEngine(cfg *Config) (engine.Engine, error) {
	name := cfg.Speech.Engine
	if name == "" {
		name = EngineVosk
	}
	r.mu.RLock()
	factory, ok := r.engines[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEngineNotRegistered, name)
	}
	return factory(cfg)
}

// Engines returns the names of all registered engines.
func (r *Registry) Engines() []Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Engine, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	return names
}
