// Package speech coordinates the dictation pipeline: audio capture, voice
// activity detection, recognition backends, and command post-processing.
//
// A Manager owns one dictation session at a time. Offline engines (vosk,
// whisper) run a VAD-gated buffer loop: chunks accumulate until a silence
// timeout flushes them through the engine in one batch. The soniox backend
// streams chunks to the cloud and routes results as they arrive. Both paths
// emit the same ordered [types.SpeechResult] stream.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/vocalith/internal/config"
	"github.com/MrWong99/vocalith/internal/observe"
	"github.com/MrWong99/vocalith/pkg/audio"
	"github.com/MrWong99/vocalith/pkg/audio/vad"
	"github.com/MrWong99/vocalith/pkg/command"
	"github.com/MrWong99/vocalith/pkg/engine"
	"github.com/MrWong99/vocalith/pkg/soniox"
	"github.com/MrWong99/vocalith/pkg/types"
)

// resultQueueDepth bounds the outbound result channel. Results are dropped
// when the consumer falls behind rather than stalling recognition.
const resultQueueDepth = 100

var (
	// ErrMissingAPIKey is returned by Start when the soniox engine is
	// selected without an API key.
	ErrMissingAPIKey = errors.New("speech: soniox api key not configured")

	// ErrNoEngine is returned by Start when an offline engine is selected
	// but none was provided.
	ErrNoEngine = errors.New("speech: no recognition engine configured")
)

// Option is a functional option for configuring a Manager.
type Option func(*Manager)

// WithSource overrides the audio source. The default is a PortAudio capture
// built fresh for each session. An injected source is kept across sessions,
// so it must support being started again after Stop.
func WithSource(src audio.Source) Option {
	return func(m *Manager) { m.source = src }
}

// WithEngine sets the offline recognition engine used for the vosk and
// whisper backends.
func WithEngine(eng engine.Engine) Option {
	return func(m *Manager) { m.engine = eng }
}

// WithSonioxClient overrides the realtime client. The default is built from
// the config at Start.
func WithSonioxClient(client *soniox.Client) Option {
	return func(m *Manager) { m.cloud = client }
}

// WithLogger sets the logger used for session diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMetrics overrides the metrics sink. The default is
// [observe.DefaultMetrics].
func WithMetrics(metrics *observe.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// Manager runs dictation sessions and publishes recognition results.
type Manager struct {
	log     *slog.Logger
	metrics *observe.Metrics
	proc    *command.Processor

	cfgMu sync.Mutex
	cfg   *config.Config

	source     audio.Source
	ownsSource bool
	engine     engine.Engine
	cloud      *soniox.Client
	ownsCloud  bool

	results chan types.SpeechResult

	stateMu sync.Mutex
	state   types.RecognitionState

	vadMu    sync.Mutex
	detector *vad.Detector

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
	session *soniox.Session

	showPartials atomic.Bool
}

// NewManager creates a Manager for the given configuration. Start must be
// called to begin recognition.
func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:     cfg,
		log:     slog.Default(),
		proc:    command.NewProcessor(),
		results: make(chan types.SpeechResult, resultQueueDepth),
		state:   types.StateIdle,
	}
	m.showPartials.Store(cfg.Speech.ShowPartialResults)
	for _, o := range opts {
		o(m)
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}
	return m
}

// Results returns the ordered result stream. Events are dropped when the
// consumer falls behind; the channel is never closed while the Manager lives.
func (m *Manager) Results() <-chan types.SpeechResult { return m.results }

// State returns the current recognition state.
func (m *Manager) State() types.RecognitionState {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state
}

// Running reports whether a session is active.
func (m *Manager) Running() bool { return m.running.Load() }

// Config returns a copy of the configuration the next Start will use.
func (m *Manager) Config() *config.Config {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	snapshot := *m.cfg
	return &snapshot
}

// UpdateConfig replaces the configuration used by the next Start. A running
// session is unaffected except for partial-result visibility, which applies
// immediately.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.cfgMu.Lock()
	m.cfg = cfg
	m.cfgMu.Unlock()
	m.showPartials.Store(cfg.Speech.ShowPartialResults)
}

// Start begins a dictation session. Calling Start on a running Manager is a
// no-op. On failure the Manager transitions to StateError and the error is
// returned.
func (m *Manager) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return nil
	}
	m.done = make(chan struct{})

	// One snapshot per session; UpdateConfig only affects the next Start.
	cfg := m.Config()

	eng := cfg.Speech.Engine
	if eng == "" {
		eng = config.EngineVosk
	}
	m.log.Info("starting speech recognition", "engine", string(eng))

	var err error
	switch eng {
	case config.EngineSoniox:
		err = m.startRealtime(ctx, cfg)
	default:
		err = m.startOffline(ctx, cfg)
	}
	if err != nil {
		m.running.Store(false)
		m.setState(types.StateError)
		return err
	}

	m.metrics.ActiveSessions.Add(ctx, 1)
	m.setState(types.StateListening)
	return nil
}

// Stop ends the session, releases the audio source, and returns the Manager
// to StateIdle. Stop is idempotent.
func (m *Manager) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	m.log.Info("stopping speech recognition")
	close(m.done)

	if m.source != nil {
		m.source.Stop()
	}
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	m.wg.Wait()

	ctx := context.Background()
	m.metrics.ActiveSessions.Add(ctx, -1)
	if capture, ok := m.source.(*audio.Capture); ok {
		if n := capture.Dropped(); n > 0 {
			m.metrics.DroppedChunks.Add(ctx, int64(n))
		}
	}

	// Manager-built resources are one-shot and rebuilt from the config on
	// the next Start; injected ones stay and are restarted.
	if m.ownsSource {
		m.source = nil
		m.ownsSource = false
	}
	if m.ownsCloud {
		m.cloud = nil
		m.ownsCloud = false
	}

	m.setState(types.StateIdle)
}

// Retune adjusts voice activity detection of a live offline session. Values
// are clamped by the detector. It is a no-op for realtime sessions.
func (m *Manager) Retune(sensitivity int, silenceTimeout float64) {
	m.cfgMu.Lock()
	m.cfg.Speech.VADSensitivity = sensitivity
	m.cfg.Speech.SilenceTimeout = silenceTimeout
	m.cfgMu.Unlock()

	m.vadMu.Lock()
	defer m.vadMu.Unlock()
	if m.detector != nil {
		m.detector.SetSensitivity(sensitivity)
		m.detector.SetSilenceTimeout(silenceTimeout)
		m.log.Info("vad retuned", "sensitivity", sensitivity, "silence_timeout", silenceTimeout)
	}
}

// SetShowPartials toggles interim transcript emission for realtime sessions.
func (m *Manager) SetShowPartials(show bool) {
	m.showPartials.Store(show)
}

// setState records the new state and announces it on the result stream.
func (m *Manager) setState(s types.RecognitionState) {
	m.stateMu.Lock()
	m.state = s
	m.stateMu.Unlock()
	m.emit(types.StateChange(s))
}

// emit delivers a result without blocking; events are dropped when the
// consumer lags.
func (m *Manager) emit(r types.SpeechResult) {
	select {
	case m.results <- r:
	default:
	}
}

// ensureSource builds the default PortAudio capture when none was injected.
func (m *Manager) ensureSource(cfg *config.Config) error {
	if m.source != nil {
		return m.source.Start()
	}
	capture, err := audio.NewCapture(
		audio.WithDevice(cfg.Audio.DeviceName),
		audio.WithLogger(m.log),
	)
	if err != nil {
		return err
	}
	if err := capture.Start(); err != nil {
		capture.Stop()
		return err
	}
	m.source = capture
	m.ownsSource = true
	return nil
}

// startOffline runs the VAD-gated buffer loop against the offline engine.
func (m *Manager) startOffline(ctx context.Context, cfg *config.Config) error {
	if m.engine == nil {
		return ErrNoEngine
	}
	if err := m.ensureSource(cfg); err != nil {
		return fmt.Errorf("speech: start capture: %w", err)
	}

	m.vadMu.Lock()
	m.detector = vad.New(cfg.Speech.VADSensitivity, cfg.Speech.SilenceTimeout)
	m.vadMu.Unlock()

	m.wg.Add(1)
	go m.offlineLoop(ctx, m.source.Chunks())
	return nil
}

// offlineLoop consumes chunks until the source closes or Stop is called.
// Each chunk produces an audio level event; buffered speech is flushed to the
// engine when the detector reports the end of an utterance.
func (m *Manager) offlineLoop(ctx context.Context, chunks <-chan types.AudioChunk) {
	defer m.wg.Done()

	var buffer []int16
	for {
		select {
		case <-m.done:
			return
		case chunk, ok := <-chunks:
			if !ok {
				return
			}

			m.vadMu.Lock()
			decision := m.detector.Process(chunk.Samples)
			level := m.detector.Level()
			m.vadMu.Unlock()

			m.emit(types.AudioLevel(level))
			m.metrics.AudioLevel.Record(ctx, level)

			if decision != vad.FlushNow {
				buffer = append(buffer, chunk.Samples...)
				continue
			}
			if len(buffer) == 0 {
				continue
			}

			m.setState(types.StateProcessing)
			m.recognize(ctx, buffer)
			buffer = buffer[:0]
			m.setState(types.StateListening)
		}
	}
}

// recognize transcribes one buffered utterance and emits the post-processed
// results. Recognition failures are logged and counted but do not end the
// session.
func (m *Manager) recognize(ctx context.Context, buffer []int16) {
	audioSeconds := float64(len(buffer)) / float64(audio.SampleRate)
	m.metrics.UtteranceDuration.Record(ctx, audioSeconds)

	start := time.Now()
	text, err := m.engine.Recognize(buffer)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		m.log.Warn("recognition failed", "engine", m.engine.Name(), "error", err)
		m.metrics.RecordUtterance(ctx, m.engine.Name(), "error", elapsed)
		m.metrics.RecordEngineError(ctx, m.engine.Name())
		return
	}
	m.metrics.RecordUtterance(ctx, m.engine.Name(), "ok", elapsed)
	if text == "" {
		return
	}

	m.publishFinal(ctx, text)
}

// publishFinal runs command post-processing on recognized text and emits the
// resulting events in order: the final text, then each action.
func (m *Manager) publishFinal(ctx context.Context, text string) {
	processed, actions := m.proc.Process(text)
	if processed != "" {
		m.emit(types.Final(processed))
	}
	for _, action := range actions {
		m.emit(types.Action(action))
		m.metrics.RecordAction(ctx, action)
	}
}

// startRealtime connects the soniox session and spawns the uplink forwarder
// and downlink router.
func (m *Manager) startRealtime(ctx context.Context, cfg *config.Config) error {
	if m.cloud == nil {
		if cfg.Soniox.APIKey == "" {
			return ErrMissingAPIKey
		}
		opts := []soniox.Option{
			soniox.WithLanguage(cfg.Speech.Language),
			soniox.WithLogger(m.log),
		}
		if cfg.Soniox.SpeakerDiarization {
			opts = append(opts, soniox.WithSpeakerDiarization())
		}
		if cfg.Soniox.LanguageIdentification {
			opts = append(opts, soniox.WithLanguageIdentification())
		}
		client, err := soniox.New(cfg.Soniox.APIKey, opts...)
		if err != nil {
			return err
		}
		m.cloud = client
		m.ownsCloud = true
	}

	session, err := m.cloud.Connect(ctx)
	if err != nil {
		return fmt.Errorf("speech: connect realtime backend: %w", err)
	}

	if err := m.ensureSource(cfg); err != nil {
		session.Close()
		return fmt.Errorf("speech: start capture: %w", err)
	}
	m.session = session

	m.wg.Add(2)
	go m.uplinkLoop(session, m.source.Chunks())
	go m.downlinkLoop(ctx, session)
	return nil
}

// uplinkLoop forwards captured chunks to the realtime session.
func (m *Manager) uplinkLoop(session *soniox.Session, chunks <-chan types.AudioChunk) {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			m.emit(types.AudioLevel(audio.Level(chunk.Samples)))
			if err := session.SendAudio(chunk.Samples); err != nil {
				return
			}
		}
	}
}

// downlinkLoop routes realtime results onto the manager's result stream.
// A server error ends the session with StateError.
func (m *Manager) downlinkLoop(ctx context.Context, session *soniox.Session) {
	defer m.wg.Done()
	for result := range session.Results() {
		switch result.Kind {
		case soniox.KindPartial:
			if m.showPartials.Load() {
				m.emit(types.Partial(result.Text))
			}
		case soniox.KindFinal:
			m.publishFinal(ctx, result.Text)
		case soniox.KindError:
			m.emit(types.Error(result.Message))
			m.setState(types.StateError)
		case soniox.KindClosed:
			return
		}
	}
}
