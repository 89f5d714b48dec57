// Package soniox provides a realtime streaming recognition client for the
// Soniox WebSocket API.
//
// A Session streams raw PCM uplink and produces a single ordered result
// stream: partial transcripts, final transcripts, a fatal error, or a close
// notification. Audio is queued on a bounded channel and dropped when the
// uplink falls behind, so capture never blocks on the network.
package soniox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

const (
	endpoint     = "wss://stt-rt.soniox.com/transcribe-websocket"
	defaultModel = "stt-rt-v3"

	sampleRate = 16000
	channels   = 1

	// queueDepth bounds the audio uplink and result downlink channels.
	queueDepth = 100
)

var (
	// ErrMissingAPIKey is returned by New when no API key is provided.
	ErrMissingAPIKey = errors.New("soniox: api key must not be empty")

	// ErrAlreadyConnected is returned by Connect when a session is live.
	ErrAlreadyConnected = errors.New("soniox: already connected")

	// ErrSessionClosed is returned by SendAudio after Close.
	ErrSessionClosed = errors.New("soniox: session is closed")

	// ErrInvalidAPIKey is returned by TestConnection when the server
	// rejects the key.
	ErrInvalidAPIKey = errors.New("soniox: invalid api key")
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithLanguage sets the expected language as a hint for recognition. The
// value "auto" (or empty) sends no hint and enables language identification.
func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

// WithModel overrides the realtime model name.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSpeakerDiarization enables speaker diarization in the session config.
func WithSpeakerDiarization() Option {
	return func(c *Client) { c.diarization = true }
}

// WithLanguageIdentification enables per-token language identification.
func WithLanguageIdentification() Option {
	return func(c *Client) { c.languageID = true }
}

// WithLogger sets the logger used for session diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Client connects dictation sessions to the Soniox realtime API. A Client
// carries credentials and configuration; each Connect call produces an
// independent Session.
type Client struct {
	apiKey      string
	model       string
	language    string
	diarization bool
	languageID  bool
	log         *slog.Logger

	mu      sync.Mutex
	session *Session
}

// New creates a Client. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:   apiKey,
		model:    defaultModel,
		language: "auto",
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Connect dials the realtime endpoint, sends the configuration handshake, and
// starts the uplink and downlink goroutines. Only one session per Client may
// be live at a time.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return nil, ErrAlreadyConnected
	}

	conn, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("soniox: dial: %w", err)
	}

	cfg := c.handshake()
	payload, err := json.Marshal(cfg)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "config marshal failed")
		return nil, fmt.Errorf("soniox: marshal config: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		conn.Close(websocket.StatusInternalError, "config write failed")
		return nil, fmt.Errorf("soniox: send config: %w", err)
	}

	c.log.Info("soniox session connected",
		"model", cfg.Model, "language_hints", cfg.LanguageHints)

	sess := &Session{
		conn:    conn,
		client:  c,
		log:     c.log,
		audio:   make(chan []byte, queueDepth),
		results: make(chan Result, queueDepth),
		done:    make(chan struct{}),
	}
	sess.readWG.Add(1)
	go sess.readLoop(ctx)
	sess.writeWG.Add(1)
	go sess.writeLoop(ctx)

	c.session = sess
	return sess, nil
}

// handshake builds the configuration message for a full dictation session.
func (c *Client) handshake() sessionConfig {
	cfg := sessionConfig{
		APIKey:                  c.apiKey,
		Model:                   c.model,
		AudioFormat:             "pcm_s16le",
		SampleRate:              sampleRate,
		NumChannels:             channels,
		EnableEndpointDetection: true,
		EnableLanguageID:        c.languageID || c.language == "auto" || c.language == "",
	}
	if c.language != "auto" && c.language != "" {
		cfg.LanguageHints = []string{c.language}
	}
	if c.diarization {
		enabled := true
		cfg.EnableDiarization = &enabled
	}
	return cfg
}

// release clears the live session reference so the Client can reconnect.
func (c *Client) release(sess *Session) {
	c.mu.Lock()
	if c.session == sess {
		c.session = nil
	}
	c.mu.Unlock()
}

// Connected reports whether a session is currently live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// ResultKind discriminates session results.
type ResultKind int

const (
	// KindPartial is an interim transcript that may still change.
	KindPartial ResultKind = iota

	// KindFinal is a transcript the server will not revise.
	KindFinal

	// KindError is a fatal server-reported error. The session is dead.
	KindError

	// KindClosed signals the end of the result stream.
	KindClosed
)

// Result is a single downlink event from a Session.
type Result struct {
	Kind ResultKind

	// Text is set for KindPartial and KindFinal.
	Text string

	// Message is set for KindError.
	Message string
}

// Session is a live realtime recognition stream.
type Session struct {
	conn   *websocket.Conn
	client *Client
	log    *slog.Logger

	audio   chan []byte
	results chan Result

	done    chan struct{}
	once    sync.Once
	readWG  sync.WaitGroup
	writeWG sync.WaitGroup
}

// SendAudio queues one chunk of 16 kHz mono samples for the uplink. When the
// queue is full the chunk is dropped rather than blocking the caller.
func (s *Session) SendAudio(samples []int16) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	buf := pcmBytes(samples)

	select {
	case s.audio <- buf:
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	return nil
}

// Results returns the ordered downlink stream. The channel is closed after a
// KindClosed result, which is always the last event.
func (s *Session) Results() <-chan Result { return s.results }

// Close terminates the session. Pending uplink audio is flushed, the server
// connection is closed, and the result channel is drained to completion.
// Close is idempotent.
func (s *Session) Close() error {
	s.once.Do(func() {
		close(s.done)
		// Let the uplink flush its queue before tearing down the
		// connection; closing the connection unblocks the downlink read.
		s.writeWG.Wait()
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
		s.readWG.Wait()
		s.client.release(s)
	})
	return nil
}

// writeLoop forwards queued audio to the server as binary frames.
func (s *Session) writeLoop(ctx context.Context) {
	defer s.writeWG.Done()
	for {
		select {
		case chunk := <-s.audio:
			if err := s.conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
				return
			}
		case <-s.done:
			// Flush whatever is still queued before exiting.
			for {
				select {
				case chunk := <-s.audio:
					if err := s.conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// readLoop receives JSON responses, partitions tokens into final and partial
// text, and dispatches results. Duplicate consecutive partials are dropped.
func (s *Session) readLoop(ctx context.Context) {
	defer s.readWG.Done()
	defer close(s.results)

	var lastPartial string
	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			select {
			case <-s.done:
			default:
				s.log.Info("soniox connection closed", "error", err)
			}
			s.emit(Result{Kind: KindClosed})
			return
		}

		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			s.log.Warn("soniox: unparseable response", "error", err)
			continue
		}

		if resp.ErrorCode != nil {
			message := resp.ErrorMessage
			if message == "" {
				message = fmt.Sprintf("error code %d", *resp.ErrorCode)
			}
			s.log.Error("soniox server error", "code", *resp.ErrorCode, "message", message)
			s.emit(Result{Kind: KindError, Message: message})
			s.emit(Result{Kind: KindClosed})
			return
		}

		lastPartial = routeTokens(resp.Tokens, lastPartial, s.emit)
	}
}

// routeTokens turns one response's tokens into downlink results: final text
// first, then the partial text unless it repeats the previous emission. It
// returns the partial text to compare the next response against.
func routeTokens(tokens []token, lastPartial string, emit func(Result)) string {
	finalText, partialText := splitTokens(tokens)
	if finalText != "" {
		emit(Result{Kind: KindFinal, Text: finalText})
	}
	if partialText == lastPartial {
		return lastPartial
	}
	if partialText != "" {
		emit(Result{Kind: KindPartial, Text: partialText})
	}
	return partialText
}

// emit delivers a result unless the session is shutting down and the consumer
// is gone.
func (s *Session) emit(r Result) {
	select {
	case s.results <- r:
	case <-s.done:
		select {
		case s.results <- r:
		default:
		}
	}
}
