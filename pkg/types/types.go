// Package types defines the shared types used across all Vocalith packages.
//
// These types form the lingua franca between the audio layer, the recognition
// engines, and the speech manager. They are intentionally minimal — each
// package defines its own domain types, but cross-cutting data structures live
// here to avoid circular imports.
package types

import "time"

// AudioChunk is a single chunk of audio flowing through the pipeline. Chunks
// are the atomic unit of audio transport: captured from input streams,
// inspected by VAD, and fed to recognition engines. A chunk is immutable once
// produced.
type AudioChunk struct {
	// Samples is signed 16-bit PCM audio, 16 kHz mono.
	Samples []int16

	// Timestamp marks when this chunk was captured, relative to stream start.
	Timestamp time.Duration
}

// RecognitionState is the lifecycle state of a dictation session.
// The speech manager holds exactly one authoritative value at a time.
type RecognitionState int

const (
	// StateIdle means no session is active.
	StateIdle RecognitionState = iota

	// StateListening means audio is being captured and watched for speech.
	StateListening

	// StateProcessing means a buffered utterance is being transcribed.
	// Streaming sessions never enter this state.
	StateProcessing

	// StateError means the session failed and must be restarted by the caller.
	StateError
)

// String returns the lowercase name of the state.
func (s RecognitionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ResultKind discriminates the payload of a SpeechResult.
type ResultKind int

const (
	// ResultPartial carries interim text that may still change.
	ResultPartial ResultKind = iota

	// ResultFinal carries text the recognizer will not revise, after
	// command post-processing.
	ResultFinal

	// ResultAction carries the name of a detected voice action such as
	// "delete_that" or "select_all".
	ResultAction

	// ResultStateChange announces a RecognitionState transition.
	ResultStateChange

	// ResultAudioLevel carries a normalized input level in [0, 100].
	ResultAudioLevel

	// ResultError carries a session-fatal error message.
	ResultError
)

// String returns the lowercase name of the result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultPartial:
		return "partial"
	case ResultFinal:
		return "final"
	case ResultAction:
		return "action"
	case ResultStateChange:
		return "state_change"
	case ResultAudioLevel:
		return "audio_level"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// SpeechResult is a single event emitted by a dictation session. Exactly one
// payload field is meaningful, selected by Kind. Values are immutable once
// produced; consumers receive them from the manager's result channel in the
// order they were generated.
type SpeechResult struct {
	Kind ResultKind

	// Text is set for ResultPartial and ResultFinal.
	Text string

	// Action is set for ResultAction.
	Action string

	// State is set for ResultStateChange.
	State RecognitionState

	// Level is set for ResultAudioLevel, in [0, 100].
	Level float64

	// Message is set for ResultError.
	Message string
}

// Partial builds a ResultPartial event.
func Partial(text string) SpeechResult {
	return SpeechResult{Kind: ResultPartial, Text: text}
}

// Final builds a ResultFinal event.
func Final(text string) SpeechResult {
	return SpeechResult{Kind: ResultFinal, Text: text}
}

// Action builds a ResultAction event.
func Action(name string) SpeechResult {
	return SpeechResult{Kind: ResultAction, Action: name}
}

// StateChange builds a ResultStateChange event.
func StateChange(state RecognitionState) SpeechResult {
	return SpeechResult{Kind: ResultStateChange, State: state}
}

// AudioLevel builds a ResultAudioLevel event.
func AudioLevel(level float64) SpeechResult {
	return SpeechResult{Kind: ResultAudioLevel, Level: level}
}

// Error builds a ResultError event.
func Error(message string) SpeechResult {
	return SpeechResult{Kind: ResultError, Message: message}
}
