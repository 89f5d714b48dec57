package soniox

import (
	"encoding/binary"
	"strings"
)

// sessionConfig is the JSON handshake sent as the first WebSocket message.
type sessionConfig struct {
	APIKey                  string   `json:"api_key"`
	Model                   string   `json:"model"`
	AudioFormat             string   `json:"audio_format"`
	SampleRate              int      `json:"sample_rate"`
	NumChannels             int      `json:"num_channels"`
	LanguageHints           []string `json:"language_hints,omitempty"`
	EnableEndpointDetection bool     `json:"enable_endpoint_detection"`
	EnableLanguageID        bool     `json:"enable_language_identification"`
	EnableDiarization       *bool    `json:"enable_speaker_diarization,omitempty"`
}

// token is one recognized token in a server response.
type token struct {
	Text       string  `json:"text"`
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
	Speaker    string  `json:"speaker"`
	Language   string  `json:"language"`
}

// response is a server downlink message. Error fields are set instead of
// tokens when the session fails.
type response struct {
	Tokens           []token `json:"tokens"`
	AudioFinalProcMs int64   `json:"audio_final_proc_ms"`
	AudioTotalProcMs int64   `json:"audio_total_proc_ms"`
	ErrorCode        *int    `json:"error_code"`
	ErrorMessage     string  `json:"error_message"`
}

// splitTokens concatenates token text into the final and partial portions of
// a response, preserving token order.
func splitTokens(tokens []token) (finalText, partialText string) {
	var finals, partials strings.Builder
	for _, t := range tokens {
		if t.IsFinal {
			finals.WriteString(t.Text)
		} else {
			partials.WriteString(t.Text)
		}
	}
	return finals.String(), partials.String()
}

// pcmBytes encodes samples as little-endian signed 16-bit PCM, the
// pcm_s16le format declared in the handshake.
func pcmBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
