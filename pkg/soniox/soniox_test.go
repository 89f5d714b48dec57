package soniox

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(""); err != ErrMissingAPIKey {
		t.Errorf("New(\"\") error = %v, want ErrMissingAPIKey", err)
	}
	c, err := New("key")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Connected() {
		t.Error("Connected() = true for fresh client")
	}
}

func TestHandshake(t *testing.T) {
	tests := []struct {
		name          string
		opts          []Option
		wantHints     []string
		wantLangID    bool
		wantDiarize   bool
		wantEndpoints bool
	}{
		{
			name:          "defaults use auto language",
			wantHints:     nil,
			wantLangID:    true,
			wantEndpoints: true,
		},
		{
			name:          "explicit language sends hint",
			opts:          []Option{WithLanguage("de")},
			wantHints:     []string{"de"},
			wantLangID:    false,
			wantEndpoints: true,
		},
		{
			name:          "auto language enables identification",
			opts:          []Option{WithLanguage("auto")},
			wantHints:     nil,
			wantLangID:    true,
			wantEndpoints: true,
		},
		{
			name:          "diarization option",
			opts:          []Option{WithLanguage("en"), WithSpeakerDiarization()},
			wantHints:     []string{"en"},
			wantDiarize:   true,
			wantEndpoints: true,
		},
		{
			name:          "explicit identification",
			opts:          []Option{WithLanguage("en"), WithLanguageIdentification()},
			wantHints:     []string{"en"},
			wantLangID:    true,
			wantEndpoints: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("key", tt.opts...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			cfg := c.handshake()

			if cfg.APIKey != "key" {
				t.Errorf("APIKey = %q", cfg.APIKey)
			}
			if cfg.Model != defaultModel {
				t.Errorf("Model = %q, want %q", cfg.Model, defaultModel)
			}
			if cfg.AudioFormat != "pcm_s16le" || cfg.SampleRate != 16000 || cfg.NumChannels != 1 {
				t.Errorf("audio format = %q/%d/%d", cfg.AudioFormat, cfg.SampleRate, cfg.NumChannels)
			}
			if len(cfg.LanguageHints) != len(tt.wantHints) {
				t.Errorf("LanguageHints = %v, want %v", cfg.LanguageHints, tt.wantHints)
			}
			for i := range tt.wantHints {
				if cfg.LanguageHints[i] != tt.wantHints[i] {
					t.Errorf("LanguageHints = %v, want %v", cfg.LanguageHints, tt.wantHints)
				}
			}
			if cfg.EnableLanguageID != tt.wantLangID {
				t.Errorf("EnableLanguageID = %v, want %v", cfg.EnableLanguageID, tt.wantLangID)
			}
			if got := cfg.EnableDiarization != nil && *cfg.EnableDiarization; got != tt.wantDiarize {
				t.Errorf("EnableDiarization = %v, want %v", got, tt.wantDiarize)
			}
			if cfg.EnableEndpointDetection != tt.wantEndpoints {
				t.Errorf("EnableEndpointDetection = %v, want %v", cfg.EnableEndpointDetection, tt.wantEndpoints)
			}
		})
	}
}

func TestHandshakeJSONOmitsEmptyFields(t *testing.T) {
	c, err := New("key")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	payload, err := json.Marshal(c.handshake())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(payload)
	if strings.Contains(s, "language_hints") {
		t.Errorf("handshake JSON contains language_hints for auto language: %s", s)
	}
	if strings.Contains(s, "enable_speaker_diarization") {
		t.Errorf("handshake JSON contains diarization when disabled: %s", s)
	}
}

func TestSplitTokens(t *testing.T) {
	tokens := []token{
		{Text: "hello", IsFinal: true},
		{Text: " world", IsFinal: true},
		{Text: " how", IsFinal: false},
		{Text: " are", IsFinal: false},
	}
	finalText, partialText := splitTokens(tokens)
	if finalText != "hello world" {
		t.Errorf("finalText = %q, want %q", finalText, "hello world")
	}
	if partialText != " how are" {
		t.Errorf("partialText = %q, want %q", partialText, " how are")
	}

	finalText, partialText = splitTokens(nil)
	if finalText != "" || partialText != "" {
		t.Errorf("splitTokens(nil) = (%q, %q), want empty", finalText, partialText)
	}
}

func TestRouteTokensSuppressesDuplicatePartials(t *testing.T) {
	var got []Result
	emit := func(r Result) { got = append(got, r) }

	// A mixed response emits the final text first, then the partial.
	last := routeTokens([]token{
		{Text: "hello", IsFinal: true},
		{Text: " world", IsFinal: true},
		{Text: " how", IsFinal: false},
	}, "", emit)
	want := []Result{
		{Kind: KindFinal, Text: "hello world"},
		{Kind: KindPartial, Text: " how"},
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("results = %+v, want %+v", got, want)
	}
	if last != " how" {
		t.Errorf("lastPartial = %q, want %q", last, " how")
	}

	// Repeating the same partial emits nothing.
	got = nil
	last = routeTokens([]token{{Text: " how"}}, last, emit)
	if len(got) != 0 {
		t.Errorf("duplicate partial emitted %+v", got)
	}

	// A grown partial is emitted again.
	got = nil
	last = routeTokens([]token{{Text: " how are"}}, last, emit)
	if len(got) != 1 || got[0] != (Result{Kind: KindPartial, Text: " how are"}) {
		t.Errorf("results = %+v, want one partial", got)
	}

	// An empty response clears the dedup state without emitting, so the
	// same partial can reappear after the server flushes.
	got = nil
	last = routeTokens(nil, last, emit)
	if len(got) != 0 || last != "" {
		t.Errorf("empty response: results = %+v, lastPartial = %q", got, last)
	}
	got = nil
	routeTokens([]token{{Text: " how are"}}, last, emit)
	if len(got) != 1 {
		t.Errorf("partial after clear not re-emitted: %+v", got)
	}
}

func TestResponseParsing(t *testing.T) {
	raw := `{"tokens":[{"text":"hi","start_ms":0,"end_ms":300,"confidence":0.97,"is_final":true,"speaker":"1","language":"en"}],"audio_final_proc_ms":300,"audio_total_proc_ms":450}`
	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.ErrorCode != nil {
		t.Errorf("ErrorCode = %v, want nil", *resp.ErrorCode)
	}
	if len(resp.Tokens) != 1 || resp.Tokens[0].Text != "hi" || !resp.Tokens[0].IsFinal {
		t.Errorf("Tokens = %+v", resp.Tokens)
	}

	raw = `{"error_code":401,"error_message":"invalid api key"}`
	resp = response{}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.ErrorCode == nil || *resp.ErrorCode != 401 {
		t.Errorf("ErrorCode = %v, want 401", resp.ErrorCode)
	}
	if resp.ErrorMessage != "invalid api key" {
		t.Errorf("ErrorMessage = %q", resp.ErrorMessage)
	}
}

func TestPCMBytes(t *testing.T) {
	got := pcmBytes([]int16{0, 1, -1, 256})
	want := []byte{0x00, 0x00, 0x01, 0x00, 0xff, 0xff, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("pcmBytes() = %v, want %v", got, want)
	}
	if len(pcmBytes(nil)) != 0 {
		t.Error("pcmBytes(nil) not empty")
	}
}
