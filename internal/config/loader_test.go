package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/vocalith/internal/config"
)

func TestLoadFromReader_Valid(t *testing.T) {
	yaml := `
server:
  metrics_addr: ":9090"
  log_level: debug
speech:
  engine: whisper
  language: de
  model_size: base
  models_dir: /opt/models
  vad_sensitivity: 4
  silence_timeout: 1.5
  show_partial_results: true
audio:
  device_name: "USB Microphone"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.MetricsAddr != ":9090" {
		t.Errorf("metrics_addr: got %q", cfg.Server.MetricsAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level: got %q", cfg.Server.LogLevel)
	}
	if cfg.Speech.Engine != config.EngineWhisper {
		t.Errorf("engine: got %q", cfg.Speech.Engine)
	}
	if cfg.Speech.Language != "de" {
		t.Errorf("language: got %q", cfg.Speech.Language)
	}
	if cfg.Speech.ModelSize != config.ModelBase {
		t.Errorf("model_size: got %q", cfg.Speech.ModelSize)
	}
	if cfg.Speech.VADSensitivity != 4 {
		t.Errorf("vad_sensitivity: got %d", cfg.Speech.VADSensitivity)
	}
	if cfg.Speech.SilenceTimeout != 1.5 {
		t.Errorf("silence_timeout: got %v", cfg.Speech.SilenceTimeout)
	}
	if cfg.Audio.DeviceName != "USB Microphone" {
		t.Errorf("device_name: got %q", cfg.Audio.DeviceName)
	}
}

func TestLoadFromReader_DefaultsForOmittedFields(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader("audio:\n  device_name: mic\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Speech.Engine != config.EngineVosk {
		t.Errorf("engine: got %q, want vosk default", cfg.Speech.Engine)
	}
	if cfg.Speech.VADSensitivity != 3 {
		t.Errorf("vad_sensitivity: got %d, want 3", cfg.Speech.VADSensitivity)
	}
	if cfg.Speech.SilenceTimeout != 2.0 {
		t.Errorf("silence_timeout: got %v, want 2.0", cfg.Speech.SilenceTimeout)
	}
	if cfg.Speech.Language != "en-us" {
		t.Errorf("language: got %q, want en-us", cfg.Speech.Language)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("speach:\n  engine: vosk\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level key, got nil")
	}
}

func TestLoadFromReader_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad log level", "server:\n  log_level: loud\n", "log_level"},
		{"bad engine", "speech:\n  engine: dragon\n", "engine"},
		{"bad model size", "speech:\n  model_size: enormous\n", "model_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFromReader(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromReader_SonioxRequiresAPIKey(t *testing.T) {
	yaml := "speech:\n  engine: soniox\n"

	t.Setenv("SONIOX_API_KEY", "")
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for missing api key, got nil")
	}

	t.Setenv("SONIOX_API_KEY", "key-from-env")
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error with env key: %v", err)
	}
	if cfg.Soniox.APIKey != "key-from-env" {
		t.Errorf("api key: got %q, want env value", cfg.Soniox.APIKey)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("/nonexistent/vocalith.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Speech.Engine != config.EngineVosk {
		t.Errorf("engine: got %q, want vosk", cfg.Speech.Engine)
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Server.LogLevel = "loud"
	cfg.Speech.Engine = "dragon"

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "log_level") || !strings.Contains(msg, "engine") {
		t.Errorf("joined error missing parts: %q", msg)
	}
}

func TestValidate_ErrorsAreUnwrappable(t *testing.T) {
	cfg := config.Default()
	cfg.Speech.Engine = config.EngineSoniox

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) && !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error = %q, want api_key mention", err)
	}
}
