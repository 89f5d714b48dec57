package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// apiKeyEnv is the environment variable consulted when soniox.api_key is not
// set in the file. Keys belong in the environment, not on disk.
const apiKeyEnv = "SONIOX_API_KEY"

// Load reads the YAML configuration file at path and returns a validated
// [Config]. A missing file yields [Default]. It is a convenience wrapper
// around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config file not found, using defaults", "path", path)
		cfg := Default()
		applyEnv(cfg)
		return cfg, Validate(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults for omitted
// fields, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills credential fields from the environment when the file left
// them empty.
func applyEnv(cfg *Config) {
	if cfg.Soniox.APIKey == "" {
		cfg.Soniox.APIKey = os.Getenv(apiKeyEnv)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Speech.Engine != "" && !cfg.Speech.Engine.IsValid() {
		errs = append(errs, fmt.Errorf("speech.engine %q is invalid; valid values: vosk, whisper, soniox", cfg.Speech.Engine))
	}
	if cfg.Speech.ModelSize != "" && !cfg.Speech.ModelSize.IsValid() {
		errs = append(errs, fmt.Errorf("speech.model_size %q is invalid; valid values: tiny, small, base, medium, large", cfg.Speech.ModelSize))
	}

	// Out-of-range tuning values are clamped by the detector at runtime;
	// warn here so the operator knows the file value is not what runs.
	if cfg.Speech.VADSensitivity != 0 && (cfg.Speech.VADSensitivity < 1 || cfg.Speech.VADSensitivity > 5) {
		slog.Warn("speech.vad_sensitivity out of range [1, 5], value will be clamped",
			"value", cfg.Speech.VADSensitivity)
	}
	if cfg.Speech.SilenceTimeout != 0 && (cfg.Speech.SilenceTimeout < 0.5 || cfg.Speech.SilenceTimeout > 5.0) {
		slog.Warn("speech.silence_timeout out of range [0.5, 5.0], value will be clamped",
			"value", cfg.Speech.SilenceTimeout)
	}

	if cfg.Speech.Engine == EngineSoniox && cfg.Soniox.APIKey == "" {
		errs = append(errs, fmt.Errorf("soniox.api_key is required when speech.engine is soniox (or set %s)", apiKeyEnv))
	}

	return errors.Join(errs...)
}
