// Package config provides the configuration schema, loader, and engine
// registry for the Vocalith dictation service.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Engine selects the speech recognition backend.
type Engine string

const (
	// EngineVosk uses the offline Vosk recognizer.
	EngineVosk Engine = "vosk"

	// EngineWhisper uses the offline whisper.cpp recognizer.
	EngineWhisper Engine = "whisper"

	// EngineSoniox uses the Soniox realtime cloud API.
	EngineSoniox Engine = "soniox"
)

// IsValid reports whether e is a recognised engine.
func (e Engine) IsValid() bool {
	switch e {
	case EngineVosk, EngineWhisper, EngineSoniox:
		return true
	}
	return false
}

// ModelSize selects the offline model variant to load.
type ModelSize string

const (
	ModelTiny   ModelSize = "tiny"
	ModelSmall  ModelSize = "small"
	ModelBase   ModelSize = "base"
	ModelMedium ModelSize = "medium"
	ModelLarge  ModelSize = "large"
)

// IsValid reports whether m is a recognised model size.
func (m ModelSize) IsValid() bool {
	switch m {
	case ModelTiny, ModelSmall, ModelBase, ModelMedium, ModelLarge:
		return true
	}
	return false
}

// Config is the root configuration structure for Vocalith.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server ServerConfig `yaml:"server"`
	Speech SpeechConfig `yaml:"speech"`
	Audio  AudioConfig  `yaml:"audio"`
	Soniox SonioxConfig `yaml:"soniox"`
}

// ServerConfig holds logging and metrics settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// SpeechConfig holds recognition pipeline settings.
type SpeechConfig struct {
	// Engine selects the recognition backend.
	Engine Engine `yaml:"engine"`

	// Language is the recognition language (e.g., "en-us", "de", "auto").
	Language string `yaml:"language"`

	// ModelSize selects the offline model variant.
	ModelSize ModelSize `yaml:"model_size"`

	// ModelsDir overrides the default model storage directory.
	ModelsDir string `yaml:"models_dir"`

	// VADSensitivity tunes speech detection, 1 (least sensitive) to 5.
	VADSensitivity int `yaml:"vad_sensitivity"`

	// SilenceTimeout is the seconds of silence that end an utterance,
	// clamped to [0.5, 5.0].
	SilenceTimeout float64 `yaml:"silence_timeout"`

	// ShowPartialResults controls whether interim transcripts are emitted.
	ShowPartialResults bool `yaml:"show_partial_results"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	// DeviceName selects the input device. Empty uses the system default.
	DeviceName string `yaml:"device_name"`
}

// SonioxConfig holds the realtime cloud backend settings. The API key may be
// provided via the SONIOX_API_KEY environment variable instead of the file.
type SonioxConfig struct {
	APIKey                 string `yaml:"api_key"`
	SpeakerDiarization     bool   `yaml:"speaker_diarization"`
	LanguageIdentification bool   `yaml:"language_identification"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			LogLevel: LogInfo,
		},
		Speech: SpeechConfig{
			Engine:             EngineVosk,
			Language:           "en-us",
			ModelSize:          ModelSmall,
			VADSensitivity:     3,
			SilenceTimeout:     2.0,
			ShowPartialResults: true,
		},
	}
}
