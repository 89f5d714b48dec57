package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// voskModels maps model sizes to the Vosk model directory names published on
// alphacephei.com. Sizes without a dedicated model fall back to the nearest
// available one.
var voskModels = map[ModelSize]string{
	ModelTiny:   "vosk-model-small-en-us-0.15",
	ModelSmall:  "vosk-model-small-en-us-0.15",
	ModelBase:   "vosk-model-en-us-0.22",
	ModelMedium: "vosk-model-en-us-0.22",
	ModelLarge:  "vosk-model-en-us-0.22",
}

// whisperModels maps model sizes to ggml model file names as published by the
// whisper.cpp project.
var whisperModels = map[ModelSize]string{
	ModelTiny:   "ggml-tiny.bin",
	ModelSmall:  "ggml-small.bin",
	ModelBase:   "ggml-base.bin",
	ModelMedium: "ggml-medium.bin",
	ModelLarge:  "ggml-large-v3.bin",
}

// systemModelDirs are searched after the user models directory, so packaged
// models installed machine-wide are found without per-user downloads.
var systemModelDirs = []string{
	"/usr/local/share/vocalith/models",
	"/usr/share/vocalith/models",
}

// DefaultModelsDir returns the user model storage directory, following the
// XDG data home convention.
func DefaultModelsDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "vocalith", "models"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "vocalith", "models"), nil
}

// ModelPath resolves the on-disk model location for the configured offline
// engine. The user models directory is searched first, then the system
// directories; when the model exists nowhere the user-directory path is
// returned so callers can report where to download it. The soniox engine has
// no local model and resolves to an empty path.
func ModelPath(speech SpeechConfig) (string, error) {
	if speech.Engine == EngineSoniox {
		return "", nil
	}

	dir := speech.ModelsDir
	if dir == "" {
		var err error
		dir, err = DefaultModelsDir()
		if err != nil {
			return "", err
		}
	}

	name, err := modelName(speech)
	if err != nil {
		return "", err
	}

	for _, d := range append([]string{dir}, systemModelDirs...) {
		p := filepath.Join(d, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, name), nil
}

// modelName returns the engine-specific model directory or file name for the
// configured size.
func modelName(speech SpeechConfig) (string, error) {
	size := speech.ModelSize
	if size == "" {
		size = ModelSmall
	}

	switch speech.Engine {
	case EngineVosk, "":
		name, ok := voskModels[size]
		if !ok {
			return "", fmt.Errorf("config: no vosk model for size %q", size)
		}
		return name, nil
	case EngineWhisper:
		name, ok := whisperModels[size]
		if !ok {
			return "", fmt.Errorf("config: no whisper model for size %q", size)
		}
		return name, nil
	default:
		return "", fmt.Errorf("config: unknown engine %q", speech.Engine)
	}
}
