package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; engine, model, and
// device changes require a session restart and are reported separately.
type ConfigDiff struct {
	VADSensitivityChanged bool
	NewVADSensitivity     int

	SilenceTimeoutChanged bool
	NewSilenceTimeout     float64

	ShowPartialsChanged bool
	NewShowPartials     bool

	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired is true when the change cannot be applied to a
	// running session (engine, model, language, device, or credentials).
	RestartRequired bool
}

// Changed reports whether any hot-reloadable field differs.
func (d ConfigDiff) Changed() bool {
	return d.VADSensitivityChanged || d.SilenceTimeoutChanged ||
		d.ShowPartialsChanged || d.LogLevelChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Speech.VADSensitivity != new.Speech.VADSensitivity {
		d.VADSensitivityChanged = true
		d.NewVADSensitivity = new.Speech.VADSensitivity
	}
	if old.Speech.SilenceTimeout != new.Speech.SilenceTimeout {
		d.SilenceTimeoutChanged = true
		d.NewSilenceTimeout = new.Speech.SilenceTimeout
	}
	if old.Speech.ShowPartialResults != new.Speech.ShowPartialResults {
		d.ShowPartialsChanged = true
		d.NewShowPartials = new.Speech.ShowPartialResults
	}

	if old.Speech.Engine != new.Speech.Engine ||
		old.Speech.ModelSize != new.Speech.ModelSize ||
		old.Speech.Language != new.Speech.Language ||
		old.Speech.ModelsDir != new.Speech.ModelsDir ||
		old.Audio.DeviceName != new.Audio.DeviceName ||
		old.Soniox != new.Soniox {
		d.RestartRequired = true
	}

	return d
}
