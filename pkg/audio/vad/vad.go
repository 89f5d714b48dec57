// Package vad implements a simple energy-based voice activity detector.
//
// The detector tracks mean absolute amplitude per chunk against a
// sensitivity-derived threshold and reports when an utterance has ended, so
// the pipeline knows when to flush buffered audio to a recognition engine.
package vad

import "github.com/MrWong99/vocalith/pkg/audio"

// Decision is the outcome of processing one audio chunk.
type Decision int

const (
	// Listening means no state change: either silence before any speech, or
	// silence after speech that has not yet exceeded the timeout.
	Listening Decision = iota

	// Speech means the chunk contained speech energy.
	Speech

	// FlushNow means the silence timeout elapsed after speech. The caller
	// should hand the buffered utterance to the recognizer. Detector state
	// is reset before this is returned.
	FlushNow
)

// Detector is an energy-based voice activity detector. It is not safe for
// concurrent use; the pipeline owns it from a single goroutine.
type Detector struct {
	sensitivity     int
	silenceTimeout  float64
	silenceDuration float64
	speechDetected  bool
	currentLevel    float64
}

// New creates a Detector. Sensitivity is clamped to [1, 5] and the silence
// timeout to [0.5, 5.0] seconds.
func New(sensitivity int, silenceTimeout float64) *Detector {
	d := &Detector{}
	d.SetSensitivity(sensitivity)
	d.SetSilenceTimeout(silenceTimeout)
	return d
}

// threshold derives the energy threshold from sensitivity. Higher sensitivity
// lowers the threshold, making speech easier to trigger.
func (d *Detector) threshold() float64 {
	s := d.sensitivity
	if s < 1 {
		s = 1
	}
	return 500.0 / float64(s)
}

// Process inspects one chunk of samples and advances the detector state.
func (d *Detector) Process(samples []int16) Decision {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}
	var meanAmplitude float64
	if len(samples) > 0 {
		meanAmplitude = sum / float64(len(samples))
	}

	d.currentLevel = meanAmplitude / 327.68
	if d.currentLevel > 100 {
		d.currentLevel = 100
	}

	chunkDuration := float64(len(samples)) / float64(audio.SampleRate)

	if meanAmplitude < d.threshold() {
		d.silenceDuration += chunkDuration
		if d.silenceDuration > d.silenceTimeout && d.speechDetected {
			d.Reset()
			return FlushNow
		}
		return Listening
	}

	d.speechDetected = true
	d.silenceDuration = 0
	return Speech
}

// Reset clears accumulated state for a new utterance.
func (d *Detector) Reset() {
	d.silenceDuration = 0
	d.speechDetected = false
}

// Level returns the normalized level of the most recent chunk, in [0, 100].
func (d *Detector) Level() float64 { return d.currentLevel }

// HasSpeech reports whether speech was detected since the last reset.
func (d *Detector) HasSpeech() bool { return d.speechDetected }

// SetSensitivity updates the sensitivity, clamped to [1, 5].
func (d *Detector) SetSensitivity(sensitivity int) {
	if sensitivity < 1 {
		sensitivity = 1
	}
	if sensitivity > 5 {
		sensitivity = 5
	}
	d.sensitivity = sensitivity
}

// SetSilenceTimeout updates the silence timeout, clamped to [0.5, 5.0] seconds.
func (d *Detector) SetSilenceTimeout(timeout float64) {
	if timeout < 0.5 {
		timeout = 0.5
	}
	if timeout > 5.0 {
		timeout = 5.0
	}
	d.silenceTimeout = timeout
}
