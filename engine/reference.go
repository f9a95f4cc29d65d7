package engine

import (
	"github.com/encorelab/encore/analysis"
	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/rhythm"
)

// LegacyPitchIntervalMs is the sample spacing assumed for stored pitch
// arrays that predate note events
const LegacyPitchIntervalMs = 100.0

// legacyPitchAmplitude is the amplitude assigned to migrated notes, which
// carry no level information
const legacyPitchAmplitude = 0.5

// ReferenceBundle is everything known about the reference side of a
// performance. NoteEvents is the preferred melody shape; PitchData is the
// legacy array of raw pitch values. Audio is optional but required for
// voice similarity. RhythmPattern is optional and used by rhythm
// challenges.
type ReferenceBundle struct {
	NoteEvents []analysis.NoteEvent `json:"note_events,omitempty"`

	// Legacy pitch array, sampled every PitchIntervalMs (100 ms when zero)
	PitchData       []float64 `json:"pitch_data,omitempty"`
	PitchIntervalMs float64   `json:"pitch_interval_ms,omitempty"`

	Audio         *audio.Source   `json:"audio,omitempty"`
	RhythmPattern *rhythm.Pattern `json:"rhythm_pattern,omitempty"`
}

// Notes returns the reference melody, migrating legacy pitch arrays into
// synthetic note events when no typed notes are present
func (b *ReferenceBundle) Notes() []analysis.NoteEvent {
	if len(b.NoteEvents) > 0 {
		return b.NoteEvents
	}
	if len(b.PitchData) == 0 {
		return nil
	}

	interval := b.PitchIntervalMs
	if interval <= 0 {
		interval = LegacyPitchIntervalMs
	}

	notes := make([]analysis.NoteEvent, 0, len(b.PitchData))
	timeMs := 0.0
	for _, pitch := range b.PitchData {
		notes = append(notes, analysis.NoteEvent{
			OnsetMs:    timeMs,
			PitchHz:    pitch,
			DurationMs: interval,
			Amplitude:  legacyPitchAmplitude,
		})
		timeMs += interval
	}
	return notes
}
