package analysis

import (
	"math"
)

// NoteEvent is one sung or played note: when it starts, its fundamental
// frequency, how long it lasts, and its relative strength.
// Pitch <= 0 means silence or an unvoiced segment.
type NoteEvent struct {
	OnsetMs    float64 `json:"onset_ms"`
	PitchHz    float64 `json:"pitch_hz"`
	DurationMs float64 `json:"duration_ms"`
	Amplitude  float64 `json:"amplitude"` // 0-1
}

// Voiced reports whether the note carries a usable pitch
func (n NoteEvent) Voiced() bool {
	return n.PitchHz > 0
}

// MIDINote converts the pitch to the nearest MIDI note number, or -1 for
// silence. midi = round(69 + 12*log2(pitch/440))
func (n NoteEvent) MIDINote() int {
	if !n.Voiced() {
		return -1
	}
	return int(math.Round(69.0 + 12.0*math.Log2(n.PitchHz/440.0)))
}

// SemitonesTo returns the signed pitch difference from other in semitones:
// 12*log2(this.pitch / other.pitch). The second return is false when either
// note is unvoiced and no comparison is possible.
func (n NoteEvent) SemitonesTo(other NoteEvent) (float64, bool) {
	if !n.Voiced() || !other.Voiced() {
		return 0, false
	}
	return 12.0 * math.Log2(n.PitchHz/other.PitchHz), true
}

// TimingOffsetMs returns how much later (positive) or earlier (negative)
// this note starts relative to other
func (n NoteEvent) TimingOffsetMs(other NoteEvent) float64 {
	return n.OnsetMs - other.OnsetMs
}

// EndMs returns the note's end time
func (n NoteEvent) EndMs() float64 {
	return n.OnsetMs + n.DurationMs
}

// OverlapsInTime reports whether two notes overlap
func (n NoteEvent) OverlapsInTime(other NoteEvent) bool {
	return n.OnsetMs < other.EndMs() && other.OnsetMs < n.EndMs()
}
