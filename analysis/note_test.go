package analysis

import (
	"math"
	"testing"
)

func TestSemitonesOctaveApart(t *testing.T) {
	a4 := NoteEvent{OnsetMs: 0, PitchHz: 440, DurationMs: 100, Amplitude: 0.5}
	a5 := NoteEvent{OnsetMs: 0, PitchHz: 880, DurationMs: 100, Amplitude: 0.5}

	semitones, ok := a5.SemitonesTo(a4)
	if !ok {
		t.Fatal("expected comparable notes")
	}
	if math.Abs(semitones-12.0) > 1e-9 {
		t.Errorf("880 Hz vs 440 Hz = %v semitones, want 12", semitones)
	}

	down, _ := a4.SemitonesTo(a5)
	if math.Abs(down-(-12.0)) > 1e-9 {
		t.Errorf("440 Hz vs 880 Hz = %v semitones, want -12", down)
	}
}

func TestSemitonesUnvoiced(t *testing.T) {
	voiced := NoteEvent{PitchHz: 440}
	silent := NoteEvent{PitchHz: -1}

	if _, ok := voiced.SemitonesTo(silent); ok {
		t.Error("comparison with unvoiced note should not be possible")
	}
	if silent.Voiced() {
		t.Error("pitch -1 should be unvoiced")
	}
}

func TestMIDINote(t *testing.T) {
	cases := []struct {
		pitch float64
		midi  int
	}{
		{440, 69},  // A4
		{880, 81},  // A5
		{261.63, 60}, // C4
		{-1, -1},
	}

	for _, tc := range cases {
		note := NoteEvent{PitchHz: tc.pitch}
		if got := note.MIDINote(); got != tc.midi {
			t.Errorf("MIDINote(%v Hz) = %d, want %d", tc.pitch, got, tc.midi)
		}
	}
}

func TestTimingOffset(t *testing.T) {
	early := NoteEvent{OnsetMs: 100}
	late := NoteEvent{OnsetMs: 250}

	if got := late.TimingOffsetMs(early); got != 150 {
		t.Errorf("offset = %v, want 150", got)
	}
	if got := early.TimingOffsetMs(late); got != -150 {
		t.Errorf("offset = %v, want -150", got)
	}
}

func TestOverlapsInTime(t *testing.T) {
	a := NoteEvent{OnsetMs: 0, DurationMs: 100}
	b := NoteEvent{OnsetMs: 50, DurationMs: 100}
	c := NoteEvent{OnsetMs: 200, DurationMs: 100}

	if !a.OverlapsInTime(b) {
		t.Error("a and b should overlap")
	}
	if a.OverlapsInTime(c) {
		t.Error("a and c should not overlap")
	}
}

func TestSegmentPitchStream(t *testing.T) {
	// Two stable pitch plateaus separated by a jump well over the
	// segmentation tolerance
	var samples []PitchSample
	for ms := 0.0; ms < 300; ms += 50 {
		samples = append(samples, PitchSample{TimeMs: ms, PitchHz: 440, Probability: 0.9})
	}
	for ms := 300.0; ms < 600; ms += 50 {
		samples = append(samples, PitchSample{TimeMs: ms, PitchHz: 660, Probability: 0.8})
	}

	notes := SegmentPitchStream(samples)
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2: %+v", len(notes), notes)
	}

	if math.Abs(notes[0].PitchHz-440) > 1 {
		t.Errorf("first note pitch = %v, want ~440", notes[0].PitchHz)
	}
	if math.Abs(notes[1].PitchHz-660) > 1 {
		t.Errorf("second note pitch = %v, want ~660", notes[1].PitchHz)
	}
	if notes[0].OnsetMs != 0 || notes[1].OnsetMs != 300 {
		t.Errorf("onsets = %v, %v, want 0, 300", notes[0].OnsetMs, notes[1].OnsetMs)
	}
}

func TestSegmentPitchStreamDropsShortNotes(t *testing.T) {
	// A 40 ms blip between two plateaus is under the minimum duration
	samples := []PitchSample{
		{TimeMs: 0, PitchHz: 440, Probability: 0.9},
		{TimeMs: 100, PitchHz: 440, Probability: 0.9},
		{TimeMs: 200, PitchHz: 700, Probability: 0.9},
		{TimeMs: 240, PitchHz: 440, Probability: 0.9},
		{TimeMs: 340, PitchHz: 440, Probability: 0.9},
	}

	notes := SegmentPitchStream(samples)
	for _, n := range notes {
		if n.DurationMs < MinNoteDurationMs {
			t.Errorf("note shorter than %v ms survived: %+v", MinNoteDurationMs, n)
		}
	}
}

func TestSegmentPitchStreamEmpty(t *testing.T) {
	if notes := SegmentPitchStream(nil); len(notes) != 0 {
		t.Errorf("empty stream produced %d notes", len(notes))
	}
}
