package scoring

import (
	"math"
	"testing"

	"github.com/encorelab/encore/analysis"
)

func melody() []analysis.NoteEvent {
	return []analysis.NoteEvent{
		{OnsetMs: 0, PitchHz: 440, DurationMs: 400, Amplitude: 0.8},
		{OnsetMs: 500, PitchHz: 494, DurationMs: 400, Amplitude: 0.7},
		{OnsetMs: 1000, PitchHz: 523, DurationMs: 400, Amplitude: 0.9},
		{OnsetMs: 1500, PitchHz: 587, DurationMs: 400, Amplitude: 0.6},
	}
}

func mfccTrack() [][]float64 {
	track := make([][]float64, 8)
	for i := range track {
		vec := make([]float64, 13)
		for j := range vec {
			vec[j] = math.Sin(float64(i*13+j)) * 2.0
		}
		track[i] = vec
	}
	return track
}

func TestPitchScoreIdentity(t *testing.T) {
	notes := melody()

	score := NewEngine().PitchScoreSemitones(notes, notes)
	if score != 100.0 {
		t.Errorf("identical melodies: pitch score = %v, want 100", score)
	}
}

func TestPitchScoreOneSemitoneOff(t *testing.T) {
	ref := melody()
	user := melody()
	for i := range user {
		user[i].PitchHz = ref[i].PitchHz * math.Pow(2, 1.0/12.0) // +1 semitone
	}

	score := NewEngine().PitchScoreSemitones(user, ref)

	// 1 semitone mean deviation costs 20 points, no accuracy bonus
	if math.Abs(score-80.0) > 0.01 {
		t.Errorf("one semitone sharp: score = %v, want ~80", score)
	}
}

func TestPitchScoreEmptyInput(t *testing.T) {
	if score := NewEngine().PitchScoreSemitones(nil, melody()); score != 0 {
		t.Errorf("empty user notes: score = %v, want 0", score)
	}
}

func TestRhythmScoreIdentity(t *testing.T) {
	notes := melody()

	score := NewEngine().RhythmScoreOnsets(notes, notes)
	if score != 100.0 {
		t.Errorf("identical timing: rhythm score = %v, want 100", score)
	}
}

func TestRhythmScoreLateNotes(t *testing.T) {
	ref := melody()
	user := melody()
	for i := range user {
		user[i].OnsetMs += 200
	}

	score := NewEngine().RhythmScoreOnsets(user, ref)

	// 200 ms average offset: (100 - 20)*0.7 + 0 on-time bonus
	if math.Abs(score-56.0) > 0.01 {
		t.Errorf("200 ms late: score = %v, want ~56", score)
	}
}

func TestVoiceSimilarityIdentity(t *testing.T) {
	track := mfccTrack()

	score := NewEngine().VoiceSimilarityMFCC(track, track)
	if score < 99.99 {
		t.Errorf("identical MFCC tracks: score = %v, want >= 99.99", score)
	}
}

func TestVoiceSimilarityEmpty(t *testing.T) {
	if score := NewEngine().VoiceSimilarityMFCC(nil, mfccTrack()); score != 0 {
		t.Errorf("empty user track: score = %v, want 0", score)
	}
}

func TestCompositeBlends(t *testing.T) {
	pitch, rhythmScore, voice := 80.0, 60.0, 90.0

	singing := Composite(Singing, pitch, rhythmScore, voice)
	wantSinging := 0.5*pitch + 0.3*rhythmScore + 0.2*voice
	if math.Abs(singing-wantSinging) > 1e-9 {
		t.Errorf("SINGING composite = %v, want %v", singing, wantSinging)
	}

	soundMatch := Composite(SoundMatch, pitch, rhythmScore, voice)
	wantSoundMatch := 0.5*pitch + 0.4*voice + 0.1*rhythmScore
	if math.Abs(soundMatch-wantSoundMatch) > 1e-9 {
		t.Errorf("SOUND_MATCH composite = %v, want %v", soundMatch, wantSoundMatch)
	}

	if got := Composite(RhythmRepeat, pitch, rhythmScore, voice); got != rhythmScore {
		t.Errorf("RHYTHM_REPEAT composite = %v, want rhythm score %v", got, rhythmScore)
	}
}

func TestParseChallengeType(t *testing.T) {
	cases := map[string]ChallengeType{
		"SINGING":         Singing,
		"SOUND_MATCH":     SoundMatch,
		"RHYTHM_REPEAT":   RhythmRepeat,
		"RHYTHM_CREATION": RhythmCreation,
		"":                Singing,
		"UNKNOWN":         Singing,
	}

	for input, want := range cases {
		if got := ParseChallengeType(input); got != want {
			t.Errorf("ParseChallengeType(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestScoresAlwaysInRange(t *testing.T) {
	engine := NewEngine()

	// Wildly mismatched inputs must still clamp into [0, 100]
	ref := melody()
	user := []analysis.NoteEvent{
		{OnsetMs: 90000, PitchHz: 50, DurationMs: 100, Amplitude: 1},
		{OnsetMs: 95000, PitchHz: 5000, DurationMs: 100, Amplitude: 1},
	}

	for name, score := range map[string]float64{
		"pitch":  engine.PitchScoreSemitones(user, ref),
		"rhythm": engine.RhythmScoreOnsets(user, ref),
	} {
		if score < 0 || score > 100 || math.IsNaN(score) {
			t.Errorf("%s score %v outside [0, 100]", name, score)
		}
	}
}
