package scoring

import (
	"encoding/json"
	"testing"

	"github.com/encorelab/encore/rhythm"
)

func TestDetailedMetricsKeys(t *testing.T) {
	engine := NewEngine()
	notes := melody()
	track := mfccTrack()

	metrics := engine.BuildDetailedMetrics(notes, notes, track, track, 100, 100, 100, Singing)
	data := MarshalMetrics(metrics)

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("metrics are not valid JSON: %v", err)
	}

	for _, key := range []string{"pitchAccuracy", "rhythmTiming", "voiceSimilarity", "overallScore"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}

	pitch := decoded["pitchAccuracy"].(map[string]any)
	for _, key := range []string{"averageSemitoneDeviation", "notesHitCorrectly", "totalNotes", "accuracyPercentage", "maxDeviation"} {
		if _, ok := pitch[key]; !ok {
			t.Errorf("missing pitchAccuracy key %q", key)
		}
	}

	timing := decoded["rhythmTiming"].(map[string]any)
	for _, key := range []string{"averageTimingOffsetMs", "onTimeNotesCount", "earlyNotesCount", "lateNotesCount", "maxTimingErrorMs"} {
		if _, ok := timing[key]; !ok {
			t.Errorf("missing rhythmTiming key %q", key)
		}
	}

	voice := decoded["voiceSimilarity"].(map[string]any)
	for _, key := range []string{"mfccSimilarityScore", "spectralDistance", "timbreMatchPercentage"} {
		if _, ok := voice[key]; !ok {
			t.Errorf("missing voiceSimilarity key %q", key)
		}
	}
}

func TestDetailedMetricsIdentityValues(t *testing.T) {
	engine := NewEngine()
	notes := melody()
	track := mfccTrack()

	metrics := engine.BuildDetailedMetrics(notes, notes, track, track, 100, 100, 100, Singing)

	if metrics.PitchAccuracy.AverageSemitoneDeviation != 0 {
		t.Errorf("identity deviation = %v, want 0", metrics.PitchAccuracy.AverageSemitoneDeviation)
	}
	if metrics.PitchAccuracy.NotesHitCorrectly != len(notes) {
		t.Errorf("notes hit = %d, want %d", metrics.PitchAccuracy.NotesHitCorrectly, len(notes))
	}
	if metrics.PitchAccuracy.AccuracyPercentage != 100 {
		t.Errorf("accuracy = %v, want 100", metrics.PitchAccuracy.AccuracyPercentage)
	}
	if metrics.RhythmTiming.OnTimeNotesCount != len(notes) {
		t.Errorf("on-time = %d, want %d", metrics.RhythmTiming.OnTimeNotesCount, len(notes))
	}
	if metrics.OverallScore != 100 {
		t.Errorf("overall = %v, want 100", metrics.OverallScore)
	}
}

func TestRhythmPatternMetricsKeys(t *testing.T) {
	ref := &rhythm.Pattern{TotalBeats: 4, EstimatedBPM: 120, TimeSignature: "4/4"}
	user := &rhythm.Pattern{TotalBeats: 4, EstimatedBPM: 118}
	result := &rhythm.Result{
		OverallScore:     88.4,
		PerfectBeats:     3,
		GoodBeats:        1,
		AverageErrorMs:   23.5,
		MaxErrorMs:       61.0,
		ConsistencyScore: 91.2,
		Feedback:         "Great rhythm! Very good timing.",
	}

	data := MarshalMetrics(BuildRhythmPatternMetrics(ref, user, result))

	var decoded struct {
		ReferencePattern struct {
			TotalBeats    int    `json:"totalBeats"`
			EstimatedBpm  int    `json:"estimatedBpm"`
			TimeSignature string `json:"timeSignature"`
		} `json:"referencePattern"`
		UserPattern struct {
			TotalBeats int `json:"totalBeats"`
		} `json:"userPattern"`
		Scoring struct {
			OverallScore float64 `json:"overallScore"`
			Feedback     string  `json:"feedback"`
		} `json:"scoring"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if decoded.ReferencePattern.TotalBeats != 4 || decoded.ReferencePattern.EstimatedBpm != 120 {
		t.Errorf("reference pattern fields wrong: %+v", decoded.ReferencePattern)
	}
	if decoded.Scoring.OverallScore != 88.4 {
		t.Errorf("scoring.overallScore = %v, want 88.4", decoded.Scoring.OverallScore)
	}
	if decoded.Scoring.Feedback == "" {
		t.Error("scoring.feedback missing")
	}
}

func TestMarshalMetricsNeverInvalid(t *testing.T) {
	// Channels cannot be marshaled; the fallback must still be valid JSON
	data := MarshalMetrics(map[string]any{"bad": make(chan int)})

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Errorf("fallback is not valid JSON: %s", data)
	}
}
