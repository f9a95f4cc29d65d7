package engine

import (
	"encoding/json"

	"github.com/encorelab/encore/rhythm"
	"github.com/encorelab/encore/scoring"
)

// ScoringResult is the superset result of any challenge. Fields not
// produced by a given challenge are zero.
type ScoringResult struct {
	OverallScore  float64 `json:"overallScore"`
	PitchScore    float64 `json:"pitchScore"`
	RhythmScore   float64 `json:"rhythmScore"`
	VoiceScore    float64 `json:"voiceScore"`
	CombinedScore float64 `json:"combinedScore"`

	// Per-beat diagnostics from rhythm challenges
	PerBeatScores    []float64 `json:"perBeatScores,omitempty"`
	TimingErrorsMs   []float64 `json:"timingErrorsMs,omitempty"`
	AbsoluteErrorsMs []float64 `json:"absoluteErrorsMs,omitempty"`
	PerfectBeats     int       `json:"perfectBeats"`
	GoodBeats        int       `json:"goodBeats"`
	MissedBeats      int       `json:"missedBeats"`
	AverageErrorMs   float64   `json:"averageErrorMs"`
	MaxErrorMs       float64   `json:"maxErrorMs"`
	ConsistencyScore float64   `json:"consistencyScore"`

	Passed   bool   `json:"passed"`
	Feedback string `json:"feedback,omitempty"`

	SoundDetails []rhythm.SoundComparisonDetail `json:"soundDetails,omitempty"`

	DetailedMetrics json.RawMessage `json:"detailedMetrics,omitempty"`
}

// errorResult is the zero-score result the dispatcher emits when a
// challenge fails downstream
func errorResult(err error) *ScoringResult {
	return &ScoringResult{
		DetailedMetrics: scoring.MarshalMetrics(scoring.ErrorMetrics{Error: err.Error()}),
	}
}
