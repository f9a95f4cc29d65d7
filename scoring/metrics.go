package scoring

import (
	"encoding/json"
	"math"

	"github.com/encorelab/encore/algorithms/stats"
	"github.com/encorelab/encore/analysis"
	"github.com/encorelab/encore/rhythm"
)

// Detailed-metrics records serialized into performance scores. Key names
// are a stable contract with stored data and API consumers.

// PitchAccuracyMetrics summarizes melody accuracy
type PitchAccuracyMetrics struct {
	AverageSemitoneDeviation float64 `json:"averageSemitoneDeviation"`
	NotesHitCorrectly        int     `json:"notesHitCorrectly"`
	TotalNotes               int     `json:"totalNotes"`
	AccuracyPercentage       float64 `json:"accuracyPercentage"`
	MaxDeviation             float64 `json:"maxDeviation"`
	PerfectNotesCount        int     `json:"perfectNotesCount"`
}

// RhythmTimingMetrics summarizes note timing
type RhythmTimingMetrics struct {
	AverageTimingOffsetMs float64 `json:"averageTimingOffsetMs"`
	OnTimeNotesCount      int     `json:"onTimeNotesCount"`
	EarlyNotesCount       int     `json:"earlyNotesCount"`
	LateNotesCount        int     `json:"lateNotesCount"`
	MaxTimingErrorMs      float64 `json:"maxTimingErrorMs"`
}

// VoiceSimilarityMetrics summarizes timbre similarity
type VoiceSimilarityMetrics struct {
	MFCCSimilarityScore   float64 `json:"mfccSimilarityScore"`
	SpectralDistance      float64 `json:"spectralDistance"`
	TimbreMatchPercentage float64 `json:"timbreMatchPercentage"`
}

// DetailedMetrics is the full serialized breakdown of a note/voice score
type DetailedMetrics struct {
	PitchAccuracy   PitchAccuracyMetrics   `json:"pitchAccuracy"`
	RhythmTiming    RhythmTimingMetrics    `json:"rhythmTiming"`
	VoiceSimilarity VoiceSimilarityMetrics `json:"voiceSimilarity"`
	OverallScore    float64                `json:"overallScore"`
}

// BuildDetailedMetrics assembles the metrics record for a scored
// performance. Values are rounded here, at the serialization boundary;
// the scores themselves stay full precision.
func (e *Engine) BuildDetailedMetrics(
	userNotes, refNotes []analysis.NoteEvent,
	userMFCCs, refMFCCs [][]float64,
	pitchScore, rhythmScore, voiceScore float64,
	challenge ChallengeType,
) *DetailedMetrics {
	k := pairCount(userNotes, refNotes)

	pitch := PitchAccuracyMetrics{TotalNotes: k}
	timing := RhythmTimingMetrics{}

	totalSemitones := 0.0
	comparable := 0
	for i := range k {
		semitones, ok := userNotes[i].SemitonesTo(refNotes[i])
		if !ok {
			continue
		}
		dev := math.Abs(semitones)
		totalSemitones += dev
		comparable++
		if dev > pitch.MaxDeviation {
			pitch.MaxDeviation = dev
		}
		if dev <= PitchEqualToleranceSemitones {
			pitch.NotesHitCorrectly++
		}

		offset := userNotes[i].TimingOffsetMs(refNotes[i])
		absOffset := math.Abs(offset)
		timing.AverageTimingOffsetMs += absOffset
		if absOffset > timing.MaxTimingErrorMs {
			timing.MaxTimingErrorMs = absOffset
		}
		switch {
		case absOffset <= OnsetEqualToleranceMs:
			timing.OnTimeNotesCount++
		case offset < 0:
			timing.EarlyNotesCount++
		default:
			timing.LateNotesCount++
		}
	}

	if comparable > 0 {
		pitch.AverageSemitoneDeviation = totalSemitones / float64(comparable)
		timing.AverageTimingOffsetMs /= float64(comparable)
	}
	if k > 0 {
		pitch.AccuracyPercentage = float64(pitch.NotesHitCorrectly) / float64(k) * 100.0
	}
	pitch.PerfectNotesCount = pitch.NotesHitCorrectly

	voice := VoiceSimilarityMetrics{
		MFCCSimilarityScore:   voiceScore,
		TimbreMatchPercentage: voiceScore,
	}
	mfccLength := len(userMFCCs)
	if len(refMFCCs) < mfccLength {
		mfccLength = len(refMFCCs)
	}
	if mfccLength > 0 {
		total := 0.0
		for i := range mfccLength {
			total += stats.CosineSimilarity(userMFCCs[i], refMFCCs[i])
		}
		avgSimilarity := total / float64(mfccLength)
		voice.SpectralDistance = 1.0 - (avgSimilarity+1.0)/2.0
	}

	return &DetailedMetrics{
		PitchAccuracy: PitchAccuracyMetrics{
			AverageSemitoneDeviation: round2(pitch.AverageSemitoneDeviation),
			NotesHitCorrectly:        pitch.NotesHitCorrectly,
			TotalNotes:               pitch.TotalNotes,
			AccuracyPercentage:       round2(pitch.AccuracyPercentage),
			MaxDeviation:             round2(pitch.MaxDeviation),
			PerfectNotesCount:        pitch.PerfectNotesCount,
		},
		RhythmTiming: RhythmTimingMetrics{
			AverageTimingOffsetMs: round2(timing.AverageTimingOffsetMs),
			OnTimeNotesCount:      timing.OnTimeNotesCount,
			EarlyNotesCount:       timing.EarlyNotesCount,
			LateNotesCount:        timing.LateNotesCount,
			MaxTimingErrorMs:      round2(timing.MaxTimingErrorMs),
		},
		VoiceSimilarity: VoiceSimilarityMetrics{
			MFCCSimilarityScore:   round2(voice.MFCCSimilarityScore),
			SpectralDistance:      round3(voice.SpectralDistance),
			TimbreMatchPercentage: round2(voice.TimbreMatchPercentage),
		},
		OverallScore: round2(Composite(challenge, pitchScore, rhythmScore, voiceScore)),
	}
}

// RhythmPatternMetrics is the serialized breakdown of a pattern-vs-pattern
// rhythm score
type RhythmPatternMetrics struct {
	ReferencePattern PatternSummary     `json:"referencePattern"`
	UserPattern      PatternSummary     `json:"userPattern"`
	Scoring          RhythmScoreSummary `json:"scoring"`
}

// PatternSummary describes one side of a rhythm comparison
type PatternSummary struct {
	TotalBeats    int    `json:"totalBeats"`
	EstimatedBPM  int    `json:"estimatedBpm"`
	TimeSignature string `json:"timeSignature,omitempty"`
}

// RhythmScoreSummary mirrors the pattern scoring result
type RhythmScoreSummary struct {
	OverallScore     float64 `json:"overallScore"`
	PerfectBeats     int     `json:"perfectBeats"`
	GoodBeats        int     `json:"goodBeats"`
	MissedBeats      int     `json:"missedBeats"`
	AverageErrorMs   float64 `json:"averageErrorMs"`
	MaxErrorMs       float64 `json:"maxErrorMs"`
	ConsistencyScore float64 `json:"consistencyScore"`
	Feedback         string  `json:"feedback"`
}

// BuildRhythmPatternMetrics assembles the rhythm-repeat metrics record
func BuildRhythmPatternMetrics(ref, user *rhythm.Pattern, result *rhythm.Result) *RhythmPatternMetrics {
	return &RhythmPatternMetrics{
		ReferencePattern: PatternSummary{
			TotalBeats:    ref.TotalBeats,
			EstimatedBPM:  ref.EstimatedBPM,
			TimeSignature: ref.TimeSignature,
		},
		UserPattern: PatternSummary{
			TotalBeats:   user.TotalBeats,
			EstimatedBPM: user.EstimatedBPM,
		},
		Scoring: RhythmScoreSummary{
			OverallScore:     round2(result.OverallScore),
			PerfectBeats:     result.PerfectBeats,
			GoodBeats:        result.GoodBeats,
			MissedBeats:      result.MissedBeats,
			AverageErrorMs:   round2(result.AverageErrorMs),
			MaxErrorMs:       round2(result.MaxErrorMs),
			ConsistencyScore: round2(result.ConsistencyScore),
			Feedback:         result.Feedback,
		},
	}
}

// RhythmCreationMetrics is the serialized breakdown of a free-form rhythm
type RhythmCreationMetrics struct {
	TotalBeats        int     `json:"totalBeats"`
	ConsistencyScore  float64 `json:"consistencyScore"`
	CreativityScore   float64 `json:"creativityScore"`
	EstimatedBPM      int     `json:"estimatedBpm,omitempty"`
	AverageIntervalMs float64 `json:"averageIntervalMs,omitempty"`
}

// ErrorMetrics is the degraded metrics record for failed scoring
type ErrorMetrics struct {
	Error string `json:"error"`
}

// MarshalMetrics serializes any metrics record, falling back to an empty
// object so persisted rows never hold invalid JSON
func MarshalMetrics(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

func round2(v float64) float64 {
	return math.Round(v*100.0) / 100.0
}

func round3(v float64) float64 {
	return math.Round(v*1000.0) / 1000.0
}
