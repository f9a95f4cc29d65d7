package scoring

import (
	"math"

	"github.com/encorelab/encore/algorithms/common"
	"github.com/encorelab/encore/algorithms/stats"
	"github.com/encorelab/encore/analysis"
	"github.com/encorelab/encore/logging"
)

// Scoring tolerances
const (
	// PitchEqualToleranceSemitones is the deviation still counted as a hit
	PitchEqualToleranceSemitones = 0.5
	// OnsetEqualToleranceMs is the timing offset still counted as on time
	OnsetEqualToleranceMs = 100.0
)

// Engine computes the note and voice sub-scores of a performance
type Engine struct {
	logger logging.Logger
}

// NewEngine creates a scoring engine
func NewEngine() *Engine {
	return &Engine{
		logger: logging.WithFields(logging.Fields{
			"component": "scoring_engine",
		}),
	}
}

// PitchScoreSemitones measures how closely the sung notes match the
// reference melody. Notes pair by index over the shorter sequence; each
// semitone of average deviation costs 20 points, and the share of notes
// within half a semitone earns up to 20 bonus points.
func (e *Engine) PitchScoreSemitones(userNotes, refNotes []analysis.NoteEvent) float64 {
	k := pairCount(userNotes, refNotes)
	if k == 0 {
		return 0.0
	}

	deviations := make([]float64, 0, k)
	perfectNotes := 0

	for i := range k {
		semitones, ok := userNotes[i].SemitonesTo(refNotes[i])
		if !ok {
			continue
		}
		dev := math.Abs(semitones)
		deviations = append(deviations, dev)
		if dev <= PitchEqualToleranceSemitones {
			perfectNotes++
		}
	}

	if len(deviations) == 0 {
		return 0.0
	}

	rawScore := 100.0 - common.Mean(deviations)*20.0
	accuracyBonus := float64(perfectNotes) / float64(k) * 20.0

	return common.ClampScore(rawScore + accuracyBonus)
}

// RhythmScoreOnsets measures whether notes land on the beat. Each 10 ms of
// average offset costs a point; the on-time share earns up to 30 points on
// top of the 70%-weighted base.
func (e *Engine) RhythmScoreOnsets(userNotes, refNotes []analysis.NoteEvent) float64 {
	k := pairCount(userNotes, refNotes)
	if k == 0 {
		return 0.0
	}

	absOffsets := make([]float64, k)
	onTimeNotes := 0

	for i := range k {
		offset := userNotes[i].TimingOffsetMs(refNotes[i])
		absOffsets[i] = math.Abs(offset)
		if absOffsets[i] <= OnsetEqualToleranceMs {
			onTimeNotes++
		}
	}

	timingScore := 100.0 - common.Mean(absOffsets)/10.0
	onTimeBonus := float64(onTimeNotes) / float64(k) * 30.0

	return common.ClampScore(timingScore*0.7 + onTimeBonus)
}

// VoiceSimilarityMFCC measures timbre similarity as the mean per-frame
// cosine similarity of the MFCC tracks, mapped from [-1, 1] to [0, 100]
func (e *Engine) VoiceSimilarityMFCC(userMFCCs, refMFCCs [][]float64) float64 {
	k := len(userMFCCs)
	if len(refMFCCs) < k {
		k = len(refMFCCs)
	}
	if k == 0 {
		return 0.0
	}

	total := 0.0
	for i := range k {
		total += stats.CosineSimilarity(userMFCCs[i], refMFCCs[i])
	}
	avgSimilarity := total / float64(k)

	return common.ClampScore((avgSimilarity + 1.0) / 2.0 * 100.0)
}

func pairCount(userNotes, refNotes []analysis.NoteEvent) int {
	k := len(userNotes)
	if len(refNotes) < k {
		k = len(refNotes)
	}
	return k
}
