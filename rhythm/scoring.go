package rhythm

import (
	"context"
	"math"

	"github.com/encorelab/encore/algorithms/common"
	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/logging"
)

// Beat classification and tolerance constants, calibrated against human
// reaction-time data
const (
	// PerfectBeatMs classifies a beat as perfect when its absolute error
	// is below this
	PerfectBeatMs = 50.0
	// GoodBeatMs classifies a beat as good below this
	GoodBeatMs = 150.0
	// MaxDefaultToleranceMs caps the auto-derived tolerance
	MaxDefaultToleranceMs = 150.0
	// BeatCountPenalty is subtracted per extra or missing beat
	BeatCountPenalty = 5.0
	// GoodSoundScore is the per-beat sound score counted as a good match
	GoodSoundScore = 70.0
)

// InsufficientFeedback is the feedback attached to degraded results when
// there are not enough beats to score
const InsufficientFeedback = "Insufficient beats to score"

// ScoreParams are the optional knobs of pattern scoring. Nil pointers take
// pattern or built-in defaults.
type ScoreParams struct {
	ToleranceMs  *float64 `json:"tolerance_ms,omitempty"`
	MinScore     *float64 `json:"min_score,omitempty"`
	TimingWeight *float64 `json:"timing_weight,omitempty"`
	SoundWeight  *float64 `json:"sound_weight,omitempty"`

	// FingerprintOffsetMs shifts user onsets back onto the user audio's
	// absolute timeline when extracting per-beat fingerprints. Zero-based
	// onsets from pattern extraction need the pattern's trimmed start here.
	FingerprintOffsetMs float64 `json:"fingerprint_offset_ms,omitempty"`
}

// SoundComparisonDetail is the per-beat sound similarity breakdown
type SoundComparisonDetail struct {
	BeatIndex            int     `json:"beatIndex"`
	Missed               bool    `json:"missed,omitempty"`
	MFCCSimilarity       float64 `json:"mfccSimilarity"`
	SpectralCentroidRef  float64 `json:"spectralCentroidRef"`
	SpectralCentroidUser float64 `json:"spectralCentroidUser"`
	BrightnessMatch      float64 `json:"brightnessMatch"`
	EnergyMatch          float64 `json:"energyMatch"`
	OverallSoundScore    float64 `json:"overallSoundScore"`
	UserQuality          string  `json:"userQuality"`
	ReferenceQuality     string  `json:"referenceQuality"`
	Feedback             string  `json:"feedback"`
}

// Result is the outcome of scoring user onsets against a reference pattern
type Result struct {
	OverallScore     float64   `json:"overallScore"`
	PerBeatScores    []float64 `json:"perBeatScores"`
	TimingErrorsMs   []float64 `json:"timingErrorsMs"`
	AbsoluteErrorsMs []float64 `json:"absoluteErrorsMs"`
	PerfectBeats     int       `json:"perfectBeats"`
	GoodBeats        int       `json:"goodBeats"`
	MissedBeats      int       `json:"missedBeats"`
	AverageErrorMs   float64   `json:"averageErrorMs"`
	MaxErrorMs       float64   `json:"maxErrorMs"`
	ConsistencyScore float64   `json:"consistencyScore"`
	Passed           bool      `json:"passed"`
	Feedback         string    `json:"feedback"`

	// Sound similarity extension, populated by ScoreWithSoundSimilarity
	TimingWeight           float64                 `json:"timingWeight"`
	SoundWeight            float64                 `json:"soundWeight"`
	SoundSimilarityEnabled bool                    `json:"soundSimilarityEnabled"`
	SoundSimilarityScore   *float64                `json:"soundSimilarityScore,omitempty"`
	PerBeatSoundScores     []float64               `json:"perBeatSoundScores,omitempty"`
	SoundDetails           []SoundComparisonDetail `json:"soundDetails,omitempty"`
	GoodSoundMatches       int                     `json:"goodSoundMatches"`
	AverageBrightnessDiff  float64                 `json:"averageBrightnessDiff"`
	SoundFeedback          string                  `json:"soundFeedback,omitempty"`
	CombinedScore          float64                 `json:"combinedScore"`
}

// ScorePattern scores user onsets against the reference pattern.
//
// Both sequences must share a timeline: reference patterns are stored
// zero-based, and extraction normalizes user onsets the same way, so a
// deliberate uniform lag is scored rather than silently forgiven. Beats
// pair by index and score with exponential decay
// 100*exp(-|err|/tolerance). A beat whose error reaches avgInterval/2 is
// missed and scores 0. A mismatch in beat count costs BeatCountPenalty
// per beat.
func (a *Analyzer) ScorePattern(ref *Pattern, userOnsetsMs []float64, params ScoreParams) *Result {
	logger := a.logger.WithFields(logging.Fields{
		"function":   "ScorePattern",
		"ref_beats":  ref.TotalBeats,
		"user_beats": len(userOnsetsMs),
	})

	minBeats := len(ref.OnsetTimesMs)
	if len(userOnsetsMs) < minBeats {
		minBeats = len(userOnsetsMs)
	}

	if minBeats < 2 {
		logger.Warn("Insufficient beats to score")
		return insufficientResult(params)
	}

	avgInterval := common.Mean(ref.IntervalsMs)
	if avgInterval <= 0 {
		avgInterval = 500
	}

	tolerance := math.Min(MaxDefaultToleranceMs, avgInterval/3.0)
	if params.ToleranceMs != nil {
		tolerance = *params.ToleranceMs
	}
	maxTolerance := avgInterval / 2.0

	perBeatScores := make([]float64, 0, minBeats)
	timingErrors := make([]float64, 0, minBeats)
	absoluteErrors := make([]float64, 0, minBeats)
	perfectBeats := 0
	goodBeats := 0
	missedBeats := 0

	for i := range minBeats {
		err := userOnsetsMs[i] - ref.OnsetTimesMs[i] // negative = early
		absErr := math.Abs(err)

		timingErrors = append(timingErrors, err)
		absoluteErrors = append(absoluteErrors, absErr)

		var beatScore float64
		if absErr >= maxTolerance {
			beatScore = 0.0
			missedBeats++
		} else {
			beatScore = 100.0 * math.Exp(-absErr/tolerance)
			if absErr < PerfectBeatMs {
				perfectBeats++
			} else if absErr < GoodBeatMs {
				goodBeats++
			}
		}
		perBeatScores = append(perBeatScores, beatScore)
	}

	beatCountPenalty := BeatCountPenalty * math.Abs(float64(len(ref.OnsetTimesMs)-len(userOnsetsMs)))
	overall := math.Max(0, common.Mean(perBeatScores)-beatCountPenalty)

	result := &Result{
		OverallScore:     overall,
		PerBeatScores:    perBeatScores,
		TimingErrorsMs:   timingErrors,
		AbsoluteErrorsMs: absoluteErrors,
		PerfectBeats:     perfectBeats,
		GoodBeats:        goodBeats,
		MissedBeats:      missedBeats,
		AverageErrorMs:   common.Mean(absoluteErrors),
		MaxErrorMs:       common.Max(absoluteErrors),
		ConsistencyScore: userConsistency(userOnsetsMs),
		Passed:           params.MinScore == nil || overall >= *params.MinScore,
		Feedback:         timingFeedback(overall),
		TimingWeight:     weightOr(params.TimingWeight, ref.TimingWeight, DefaultTimingWeight),
		SoundWeight:      weightOr(params.SoundWeight, ref.SoundWeight, DefaultSoundWeight),
		CombinedScore:    overall,
	}

	logger.Debug("Pattern scored", logging.Fields{
		"overall":       result.OverallScore,
		"perfect_beats": result.PerfectBeats,
		"missed_beats":  result.MissedBeats,
	})

	return result
}

// ScoreWithSoundSimilarity scores timing first, then compares per-beat
// sound fingerprints when the pattern carries them and user audio is
// available. The combined score blends both by the configured weights.
func (a *Analyzer) ScoreWithSoundSimilarity(ctx context.Context, ref *Pattern, userOnsetsMs []float64, userAudio *audio.Buffer, params ScoreParams) (*Result, error) {
	result := a.ScorePattern(ref, userOnsetsMs, params)
	result.SoundSimilarityEnabled = ref.SoundSimilarityEnabled

	if !ref.SoundSimilarityEnabled || userAudio == nil || len(ref.BeatFingerprints) == 0 {
		result.CombinedScore = result.OverallScore
		return result, nil
	}

	fingerprintOnsets := userOnsetsMs
	if params.FingerprintOffsetMs != 0 {
		fingerprintOnsets = make([]float64, len(userOnsetsMs))
		for i, t := range userOnsetsMs {
			fingerprintOnsets[i] = t + params.FingerprintOffsetMs
		}
	}

	userFingerprints, err := a.fingerprinter.ExtractAt(ctx, userAudio, fingerprintOnsets)
	if err != nil {
		return nil, err
	}

	minBeats := len(ref.BeatFingerprints)
	for _, n := range []int{len(userFingerprints), len(ref.OnsetTimesMs), len(userOnsetsMs)} {
		if n < minBeats {
			minBeats = n
		}
	}

	details := make([]SoundComparisonDetail, 0, ref.TotalBeats)
	perBeatSound := make([]float64, 0, ref.TotalBeats)
	goodMatches := 0
	totalBrightnessDiff := 0.0

	for i := range minBeats {
		detail := CompareFingerprints(ref.BeatFingerprints[i], userFingerprints[i], i)
		details = append(details, detail)
		perBeatSound = append(perBeatSound, detail.OverallSoundScore)

		if detail.OverallSoundScore >= GoodSoundScore {
			goodMatches++
		}
		totalBrightnessDiff += math.Abs(detail.SpectralCentroidRef - detail.SpectralCentroidUser)
	}

	// Beats the user never played still appear in the breakdown
	for i := minBeats; i < ref.TotalBeats; i++ {
		details = append(details, MissedComparison(i))
		perBeatSound = append(perBeatSound, 0.0)
	}

	soundScore := common.Mean(perBeatSound)
	combined := result.OverallScore*result.TimingWeight + soundScore*result.SoundWeight

	result.SoundSimilarityScore = &soundScore
	result.PerBeatSoundScores = perBeatSound
	result.SoundDetails = details
	result.GoodSoundMatches = goodMatches
	if minBeats > 0 {
		result.AverageBrightnessDiff = totalBrightnessDiff / float64(minBeats)
	}
	result.SoundFeedback = aggregateSoundFeedback(soundScore)
	result.Feedback = result.Feedback + " " + result.SoundFeedback
	result.CombinedScore = combined
	result.Passed = params.MinScore == nil || combined >= *params.MinScore

	a.logger.Debug("Sound similarity scored", logging.Fields{
		"timing_score":   result.OverallScore,
		"sound_score":    soundScore,
		"combined_score": combined,
	})

	return result, nil
}

// insufficientResult is the degraded zero result for too few beats
func insufficientResult(params ScoreParams) *Result {
	return &Result{
		PerBeatScores:    []float64{},
		TimingErrorsMs:   []float64{},
		AbsoluteErrorsMs: []float64{},
		Feedback:         InsufficientFeedback,
		Passed:           false,
		TimingWeight:     weightOr(params.TimingWeight, 0, DefaultTimingWeight),
		SoundWeight:      weightOr(params.SoundWeight, 0, DefaultSoundWeight),
	}
}

// userConsistency scores how regular the user's intervals are:
// 100*(1 - 2*stddev/mean) clamped to [0, 100]
func userConsistency(userOnsets []float64) float64 {
	if len(userOnsets) < 2 {
		return 0.0
	}

	intervals := common.Intervals(userOnsets)
	avgInterval := common.Mean(intervals)
	if avgInterval <= 0 {
		return 0.0
	}

	normalizedDeviation := common.StandardDeviation(intervals) / avgInterval
	return common.Clamp(100.0*(1.0-2.0*normalizedDeviation), 0.0, 100.0)
}

func weightOr(override *float64, fromPattern, fallback float64) float64 {
	if override != nil {
		return *override
	}
	if fromPattern > 0 {
		return fromPattern
	}
	return fallback
}

// timingFeedback buckets the overall score into coaching messages
func timingFeedback(score float64) string {
	switch {
	case score >= 90:
		return "Perfect rhythm! Outstanding timing!"
	case score >= 75:
		return "Great rhythm! Very good timing."
	case score >= 60:
		return "Good effort! Keep practicing the timing."
	case score >= 40:
		return "Getting there! Focus on listening to the beat."
	default:
		return "Keep practicing! Try tapping along with the pattern first."
	}
}

// aggregateSoundFeedback buckets the mean sound score
func aggregateSoundFeedback(score float64) string {
	switch {
	case score >= 85:
		return "Excellent sound quality!"
	case score >= 70:
		return "Good sound match."
	case score >= 50:
		return "Sound could be clearer."
	default:
		return "Try to match the reference sound more closely."
	}
}
