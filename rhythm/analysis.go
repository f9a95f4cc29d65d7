package rhythm

import (
	"math"

	"github.com/encorelab/encore/algorithms/common"
	"github.com/encorelab/encore/algorithms/stats"
)

// Free-form rhythm analysis: the rhythm-creation challenge has no
// reference pattern, so it is scored on how regular and how varied the
// user's own beats are.

// AnalyzeConsistency scores how steadily the onsets repeat. With a target
// BPM the expected interval is 60000/bpm; otherwise the user's own mean
// interval. Per-interval error is capped at 100%.
func AnalyzeConsistency(onsetsMs []float64, targetBPM int) float64 {
	if len(onsetsMs) < 2 {
		return 0.0
	}

	intervals := common.Intervals(onsetsMs)

	expectedInterval := common.Mean(intervals)
	if targetBPM > 0 {
		expectedInterval = 60000.0 / float64(targetBPM)
	}
	if expectedInterval <= 0 {
		return 0.0
	}

	sumError := 0.0
	for _, interval := range intervals {
		err := math.Abs(interval-expectedInterval) / expectedInterval
		sumError += math.Min(err, 1.0)
	}

	avgError := sumError / float64(len(intervals))
	return math.Max(0, 100.0*(1.0-avgError))
}

// AnalyzeCreativity scores rhythmic variety: intervals are quantized to
// multiples of the shortest one, and the share of distinct multiples
// drives the score. Patterns under 4 onsets score a neutral 50.
func AnalyzeCreativity(onsetsMs []float64) float64 {
	if len(onsetsMs) < 4 {
		return 50.0
	}

	intervals := common.Intervals(onsetsMs)
	minInterval := common.Min(intervals)
	if minInterval <= 0 {
		minInterval = 0.1
	}

	unique := make(map[int]struct{})
	for _, interval := range intervals {
		unique[int(math.Round(interval/minInterval))] = struct{}{}
	}

	variety := float64(len(unique)) / float64(len(intervals))
	return math.Min(100.0, variety*150.0)
}

// CompareRhythms aligns the interval sequences of two onset lists with
// DTW and maps the normalized distance to a 0-100 score
func CompareRhythms(userOnsetsMs, refOnsetsMs []float64) float64 {
	if len(userOnsetsMs) == 0 || len(refOnsetsMs) == 0 {
		return 0.0
	}

	userIntervals := common.Intervals(userOnsetsMs)
	refIntervals := common.Intervals(refOnsetsMs)

	if len(userIntervals) == 0 || len(refIntervals) == 0 {
		return 0.0
	}

	dtw := stats.NewDTWAlignment()
	result, err := dtw.AlignVectors(userIntervals, refIntervals)
	if err != nil {
		return 0.0
	}

	avgInterval := common.Mean(refIntervals)
	if avgInterval <= 0 {
		return 0.0
	}

	longer := math.Max(float64(len(userIntervals)), float64(len(refIntervals)))
	normalizedDistance := result.Distance / (longer * avgInterval)

	return math.Max(0, 100.0*(1.0-normalizedDistance))
}
