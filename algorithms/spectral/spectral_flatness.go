package spectral

import (
	"math"

	"github.com/encorelab/encore/algorithms/common"
)

// SpectralFlatness computes Wiener entropy: the ratio of the geometric to
// the arithmetic mean of the magnitude spectrum. 1 means noise-like,
// 0 means tonal.
type SpectralFlatness struct{}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{}
}

// Compute calculates flatness for a single magnitude spectrum
func (sf *SpectralFlatness) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	logSum := 0.0
	sum := 0.0
	for _, mag := range spectrum {
		logSum += common.SafeLog(mag)
		sum += mag
	}

	n := float64(len(spectrum))
	geometricMean := math.Exp(logSum / n)
	arithmeticMean := sum / n

	if arithmeticMean == 0 {
		return 0.0
	}

	return geometricMean / arithmeticMean
}
