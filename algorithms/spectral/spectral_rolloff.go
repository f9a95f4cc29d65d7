package spectral

// DefaultRolloffFraction is the cumulative-energy fraction used for
// rolloff computation
const DefaultRolloffFraction = 0.85

// SpectralRolloff computes the frequency below which a given fraction of
// the total spectral energy resides
type SpectralRolloff struct {
	sampleRate  int
	freqBins    []float64 // Pre-calculated frequency bins
	initialized bool
}

// NewSpectralRolloff creates a new spectral rolloff calculator
func NewSpectralRolloff(sampleRate int) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
	}
}

// Compute calculates spectral rolloff for a single magnitude spectrum.
// fraction is typically 0.85 for the 85th energy percentile.
func (sr *SpectralRolloff) Compute(spectrum []float64, fraction float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	if !sr.initialized || len(sr.freqBins) != len(spectrum) {
		sr.initializeFreqBins(len(spectrum))
	}

	totalEnergy := 0.0
	for _, mag := range spectrum {
		totalEnergy += mag * mag
	}

	if totalEnergy == 0 {
		return 0
	}

	targetEnergy := fraction * totalEnergy
	cumulativeEnergy := 0.0

	for i := range spectrum {
		cumulativeEnergy += spectrum[i] * spectrum[i]
		if cumulativeEnergy >= targetEnergy {
			return sr.freqBins[i]
		}
	}

	return sr.freqBins[len(sr.freqBins)-1]
}

// initializeFreqBins pre-calculates frequency bins
func (sr *SpectralRolloff) initializeFreqBins(numBins int) {
	sr.freqBins = make([]float64, numBins)
	for i := range numBins {
		sr.freqBins[i] = float64(i) * float64(sr.sampleRate) / float64((numBins-1)*2)
	}
	sr.initialized = true
}
