package spectral

// SpectralFlux measures frame-to-frame spectral change with half-wave
// rectification: only rising magnitudes count, which makes the flux peak
// at note and percussion onsets.
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute returns the rectified flux per frame. The first frame has no
// predecessor and gets flux 0.
func (sf *SpectralFlux) Compute(spectrogram [][]float64) []float64 {
	if len(spectrogram) == 0 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram))

	for t := 1; t < len(spectrogram); t++ {
		sum := 0.0
		prev := spectrogram[t-1]
		curr := spectrogram[t]
		bins := len(curr)
		if len(prev) < bins {
			bins = len(prev)
		}
		for k := range bins {
			diff := curr[k] - prev[k]
			if diff > 0 {
				sum += diff
			}
		}
		flux[t] = sum
	}

	return flux
}
