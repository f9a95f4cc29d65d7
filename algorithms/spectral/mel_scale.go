package spectral

import (
	"math"
)

// MelScale converts between linear frequency and the perceptual mel scale
// and builds triangular mel filter banks
type MelScale struct{}

// NewMelScale creates a new mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mels: mel(f) = 2595 * log10(1 + f/700)
func (ms *MelScale) HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mels back to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// CreateMelFilterBank builds numFilters triangular filters spanning
// [lowFreq, highFreq], each row sized to the positive-frequency bin count
// of an fftSize transform
func (ms *MelScale) CreateMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return nil
	}
	if highFreq <= 0 || highFreq > float64(sampleRate)/2.0 {
		highFreq = float64(sampleRate) / 2.0
	}

	numBins := fftSize/2 + 1

	// Filter center frequencies equally spaced on the mel scale
	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)
	melPoints := make([]float64, numFilters+2)
	for i := range melPoints {
		melPoints[i] = lowMel + (highMel-lowMel)*float64(i)/float64(numFilters+1)
	}

	// Convert mel points to FFT bin indices
	binPoints := make([]int, len(melPoints))
	for i, mel := range melPoints {
		hz := ms.MelToHz(mel)
		binPoints[i] = int(math.Floor((float64(fftSize) + 1.0) * hz / float64(sampleRate)))
		if binPoints[i] >= numBins {
			binPoints[i] = numBins - 1
		}
	}

	filterBank := make([][]float64, numFilters)
	for f := range numFilters {
		filterBank[f] = make([]float64, numBins)

		left := binPoints[f]
		center := binPoints[f+1]
		right := binPoints[f+2]

		for bin := left; bin < center; bin++ {
			if center > left {
				filterBank[f][bin] = float64(bin-left) / float64(center-left)
			}
		}
		for bin := center; bin <= right && bin < numBins; bin++ {
			if right > center {
				filterBank[f][bin] = float64(right-bin) / float64(right-center)
			} else if bin == center {
				// Degenerate filter collapsed to a single bin
				filterBank[f][bin] = 1.0
			}
		}
	}

	return filterBank
}

// ApplyFilterBank computes per-filter energies of a power spectrum
func (ms *MelScale) ApplyFilterBank(powerSpectrum []float64, filterBank [][]float64) []float64 {
	energies := make([]float64, len(filterBank))

	for f, filter := range filterBank {
		sum := 0.0
		bins := len(powerSpectrum)
		if len(filter) < bins {
			bins = len(filter)
		}
		for bin := range bins {
			sum += powerSpectrum[bin] * filter[bin]
		}
		energies[f] = sum
	}

	return energies
}
