package spectral

import (
	"fmt"
	"math"

	"github.com/encorelab/encore/algorithms/common"
)

// MFCC computes Mel-Frequency Cepstral Coefficients, the compact spectral
// shape descriptor used for voice-timbre comparison
type MFCC struct {
	numCoefficients int
	numMelFilters   int
	sampleRate      int
	lowFreq         float64
	highFreq        float64

	melScale    *MelScale
	filterBank  [][]float64
	dctMatrix   [][]float64
	initialized bool
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"` // Number of MFCC coefficients (default: 13)
	NumMelFilters   int     `json:"num_mel_filters"`  // Number of mel filter bank filters (default: 40)
	LowFreq         float64 `json:"low_freq"`         // Low frequency bound (default: 300)
	HighFreq        float64 `json:"high_freq"`        // High frequency bound (default: sampleRate/2)
}

// DefaultMFCCParams returns the parameter set used throughout the scoring
// pipeline: 13 coefficients over 40 filters spanning 300 Hz to Nyquist
func DefaultMFCCParams(sampleRate int) MFCCParams {
	return MFCCParams{
		NumCoefficients: 13,
		NumMelFilters:   40,
		LowFreq:         300.0,
		HighFreq:        float64(sampleRate) / 2.0,
	}
}

// NewMFCC creates a new MFCC computer with default parameters
func NewMFCC(sampleRate int) *MFCC {
	return NewMFCCWithParams(sampleRate, DefaultMFCCParams(sampleRate))
}

// NewMFCCWithParams creates a new MFCC computer with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) *MFCC {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 13
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 40
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}

	return &MFCC{
		numCoefficients: params.NumCoefficients,
		numMelFilters:   params.NumMelFilters,
		sampleRate:      sampleRate,
		lowFreq:         params.LowFreq,
		highFreq:        params.HighFreq,
		melScale:        NewMelScale(),
	}
}

// Initialize prepares the filter bank and DCT matrix for the given FFT size.
// The filter bank comes from the process-wide cache so concurrent pipelines
// share the immutable matrices.
func (m *MFCC) Initialize(fftSize int) error {
	if fftSize <= 0 {
		return fmt.Errorf("invalid FFT size: %d", fftSize)
	}

	m.filterBank = cachedFilterBank(m.melScale, m.numMelFilters, fftSize, m.sampleRate, m.lowFreq, m.highFreq)
	if len(m.filterBank) == 0 {
		return fmt.Errorf("failed to create mel filter bank")
	}

	m.dctMatrix = cachedDCTMatrix(m.numCoefficients, m.numMelFilters)
	m.initialized = true
	return nil
}

// Compute calculates MFCC coefficients from a magnitude spectrum
func (m *MFCC) Compute(magnitudeSpectrum []float64) ([]float64, error) {
	if len(magnitudeSpectrum) == 0 {
		return nil, fmt.Errorf("empty magnitude spectrum")
	}

	if !m.initialized {
		fftSize := (len(magnitudeSpectrum) - 1) * 2
		if err := m.Initialize(fftSize); err != nil {
			return nil, err
		}
	}

	powerSpectrum := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		powerSpectrum[i] = mag * mag
	}

	melEnergies := m.melScale.ApplyFilterBank(powerSpectrum, m.filterBank)

	logMel := make([]float64, len(melEnergies))
	for i, mel := range melEnergies {
		logMel[i] = common.SafeLog(mel)
	}

	coeffs := make([]float64, m.numCoefficients)
	for k := range m.numCoefficients {
		sum := 0.0
		for n := 0; n < len(logMel) && n < len(m.dctMatrix[k]); n++ {
			sum += logMel[n] * m.dctMatrix[k][n]
		}
		coeffs[k] = sum
	}

	return coeffs, nil
}

// ComputeFrames processes multiple frames of magnitude spectra
func (m *MFCC) ComputeFrames(spectrogram [][]float64) ([][]float64, error) {
	if len(spectrogram) == 0 {
		return [][]float64{}, nil
	}

	mfccFrames := make([][]float64, len(spectrogram))
	for t, magnitudeSpectrum := range spectrogram {
		coeffs, err := m.Compute(magnitudeSpectrum)
		if err != nil {
			return nil, fmt.Errorf("computing MFCC for frame %d: %w", t, err)
		}
		mfccFrames[t] = coeffs
	}

	return mfccFrames, nil
}

// newDCTMatrix creates an orthonormal DCT-II matrix mapping numFilters
// log-mel energies onto numCoefficients cepstral coefficients
func newDCTMatrix(numCoefficients, numFilters int) [][]float64 {
	matrix := make([][]float64, numCoefficients)

	for k := range numCoefficients {
		matrix[k] = make([]float64, numFilters)

		for n := range numFilters {
			matrix[k][n] = math.Cos(math.Pi * float64(k) * (float64(n) + 0.5) / float64(numFilters))

			if k == 0 {
				matrix[k][n] *= math.Sqrt(1.0 / float64(numFilters))
			} else {
				matrix[k][n] *= math.Sqrt(2.0 / float64(numFilters))
			}
		}
	}

	return matrix
}
