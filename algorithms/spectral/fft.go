package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality backed by mjibson/go-dsp
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real-valued signal
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// Magnitude computes the single-sided magnitude spectrum of a real signal.
// The result has len(x)/2 + 1 bins (DC through Nyquist).
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	if bins > len(spectrum) {
		bins = len(spectrum)
	}

	magnitude := make([]float64, bins)
	for i := range bins {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}

	return magnitude
}

// Power computes the single-sided power spectrum of a real signal
func (f *FFT) Power(x []float64) []float64 {
	magnitude := f.Magnitude(x)
	power := make([]float64, len(magnitude))
	for i, m := range magnitude {
		power[i] = m * m
	}
	return power
}
