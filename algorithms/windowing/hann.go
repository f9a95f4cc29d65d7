package windowing

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

// Hann implements the Hann (raised cosine) window, the default analysis
// window for spectral feature extraction
type Hann struct {
	coefficients []float64
}

// NewHann creates a Hann window calculator
func NewHann() *Hann {
	return &Hann{}
}

// Coefficients returns the window coefficients for the given size,
// caching the last computed size
func (h *Hann) Coefficients(size int) []float64 {
	if len(h.coefficients) != size {
		h.coefficients = window.Hann(size)
	}
	return h.coefficients
}

// ApplyInPlace multiplies the signal by the window coefficients
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) == 0 {
		return fmt.Errorf("empty signal")
	}

	coeffs := h.Coefficients(len(signal))
	for i := range signal {
		signal[i] *= coeffs[i]
	}

	return nil
}
