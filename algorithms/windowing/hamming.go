package windowing

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

// Hamming implements the Hamming window, used where slightly better
// sidelobe suppression than Hann is wanted (MFCC frames)
type Hamming struct {
	coefficients []float64
}

// NewHamming creates a Hamming window calculator
func NewHamming() *Hamming {
	return &Hamming{}
}

// Coefficients returns the window coefficients for the given size,
// caching the last computed size
func (h *Hamming) Coefficients(size int) []float64 {
	if len(h.coefficients) != size {
		h.coefficients = window.Hamming(size)
	}
	return h.coefficients
}

// ApplyInPlace multiplies the signal by the window coefficients
func (h *Hamming) ApplyInPlace(signal []float64) error {
	if len(signal) == 0 {
		return fmt.Errorf("empty signal")
	}

	coeffs := h.Coefficients(len(signal))
	for i := range signal {
		signal[i] *= coeffs[i]
	}

	return nil
}
