package spectral

import (
	"context"
	"fmt"
	"math/cmplx"
)

// Window is the interface windowing functions implement
type Window interface {
	ApplyInPlace(signal []float64) error
}

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft *FFT
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Magnitude      [][]float64 `json:"magnitude"`       // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{fft: NewFFT()}
}

// Compute computes the magnitude STFT of a signal. The final partial frame
// is dropped. The context is checked once per frame so long analyses can be
// cancelled promptly.
func (s *STFT) Compute(ctx context.Context, signal []float64, windowSize, hopSize, sampleRate int, window Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	numFrames := (len(signal)-windowSize)/hopSize + 1
	if numFrames <= 0 {
		return nil, fmt.Errorf("signal too short for window size %d", windowSize)
	}

	freqBins := windowSize/2 + 1
	magnitude := make([][]float64, numFrames)

	frameBuffer := make([]float64, windowSize)
	for frame := range numFrames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := frame * hopSize
		copy(frameBuffer, signal[start:start+windowSize])

		if window != nil {
			if err := window.ApplyInPlace(frameBuffer); err != nil {
				return nil, fmt.Errorf("windowing frame %d: %w", frame, err)
			}
		}

		spectrum := s.fft.Compute(frameBuffer)
		magnitude[frame] = make([]float64, freqBins)
		for bin := range freqBins {
			magnitude[frame][bin] = cmplx.Abs(spectrum[bin])
		}
	}

	return &STFTResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// FrameTime returns the start time in seconds of the given frame index
func (r *STFTResult) FrameTime(frame int) float64 {
	return float64(frame) * r.TimeResolution
}
