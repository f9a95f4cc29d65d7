package temporal

import (
	"context"

	"github.com/encorelab/encore/algorithms/spectral"
	"github.com/encorelab/encore/algorithms/windowing"
)

// PercussiveOnset is one detected onset with its spectral-flux salience
type PercussiveOnset struct {
	TimeS    float64 `json:"time_s"`   // Onset time in seconds
	Salience float64 `json:"salience"` // Peak flux normalized to [0, 1]
}

// PercussiveOnsetParams configures the spectral-flux onset detector
type PercussiveOnsetParams struct {
	WindowSize  int     `json:"window_size"`  // STFT window (default 1024)
	HopSize     int     `json:"hop_size"`     // STFT hop (default 512)
	Sensitivity float64 `json:"sensitivity"`  // Peak threshold as a fraction of max flux (0-1)
	MinOnsetSec float64 `json:"min_onset_s"`  // Minimum spacing between onsets (seconds)
}

// DefaultPercussiveOnsetParams returns the detector configuration used by
// the note extraction path
func DefaultPercussiveOnsetParams() PercussiveOnsetParams {
	return PercussiveOnsetParams{
		WindowSize:  1024,
		HopSize:     512,
		Sensitivity: 0.2,
		MinOnsetSec: 0.05,
	}
}

// PercussiveOnsetDetector finds note starts via rectified spectral flux
// peak picking
type PercussiveOnsetDetector struct {
	params PercussiveOnsetParams
	stft   *spectral.STFT
	flux   *spectral.SpectralFlux
	window *windowing.Hann
}

// NewPercussiveOnsetDetector creates a detector with default parameters
func NewPercussiveOnsetDetector() *PercussiveOnsetDetector {
	return NewPercussiveOnsetDetectorWithParams(DefaultPercussiveOnsetParams())
}

// NewPercussiveOnsetDetectorWithParams creates a detector with custom parameters
func NewPercussiveOnsetDetectorWithParams(params PercussiveOnsetParams) *PercussiveOnsetDetector {
	if params.WindowSize <= 0 {
		params.WindowSize = 1024
	}
	if params.HopSize <= 0 {
		params.HopSize = 512
	}
	if params.Sensitivity <= 0 {
		params.Sensitivity = 0.2
	}
	if params.MinOnsetSec <= 0 {
		params.MinOnsetSec = 0.05
	}

	return &PercussiveOnsetDetector{
		params: params,
		stft:   spectral.NewSTFT(),
		flux:   spectral.NewSpectralFlux(),
		window: windowing.NewHann(),
	}
}

// DetectOnsets returns onsets ordered by time with normalized salience
func (d *PercussiveOnsetDetector) DetectOnsets(ctx context.Context, signal []float64, sampleRate int) ([]PercussiveOnset, error) {
	if len(signal) < d.params.WindowSize {
		return []PercussiveOnset{}, nil
	}

	stftResult, err := d.stft.Compute(ctx, signal, d.params.WindowSize, d.params.HopSize, sampleRate, d.window)
	if err != nil {
		return nil, err
	}

	flux := d.flux.Compute(stftResult.Magnitude)
	if len(flux) < 3 {
		return []PercussiveOnset{}, nil
	}

	maxFlux := flux[0]
	for _, f := range flux[1:] {
		if f > maxFlux {
			maxFlux = f
		}
	}
	if maxFlux <= 0 {
		return []PercussiveOnset{}, nil
	}

	threshold := d.params.Sensitivity * maxFlux
	minIntervalFrames := int(d.params.MinOnsetSec * float64(sampleRate) / float64(d.params.HopSize))
	if minIntervalFrames < 1 {
		minIntervalFrames = 1
	}

	var onsets []PercussiveOnset
	lastPeakFrame := -minIntervalFrames

	for i := 1; i < len(flux)-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Local maximum above threshold, outside the refractory interval
		if flux[i] > flux[i-1] &&
			flux[i] > flux[i+1] &&
			flux[i] >= threshold &&
			i-lastPeakFrame >= minIntervalFrames {
			onsets = append(onsets, PercussiveOnset{
				TimeS:    float64(i*d.params.HopSize) / float64(sampleRate),
				Salience: flux[i] / maxFlux,
			})
			lastPeakFrame = i
		}
	}

	return onsets, nil
}
