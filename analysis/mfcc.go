package analysis

import (
	"context"

	"github.com/encorelab/encore/algorithms/spectral"
	"github.com/encorelab/encore/algorithms/windowing"
	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/logging"
)

// MFCCExtractor produces one 13-coefficient MFCC vector per analysis frame.
// Frames are BufferSize samples with 50% overlap, windowed with Hamming
// before the FFT.
type MFCCExtractor struct {
	fft    *spectral.FFT
	window *windowing.Hamming
	logger logging.Logger
}

// NewMFCCExtractor creates an MFCC extractor
func NewMFCCExtractor() *MFCCExtractor {
	return &MFCCExtractor{
		fft:    spectral.NewFFT(),
		window: windowing.NewHamming(),
		logger: logging.WithFields(logging.Fields{
			"component": "mfcc_extractor",
		}),
	}
}

// Extract returns the MFCC vectors of a buffer, one per frame
func (e *MFCCExtractor) Extract(ctx context.Context, buf *audio.Buffer) ([][]float64, error) {
	mfcc := spectral.NewMFCC(buf.SampleRate)
	if err := mfcc.Initialize(BufferSize); err != nil {
		return nil, err
	}

	frames := NewFrames(buf, BufferSize, BufferSize/2)
	vectors := make([][]float64, 0, frames.Count())
	frameBuffer := make([]float64, BufferSize)

	for {
		frame, ok := frames.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		copy(frameBuffer, frame.Samples)
		if err := e.window.ApplyInPlace(frameBuffer); err != nil {
			return nil, err
		}

		coeffs, err := mfcc.Compute(e.fft.Magnitude(frameBuffer))
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, coeffs)
	}

	e.logger.Debug("MFCC extraction completed", logging.Fields{
		"frames":      len(vectors),
		"sample_rate": buf.SampleRate,
	})

	return vectors, nil
}

// ExtractSegment computes a single MFCC vector for a short sample slice,
// used for per-onset fingerprints. Segments shorter than BufferSize are
// transformed at their own length.
func (e *MFCCExtractor) ExtractSegment(samples []float64, sampleRate int) ([]float64, error) {
	if len(samples) == 0 {
		return make([]float64, MFCCCoefficients), nil
	}

	size := len(samples)
	if size > BufferSize {
		size = BufferSize
	}

	windowed := make([]float64, size)
	copy(windowed, samples[:size])
	if err := e.window.ApplyInPlace(windowed); err != nil {
		return nil, err
	}

	mfcc := spectral.NewMFCC(sampleRate)
	return mfcc.Compute(e.fft.Magnitude(windowed))
}
