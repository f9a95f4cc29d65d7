package analysis

import (
	"context"

	"github.com/encorelab/encore/algorithms/tonal"
	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/logging"
)

// PitchSample is one voiced frame of a pitch track
type PitchSample struct {
	TimeMs      float64 `json:"time_ms"`
	PitchHz     float64 `json:"pitch_hz"`
	Probability float64 `json:"probability"`
}

// PitchTracker runs the YIN estimator over analysis frames and collects
// the voiced samples
type PitchTracker struct {
	logger logging.Logger
}

// NewPitchTracker creates a pitch tracker
func NewPitchTracker() *PitchTracker {
	return &PitchTracker{
		logger: logging.WithFields(logging.Fields{
			"component": "pitch_tracker",
		}),
	}
}

// Track returns the voiced (time, pitch, probability) samples of a buffer.
// Frames where YIN reports unvoiced are skipped.
func (p *PitchTracker) Track(ctx context.Context, buf *audio.Buffer) ([]PitchSample, error) {
	yin := tonal.NewYin(buf.SampleRate, BufferSize)
	frames := NewFrames(buf, BufferSize, BufferSize)

	var samples []PitchSample
	for {
		frame, ok := frames.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := yin.Detect(frame.Samples)
		if result.Pitch > 0 {
			samples = append(samples, PitchSample{
				TimeMs:      frame.StartMs,
				PitchHz:     result.Pitch,
				Probability: result.Probability,
			})
		}
	}

	p.logger.Debug("Pitch tracking completed", logging.Fields{
		"voiced_samples": len(samples),
		"sample_rate":    buf.SampleRate,
	})

	return samples, nil
}

// TrackValues returns just the voiced pitch values, the raw shape used to
// build legacy reference data for songs
func (p *PitchTracker) TrackValues(ctx context.Context, buf *audio.Buffer) ([]float64, error) {
	samples, err := p.Track(ctx, buf)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.PitchHz
	}
	return values, nil
}
