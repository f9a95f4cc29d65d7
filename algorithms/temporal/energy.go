package temporal

import (
	"github.com/encorelab/encore/algorithms/common"
)

// Envelope extracts amplitude envelopes from time-domain signals
type Envelope struct{}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// EnergyFrame is one point of an RMS energy envelope
type EnergyFrame struct {
	TimeMs float64 `json:"time_ms"` // Start time of the window (ms)
	RMS    float64 `json:"rms"`     // Linear RMS amplitude
	DB     float64 `json:"db"`      // RMS converted to dBFS
}

// ComputeRMS slides a window of frameSize samples with the given hop and
// returns the RMS of each full window. The final partial window is dropped.
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) < frameSize || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)

	for i := range numFrames {
		start := i * hopSize
		envelope[i] = common.RMS(signal[start : start+frameSize])
	}

	return envelope
}

// ComputeEnergyFrames computes a timestamped dBFS envelope, the input to
// energy-based onset detection
func (e *Envelope) ComputeEnergyFrames(signal []float64, sampleRate int, frameSize, hopSize int) []EnergyFrame {
	if len(signal) < frameSize || frameSize <= 0 || hopSize <= 0 {
		return []EnergyFrame{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	frames := make([]EnergyFrame, numFrames)

	for i := range numFrames {
		start := i * hopSize
		rms := common.RMS(signal[start : start+frameSize])
		frames[i] = EnergyFrame{
			TimeMs: float64(start) * 1000.0 / float64(sampleRate),
			RMS:    rms,
			DB:     common.AmplitudeToDB(rms),
		}
	}

	return frames
}
