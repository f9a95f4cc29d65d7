package analysis

import (
	"math"

	"github.com/encorelab/encore/audio"
)

// toneBuffer builds a buffer of silence with a sine tone between startMs
// and endMs
func toneBuffer(sampleRate int, durationMs, startMs, endMs, freq float64) *audio.Buffer {
	samples := make([]float64, int(durationMs*float64(sampleRate)/1000.0))
	start := int(startMs * float64(sampleRate) / 1000.0)
	end := int(endMs * float64(sampleRate) / 1000.0)
	if end > len(samples) {
		end = len(samples)
	}
	for i := start; i < end; i++ {
		samples[i] = 0.8 * math.Sin(2.0*math.Pi*freq*float64(i-start)/float64(sampleRate))
	}
	return &audio.Buffer{SampleRate: sampleRate, Channels: 1, Samples: samples}
}
