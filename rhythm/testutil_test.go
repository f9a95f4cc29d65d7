package rhythm

import (
	"math"

	"github.com/encorelab/encore/analysis"
	"github.com/encorelab/encore/audio"
)

// burstBuffer builds silence with short tone bursts at the given times
func burstBuffer(sampleRate int, durationMs float64, burstTimesMs []float64, burstLenMs float64) *audio.Buffer {
	samples := make([]float64, int(durationMs*float64(sampleRate)/1000.0))
	for _, startMs := range burstTimesMs {
		start := int(startMs * float64(sampleRate) / 1000.0)
		length := int(burstLenMs * float64(sampleRate) / 1000.0)
		for i := range length {
			idx := start + i
			if idx >= len(samples) {
				break
			}
			samples[idx] = 0.8 * math.Sin(2.0*math.Pi*440.0*float64(i)/float64(sampleRate))
		}
	}
	return &audio.Buffer{SampleRate: sampleRate, Channels: 1, Samples: samples}
}

// testFingerprint builds a fingerprint with a distinctive MFCC shape
func testFingerprint(centroid, zcr, rms float64) analysis.SoundFingerprint {
	mfcc := make([]float64, analysis.MFCCCoefficients)
	for i := range mfcc {
		mfcc[i] = float64(i+1) * 0.5
	}
	return analysis.SoundFingerprint{
		MFCC:               mfcc,
		SpectralCentroidHz: centroid,
		SpectralRolloffHz:  centroid * 2,
		ZeroCrossingRate:   zcr,
		RMSEnergy:          rms,
		SpectralFlatness:   0.4,
	}
}
