package analysis

import (
	"context"
	"math"

	"github.com/encorelab/encore/algorithms/common"
	"github.com/encorelab/encore/algorithms/spectral"
	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/logging"
)

// Sound quality tags derived from a fingerprint's spectral features
const (
	QualitySharp   = "SHARP"
	QualityMuffled = "MUFFLED"
	QualityClear   = "CLEAR"
)

// SoundFingerprint is the spectral fingerprint of a single beat: the
// timbral features of the SegmentDurationMs slice following its onset
type SoundFingerprint struct {
	MFCC                []float64 `json:"mfcc"`                  // 13 coefficients
	SpectralCentroidHz  float64   `json:"spectral_centroid_hz"`  // Brightness: claps sit around 2000-4000 Hz
	SpectralRolloffHz   float64   `json:"spectral_rolloff_hz"`   // 85% energy bound
	ZeroCrossingRate    float64   `json:"zero_crossing_rate"`    // 0-1, higher = noisier
	RMSEnergy           float64   `json:"rms_energy"`            // 0-1
	SpectralFlatness    float64   `json:"spectral_flatness"`     // 0-1, 1 = noise-like
	TransientDurationMs float64   `json:"transient_duration_ms"` // Peak-to-decay time
}

// Quality classifies the sound from its brightness and noisiness
func (f SoundFingerprint) Quality() string {
	if f.SpectralCentroidHz > 3500 && f.ZeroCrossingRate > 0.3 {
		return QualitySharp
	}
	if f.SpectralCentroidHz < 1500 || f.ZeroCrossingRate < 0.15 {
		return QualityMuffled
	}
	return QualityClear
}

// ZeroFingerprint is the fingerprint of an empty segment
func ZeroFingerprint() SoundFingerprint {
	return SoundFingerprint{MFCC: make([]float64, MFCCCoefficients)}
}

// Fingerprinter extracts per-onset sound fingerprints
type Fingerprinter struct {
	fft      *spectral.FFT
	centroid map[int]*spectral.SpectralCentroid
	rolloff  map[int]*spectral.SpectralRolloff
	flatness *spectral.SpectralFlatness
	zcr      *spectral.ZeroCrossingRate
	mfcc     *MFCCExtractor
	logger   logging.Logger
}

// NewFingerprinter creates a fingerprinter
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{
		fft:      spectral.NewFFT(),
		centroid: make(map[int]*spectral.SpectralCentroid),
		rolloff:  make(map[int]*spectral.SpectralRolloff),
		flatness: spectral.NewSpectralFlatness(),
		zcr:      spectral.NewZeroCrossingRate(),
		mfcc:     NewMFCCExtractor(),
		logger: logging.WithFields(logging.Fields{
			"component": "fingerprinter",
		}),
	}
}

// ExtractAt fingerprints the SegmentDurationMs slice starting at each
// onset time. Onsets are absolute times in the buffer's timebase. Segments
// clipped to nothing produce a zero fingerprint, keeping the result
// index-aligned with the onsets.
func (fp *Fingerprinter) ExtractAt(ctx context.Context, buf *audio.Buffer, onsetsMs []float64) ([]SoundFingerprint, error) {
	fingerprints := make([]SoundFingerprint, 0, len(onsetsMs))

	for _, onsetMs := range onsetsMs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		segment := buf.Slice(onsetMs, onsetMs+SegmentDurationMs)
		if len(segment) == 0 {
			fingerprints = append(fingerprints, ZeroFingerprint())
			continue
		}

		fingerprint, err := fp.fingerprintSegment(segment, buf.SampleRate)
		if err != nil {
			return nil, err
		}
		fingerprints = append(fingerprints, fingerprint)
	}

	fp.logger.Debug("Fingerprint extraction completed", logging.Fields{
		"fingerprints": len(fingerprints),
	})

	return fingerprints, nil
}

// fingerprintSegment computes all features of a single onset segment
func (fp *Fingerprinter) fingerprintSegment(segment []float64, sampleRate int) (SoundFingerprint, error) {
	mfcc, err := fp.mfcc.ExtractSegment(segment, sampleRate)
	if err != nil {
		return SoundFingerprint{}, err
	}

	size := len(segment)
	if size > BufferSize {
		size = BufferSize
	}
	magnitude := fp.fft.Magnitude(segment[:size])

	return SoundFingerprint{
		MFCC:                mfcc,
		SpectralCentroidHz:  fp.centroidFor(sampleRate).Compute(magnitude),
		SpectralRolloffHz:   fp.rolloffFor(sampleRate).Compute(magnitude, spectral.DefaultRolloffFraction),
		ZeroCrossingRate:    fp.zcr.Compute(segment),
		RMSEnergy:           common.RMS(segment),
		SpectralFlatness:    fp.flatness.Compute(magnitude),
		TransientDurationMs: transientDurationMs(segment, sampleRate),
	}, nil
}

func (fp *Fingerprinter) centroidFor(sampleRate int) *spectral.SpectralCentroid {
	if c, ok := fp.centroid[sampleRate]; ok {
		return c
	}
	c := spectral.NewSpectralCentroid(sampleRate)
	fp.centroid[sampleRate] = c
	return c
}

func (fp *Fingerprinter) rolloffFor(sampleRate int) *spectral.SpectralRolloff {
	if r, ok := fp.rolloff[sampleRate]; ok {
		return r
	}
	r := spectral.NewSpectralRolloff(sampleRate)
	fp.rolloff[sampleRate] = r
	return r
}

// transientDurationMs measures the time from the peak sample to the first
// sample below 10% of the peak
func transientDurationMs(segment []float64, sampleRate int) float64 {
	if len(segment) == 0 || sampleRate <= 0 {
		return 0
	}

	peak := 0.0
	peakIdx := 0
	for i, s := range segment {
		if math.Abs(s) > peak {
			peak = math.Abs(s)
			peakIdx = i
		}
	}

	threshold := 0.1 * peak
	decayIdx := peakIdx
	for i := peakIdx; i < len(segment); i++ {
		if math.Abs(segment[i]) < threshold {
			decayIdx = i
			break
		}
	}

	return float64(decayIdx-peakIdx) * 1000.0 / float64(sampleRate)
}
