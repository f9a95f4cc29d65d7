package temporal

import (
	"context"

	"github.com/encorelab/encore/logging"
)

// Energy-based onset detection constants. The rise and exit offsets form a
// hysteresis band so the detector does not flicker around the threshold.
const (
	// EnergyWindowMs is the RMS analysis window length
	EnergyWindowMs = 20.0
	// RiseDB is how far above the previous window the level must jump
	RiseDB = 3.0
	// HysteresisDB is how far below the threshold the level must fall to
	// leave the "inside a sound" state
	HysteresisDB = 6.0
	// peakHeadroomDB places the dynamic threshold this far below the peak
	peakHeadroomDB = 20.0
)

// EnergyOnsetDetector detects clap/tap onsets from the RMS energy envelope.
// It is the detector behind rhythm pattern extraction.
type EnergyOnsetDetector struct {
	envelope *Envelope
	logger   logging.Logger
}

// NewEnergyOnsetDetector creates an energy onset detector
func NewEnergyOnsetDetector() *EnergyOnsetDetector {
	return &EnergyOnsetDetector{
		envelope: NewEnvelope(),
		logger: logging.WithFields(logging.Fields{
			"component": "energy_onset_detector",
		}),
	}
}

// DetectOnsets returns strictly increasing onset times in milliseconds.
//
// The level is measured as dBFS RMS over 20 ms windows with 75% overlap.
// An onset is a rising edge: the level crosses the dynamic threshold while
// also rising more than RiseDB over the previous window. The dynamic
// threshold is the louder of silenceThresholdDB and peak-20 dB. Onsets
// closer than minIntervalMs to the previous accepted onset are rejected.
func (d *EnergyOnsetDetector) DetectOnsets(ctx context.Context, signal []float64, sampleRate int, silenceThresholdDB, minIntervalMs float64) ([]float64, error) {
	if len(signal) == 0 || sampleRate <= 0 {
		return []float64{}, nil
	}

	windowSize := int(float64(sampleRate) * EnergyWindowMs / 1000.0)
	if windowSize < 1 {
		windowSize = 1
	}
	hopSize := windowSize / 4 // 75% overlap for precise edges
	if hopSize < 1 {
		hopSize = 1
	}

	frames := d.envelope.ComputeEnergyFrames(signal, sampleRate, windowSize, hopSize)
	if len(frames) < 2 {
		return []float64{}, nil
	}

	peakDB := frames[0].DB
	for _, f := range frames[1:] {
		if f.DB > peakDB {
			peakDB = f.DB
		}
	}
	threshold := silenceThresholdDB
	if peakDB-peakHeadroomDB > threshold {
		threshold = peakDB - peakHeadroomDB
	}

	var onsets []float64
	inSound := false
	lastOnset := -minIntervalMs // allow the first onset

	for i := 1; i < len(frames); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prev := frames[i-1].DB
		curr := frames[i].DB
		time := frames[i].TimeMs

		if !inSound && curr > threshold && curr > prev+RiseDB {
			if time-lastOnset >= minIntervalMs {
				onsets = append(onsets, time)
				lastOnset = time
			}
			inSound = true
		} else if inSound && curr < threshold-HysteresisDB {
			inSound = false
		}
	}

	d.logger.Debug("Energy onset detection completed", logging.Fields{
		"onsets":       len(onsets),
		"threshold_db": threshold,
		"peak_db":      peakDB,
	})

	return onsets, nil
}
