package analysis

import (
	"context"
	"math"

	"github.com/encorelab/encore/algorithms/temporal"
	"github.com/encorelab/encore/audio"
	"github.com/encorelab/encore/logging"
)

// NoteExtractor merges percussive onsets with a YIN pitch track into
// discrete note events
type NoteExtractor struct {
	onsets *temporal.PercussiveOnsetDetector
	pitch  *PitchTracker
	logger logging.Logger
}

// NewNoteExtractor creates a note extractor with default detectors
func NewNoteExtractor() *NoteExtractor {
	return &NoteExtractor{
		onsets: temporal.NewPercussiveOnsetDetector(),
		pitch:  NewPitchTracker(),
		logger: logging.WithFields(logging.Fields{
			"component": "note_extractor",
		}),
	}
}

// Extract produces the note events of a recording.
//
// Two passes: percussive onset detection, then pitch tracking. Each onset
// becomes a note from the pitch samples within PitchMatchWindowMs of it;
// notes shorter than MinNoteDurationMs or without a usable pitch are
// dropped. When onset detection yields nothing, the continuous pitch
// stream is segmented instead.
func (e *NoteExtractor) Extract(ctx context.Context, buf *audio.Buffer) ([]NoteEvent, error) {
	onsets, err := e.onsets.DetectOnsets(ctx, buf.Samples, buf.SampleRate)
	if err != nil {
		return nil, err
	}

	pitchSamples, err := e.pitch.Track(ctx, buf)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Note extraction inputs ready", logging.Fields{
		"onsets":        len(onsets),
		"pitch_samples": len(pitchSamples),
	})

	notes := e.combine(onsets, pitchSamples)

	if len(notes) == 0 && len(pitchSamples) > 0 {
		e.logger.Debug("Onset pass yielded no notes, falling back to pitch segmentation")
		notes = SegmentPitchStream(pitchSamples)
	}

	return notes, nil
}

// combine builds one note per onset from the nearby pitch samples
func (e *NoteExtractor) combine(onsets []temporal.PercussiveOnset, pitchSamples []PitchSample) []NoteEvent {
	if len(onsets) == 0 || len(pitchSamples) == 0 {
		return nil
	}

	lastPitchMs := pitchSamples[len(pitchSamples)-1].TimeMs

	var notes []NoteEvent
	for i, onset := range onsets {
		onsetMs := onset.TimeS * 1000.0

		pitchSum := 0.0
		probSum := 0.0
		count := 0
		for _, s := range pitchSamples {
			if math.Abs(s.TimeMs-onsetMs) < PitchMatchWindowMs {
				pitchSum += s.PitchHz
				probSum += s.Probability
				count++
			}
		}
		if count == 0 {
			continue
		}

		var duration float64
		if i < len(onsets)-1 {
			duration = onsets[i+1].TimeS*1000.0 - onsetMs
		} else {
			duration = lastPitchMs - onsetMs
		}

		pitch := pitchSum / float64(count)
		if duration >= MinNoteDurationMs && pitch > 0 {
			notes = append(notes, NoteEvent{
				OnsetMs:    onsetMs,
				PitchHz:    pitch,
				DurationMs: duration,
				Amplitude:  probSum / float64(count),
			})
		}
	}

	return notes
}

// SegmentPitchStream splits a continuous pitch track into notes: a new
// note opens whenever the pitch moves more than PitchSegmentToleranceHz
// from the running note pitch. Segments shorter than MinNoteDurationMs
// are dropped.
func SegmentPitchStream(pitchSamples []PitchSample) []NoteEvent {
	if len(pitchSamples) == 0 {
		return nil
	}

	var notes []NoteEvent

	currentOnset := pitchSamples[0].TimeMs
	currentPitch := pitchSamples[0].PitchHz
	amplitudeSum := pitchSamples[0].Probability
	sampleCount := 1

	for i := 1; i < len(pitchSamples); i++ {
		current := pitchSamples[i]

		if math.Abs(current.PitchHz-currentPitch) > PitchSegmentToleranceHz {
			duration := current.TimeMs - currentOnset
			if duration >= MinNoteDurationMs {
				notes = append(notes, NoteEvent{
					OnsetMs:    currentOnset,
					PitchHz:    currentPitch,
					DurationMs: duration,
					Amplitude:  amplitudeSum / float64(sampleCount),
				})
			}

			currentOnset = current.TimeMs
			currentPitch = current.PitchHz
			amplitudeSum = current.Probability
			sampleCount = 1
		} else {
			// Running mean keeps the note pitch stable against drift
			currentPitch = (currentPitch*float64(sampleCount) + current.PitchHz) / float64(sampleCount+1)
			amplitudeSum += current.Probability
			sampleCount++
		}
	}

	last := pitchSamples[len(pitchSamples)-1]
	duration := last.TimeMs - currentOnset
	if duration >= MinNoteDurationMs {
		notes = append(notes, NoteEvent{
			OnsetMs:    currentOnset,
			PitchHz:    currentPitch,
			DurationMs: duration,
			Amplitude:  amplitudeSum / float64(sampleCount),
		})
	}

	return notes
}
