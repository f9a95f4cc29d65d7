package temporal

import (
	"context"
	"math"
	"testing"
)

// burstSignal builds silence with short tone bursts at the given times
func burstSignal(sampleRate int, durationMs float64, burstTimesMs []float64, burstLenMs float64) []float64 {
	signal := make([]float64, int(durationMs*float64(sampleRate)/1000.0))
	for _, startMs := range burstTimesMs {
		start := int(startMs * float64(sampleRate) / 1000.0)
		length := int(burstLenMs * float64(sampleRate) / 1000.0)
		for i := range length {
			idx := start + i
			if idx >= len(signal) {
				break
			}
			signal[idx] = 0.8 * math.Sin(2.0*math.Pi*440.0*float64(i)/float64(sampleRate))
		}
	}
	return signal
}

func TestEnergyOnsetDetectsBursts(t *testing.T) {
	burstTimes := []float64{200, 700, 1200, 1700}
	signal := burstSignal(44100, 2000, burstTimes, 100)

	detector := NewEnergyOnsetDetector()
	onsets, err := detector.DetectOnsets(context.Background(), signal, 44100, -40.0, 100.0)
	if err != nil {
		t.Fatalf("DetectOnsets failed: %v", err)
	}

	if len(onsets) != len(burstTimes) {
		t.Fatalf("detected %d onsets, want %d: %v", len(onsets), len(burstTimes), onsets)
	}

	for i, onset := range onsets {
		if math.Abs(onset-burstTimes[i]) > 25 {
			t.Errorf("onset %d at %.1f ms, want %.1f +-25 ms", i, onset, burstTimes[i])
		}
	}
}

func TestEnergyOnsetDebounce(t *testing.T) {
	// Bursts 150 ms apart with a 300 ms debounce: bursts that fall within
	// the debounce of the last accepted onset are rejected
	burstTimes := []float64{200, 350, 500, 650, 800}
	signal := burstSignal(44100, 1200, burstTimes, 60)

	detector := NewEnergyOnsetDetector()
	minInterval := 300.0
	onsets, err := detector.DetectOnsets(context.Background(), signal, 44100, -40.0, minInterval)
	if err != nil {
		t.Fatalf("DetectOnsets failed: %v", err)
	}

	if len(onsets) == 0 {
		t.Fatal("expected onsets")
	}
	for i := 1; i < len(onsets); i++ {
		if gap := onsets[i] - onsets[i-1]; gap < minInterval {
			t.Errorf("gap %.1f ms violates %v ms debounce", gap, minInterval)
		}
	}
}

func TestEnergyOnsetStrictlyIncreasing(t *testing.T) {
	signal := burstSignal(44100, 2000, []float64{200, 700, 1200, 1700}, 100)

	detector := NewEnergyOnsetDetector()
	onsets, err := detector.DetectOnsets(context.Background(), signal, 44100, -40.0, 100.0)
	if err != nil {
		t.Fatalf("DetectOnsets failed: %v", err)
	}

	for i := 1; i < len(onsets); i++ {
		if onsets[i] <= onsets[i-1] {
			t.Errorf("onsets not strictly increasing: %v", onsets)
		}
	}
}

func TestEnergyOnsetSilence(t *testing.T) {
	detector := NewEnergyOnsetDetector()
	onsets, err := detector.DetectOnsets(context.Background(), make([]float64, 44100), 44100, -40.0, 100.0)
	if err != nil {
		t.Fatalf("DetectOnsets failed: %v", err)
	}
	if len(onsets) != 0 {
		t.Errorf("silence produced %d onsets", len(onsets))
	}
}

func TestEnergyOnsetCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	signal := burstSignal(44100, 2000, []float64{200}, 100)
	detector := NewEnergyOnsetDetector()
	if _, err := detector.DetectOnsets(ctx, signal, 44100, -40.0, 100.0); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestPercussiveOnsetDetectsBursts(t *testing.T) {
	burstTimes := []float64{200, 700, 1200}
	signal := burstSignal(44100, 1600, burstTimes, 100)

	detector := NewPercussiveOnsetDetector()
	onsets, err := detector.DetectOnsets(context.Background(), signal, 44100)
	if err != nil {
		t.Fatalf("DetectOnsets failed: %v", err)
	}

	if len(onsets) < len(burstTimes) {
		t.Fatalf("detected %d onsets, want >= %d", len(onsets), len(burstTimes))
	}

	for _, onset := range onsets {
		if onset.Salience <= 0 || onset.Salience > 1 {
			t.Errorf("salience %v outside (0, 1]", onset.Salience)
		}
	}

	// Each burst start should have a nearby detection
	for _, wantMs := range burstTimes {
		found := false
		for _, onset := range onsets {
			if math.Abs(onset.TimeS*1000.0-wantMs) < 50 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no onset near %v ms", wantMs)
		}
	}
}

func TestEnvelopeRMS(t *testing.T) {
	// Constant-amplitude signal: every window has the same RMS
	signal := make([]float64, 4096)
	for i := range signal {
		signal[i] = 0.5
	}

	envelope := NewEnvelope().ComputeRMS(signal, 512, 256)
	if len(envelope) == 0 {
		t.Fatal("empty envelope")
	}
	for _, rms := range envelope {
		if math.Abs(rms-0.5) > 1e-9 {
			t.Errorf("RMS = %v, want 0.5", rms)
		}
	}
}
