package rhythm

import (
	"math"
	"testing"
)

func TestAnalyzeConsistencyUniform(t *testing.T) {
	onsets := []float64{0, 500, 1000, 1500, 2000}

	score := AnalyzeConsistency(onsets, 0)
	if math.Abs(score-100) > 1e-9 {
		t.Errorf("uniform onsets: consistency = %v, want 100", score)
	}
}

func TestAnalyzeConsistencyWithTargetBPM(t *testing.T) {
	// 500 ms intervals are exactly 120 BPM
	onsets := []float64{0, 500, 1000, 1500}

	perfect := AnalyzeConsistency(onsets, 120)
	if math.Abs(perfect-100) > 1e-9 {
		t.Errorf("on-target: consistency = %v, want 100", perfect)
	}

	// The same taps against 60 BPM are consistently half the expected
	// interval: 50% error per beat
	off := AnalyzeConsistency(onsets, 60)
	if math.Abs(off-50) > 1e-6 {
		t.Errorf("off-target: consistency = %v, want 50", off)
	}
}

func TestAnalyzeConsistencyTooFewOnsets(t *testing.T) {
	if score := AnalyzeConsistency([]float64{100}, 0); score != 0 {
		t.Errorf("single onset: consistency = %v, want 0", score)
	}
}

func TestAnalyzeCreativityShortPattern(t *testing.T) {
	if score := AnalyzeCreativity([]float64{0, 500, 1000}); score != 50 {
		t.Errorf("short pattern: creativity = %v, want neutral 50", score)
	}
}

func TestAnalyzeCreativityUniformVsVaried(t *testing.T) {
	uniform := AnalyzeCreativity([]float64{0, 500, 1000, 1500, 2000, 2500})
	varied := AnalyzeCreativity([]float64{0, 250, 750, 1000, 2000, 2250})

	if uniform >= varied {
		t.Errorf("varied pattern should score above uniform: %v vs %v", varied, uniform)
	}
	if varied > 100 {
		t.Errorf("creativity = %v, want <= 100", varied)
	}
}

func TestCompareRhythmsIdentical(t *testing.T) {
	onsets := []float64{0, 500, 1000, 1750, 2000}

	score := CompareRhythms(onsets, onsets)
	if math.Abs(score-100) > 1e-9 {
		t.Errorf("identical rhythms: score = %v, want 100", score)
	}
}

func TestCompareRhythmsDissimilar(t *testing.T) {
	ref := []float64{0, 500, 1000, 1500}
	jittered := []float64{0, 600, 950, 1700}

	score := CompareRhythms(jittered, ref)
	if score >= 100 {
		t.Errorf("jittered rhythm should lose points, got %v", score)
	}
	if score < 0 {
		t.Errorf("score = %v, want >= 0", score)
	}
}

func TestCompareRhythmsEmpty(t *testing.T) {
	if score := CompareRhythms(nil, []float64{0, 500}); score != 0 {
		t.Errorf("empty user onsets: score = %v, want 0", score)
	}
	if score := CompareRhythms([]float64{0}, []float64{0, 500}); score != 0 {
		t.Errorf("no user intervals: score = %v, want 0", score)
	}
}
