package stats

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdentity(t *testing.T) {
	v := []float64{1, 2, 3}

	got := CosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-12 {
		t.Errorf("CosineSimilarity(v, v) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	v := []float64{1, 2, 3}
	neg := []float64{-1, -2, -3}

	got := CosineSimilarity(v, neg)
	if math.Abs(got-(-1.0)) > 1e-12 {
		t.Errorf("CosineSimilarity(v, -v) = %v, want -1.0", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	got := CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	if math.Abs(got) > 1e-12 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	if got := CosineSimilarity([]float64{0, 0}, []float64{1, 2}); got != 0 {
		t.Errorf("zero vector: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float64{1}, []float64{1, 2}); got != 0 {
		t.Errorf("length mismatch: got %v, want 0", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Errorf("empty vectors: got %v, want 0", got)
	}
}

func TestDTWIdenticalSequences(t *testing.T) {
	seq := []float64{500, 500, 250, 1000}

	dtw := NewDTWAlignment()
	result, err := dtw.AlignVectors(seq, seq)
	if err != nil {
		t.Fatalf("AlignVectors failed: %v", err)
	}

	if result.Distance != 0 {
		t.Errorf("identical sequences: distance = %v, want 0", result.Distance)
	}
}

func TestDTWKnownDistance(t *testing.T) {
	// One element off by 100: minimum-cost path pays exactly that once
	query := []float64{500, 600, 500}
	ref := []float64{500, 500, 500}

	dtw := NewDTWAlignment()
	result, err := dtw.AlignVectors(query, ref)
	if err != nil {
		t.Fatalf("AlignVectors failed: %v", err)
	}

	if result.Distance > 100+1e-9 {
		t.Errorf("distance = %v, want <= 100", result.Distance)
	}
	if result.Distance <= 0 {
		t.Errorf("distance = %v, want > 0", result.Distance)
	}
}

func TestDTWEmptyInput(t *testing.T) {
	dtw := NewDTWAlignment()
	if _, err := dtw.AlignVectors(nil, []float64{1}); err == nil {
		t.Error("expected error for empty query")
	}
}
