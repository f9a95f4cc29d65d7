package stats

import (
	"fmt"
	"math"
)

// DTWAlignment aligns two sequences with Dynamic Time Warping. Rhythm
// comparison uses it on inter-onset interval sequences, where the local
// cost is the absolute interval difference.
type DTWAlignment struct{}

// DTWResult contains DTW alignment results
type DTWResult struct {
	Distance    float64 `json:"distance"`     // Total accumulated cost
	QueryLength int     `json:"query_length"` // Length of query sequence
	RefLength   int     `json:"ref_length"`   // Length of reference sequence
}

// NewDTWAlignment creates a new DTW alignment instance
func NewDTWAlignment() *DTWAlignment {
	return &DTWAlignment{}
}

// AlignVectors aligns two 1D sequences with absolute-difference local cost
// and the standard symmetric step pattern
func (dtw *DTWAlignment) AlignVectors(query, reference []float64) (*DTWResult, error) {
	if len(query) == 0 || len(reference) == 0 {
		return nil, fmt.Errorf("empty sequences provided")
	}

	n := len(query)
	m := len(reference)

	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, m+1)
		for j := range cost[i] {
			cost[i][j] = math.Inf(1)
		}
	}
	cost[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			localCost := math.Abs(query[i-1] - reference[j-1])
			cost[i][j] = localCost + math.Min(
				math.Min(cost[i-1][j], cost[i][j-1]),
				cost[i-1][j-1])
		}
	}

	return &DTWResult{
		Distance:    cost[n][m],
		QueryLength: n,
		RefLength:   m,
	}, nil
}
