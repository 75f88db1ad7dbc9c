// Package stats provides supporting statistics for flagging suspect entries
// in a reported case series.
package stats

import (
	"math"
	"sort"
)

// DetectOutliers returns the indices of values outside the Tukey fences
// built from the requested inner percentile range. Used to flag daily case
// changes that look like reporting corrections or batch uploads rather than
// real epidemic signal. NaN entries are ignored when building the fences and
// are never flagged.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	finite := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil
	}
	sort.Float64s(finite)

	lowerIdx := int(math.Floor(float64(len(finite)) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(finite)) * upperPerc))
	if upperIdx >= len(finite) {
		upperIdx = len(finite) - 1
	}

	lower := finite[lowerIdx]
	upper := finite[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		if v >= upper || v <= lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}
