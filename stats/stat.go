// Package stats holds robust statistics used to clean a series before fitting
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// DetectOutliers returns the indices of values at or beyond the Tukey fences of y. The fences
// start at the empirical lowerPerc and upperPerc quantiles and are pushed out by tukeyFactor
// times the distance between them. NaNs are ignored and never reported.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	sorted := slices.DeleteFunc(slices.Clone(y), math.IsNaN)
	if len(sorted) == 0 || lowerPerc >= upperPerc {
		return nil
	}
	slices.Sort(sorted)

	lower := stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, sorted, nil)
	spread := upper - lower
	if spread == 0 {
		return nil
	}
	lower -= spread * tukeyFactor
	upper += spread * tukeyFactor

	var idx []int
	for i, v := range y {
		if v <= lower || v >= upper {
			idx = append(idx, i)
		}
	}
	return idx
}
