// Package analytics contains the cohort analyzer: descriptive statistics,
// percentile interpolation, outlier detection, grade distribution, section
// comparison, at-risk filtering, and top-N ranking over enriched records.
//
// All functions are pure and order-independent where the contract says so;
// none mutate their inputs. Results feed high-stakes decisions, so the
// numeric conventions here (population standard deviation, linear/inclusive
// percentile interpolation) are load-bearing and must not drift.
package analytics

import (
	"math"
	"sort"

	"github.com/academ-hub/gradebook-analytics/internal/domain/gradebook"
)

// Summary holds descriptive statistics over a numeric collection. All value
// fields are unknown when the collection was empty.
type Summary struct {
	Count  int             `json:"count"`
	Mean   gradebook.Score `json:"mean"`
	Median gradebook.Score `json:"median"`
	Std    gradebook.Score `json:"std"`
	Min    gradebook.Score `json:"min"`
	Max    gradebook.Score `json:"max"`
}

// EmptySummary returns the all-unknown summary with count 0.
func EmptySummary() Summary {
	return Summary{}
}

// round2 rounds to 2 decimal places, the presentation precision of summaries.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeStats returns count, mean, median, population standard deviation
// (divide by N, not N-1), min, and max, each rounded to 2 decimal places.
// The median of an even-sized collection is the average of the two middle
// elements after sorting. The result does not depend on input order.
func ComputeStats(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return EmptySummary()
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	return Summary{
		Count:  n,
		Mean:   gradebook.NewScore(round2(mean)),
		Median: gradebook.NewScore(round2(median)),
		Std:    gradebook.NewScore(round2(math.Sqrt(variance))),
		Min:    gradebook.NewScore(round2(sorted[0])),
		Max:    gradebook.NewScore(round2(sorted[n-1])),
	}
}

// Percentile computes the p-th percentile using linear interpolation between
// order statistics (the "linear/inclusive" convention):
//
//	r  = (p/100) x (N-1)
//	lo = floor(r), hi = min(lo+1, N-1), w = r - lo
//	result = sorted[lo] x (1-w) + sorted[hi] x w
//
// Consumers recomputing quartile thresholds must match this exactly to
// reproduce the same outlier sets. p outside [0,100] is defined behavior:
// the hi guard clamps the upper index, so large p saturates at the maximum
// and negative p extrapolates below the minimum. Unknown on empty input.
func Percentile(values []float64, p float64) gradebook.Score {
	n := len(values)
	if n == 0 {
		return gradebook.UnknownScore()
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := (p / 100) * float64(n-1)
	lo := int(rank) // truncation toward zero, per the reference convention
	if lo > n-1 {
		lo = n - 1
	}
	if lo < 0 {
		lo = 0
	}
	hi := lo + 1
	if hi > n-1 {
		hi = n - 1
	}
	w := rank - float64(lo)

	return gradebook.NewScore(sorted[lo]*(1-w) + sorted[hi]*w)
}

// OutlierMethod selects the outlier detection algorithm.
type OutlierMethod string

const (
	// MethodIQR flags values strictly outside [Q1-1.5*IQR, Q3+1.5*IQR].
	MethodIQR OutlierMethod = "iqr"

	// MethodZScore flags values whose population z-score exceeds 2 in
	// absolute value.
	MethodZScore OutlierMethod = "zscore"
)

// IsValid reports whether the method is one of the supported algorithms.
func (m OutlierMethod) IsValid() bool {
	return m == MethodIQR || m == MethodZScore
}

// FindOutliers returns the outliers of the collection in original input
// order, duplicates preserved. Collections with fewer than 4 values have no
// outliers. An unrecognized method yields no outliers.
func FindOutliers(values []float64, method OutlierMethod) []float64 {
	if len(values) < 4 {
		return []float64{}
	}

	switch method {
	case MethodIQR:
		q1, _ := Percentile(values, 25).Get()
		q3, _ := Percentile(values, 75).Get()
		iqr := q3 - q1
		lower := q1 - 1.5*iqr
		upper := q3 + 1.5*iqr

		outliers := make([]float64, 0)
		for _, v := range values {
			if v < lower || v > upper {
				outliers = append(outliers, v)
			}
		}
		return outliers

	case MethodZScore:
		// Unrounded population mean and std, unlike ComputeStats output.
		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))

		var variance float64
		for _, v := range values {
			d := v - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(values)))
		if std == 0 {
			return []float64{}
		}

		outliers := make([]float64, 0)
		for _, v := range values {
			if math.Abs((v-mean)/std) > 2 {
				outliers = append(outliers, v)
			}
		}
		return outliers
	}

	return []float64{}
}
