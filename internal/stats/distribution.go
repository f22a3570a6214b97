package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/minato/gyotaku/internal/models"
)

// SizeRange is one histogram bucket. The final bucket includes its upper
// bound; all others are half-open [Min, Max).
type SizeRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Label string  `json:"label"`
	Count int     `json:"count"`
}

// Percentiles are interpolated order statistics over the positive sizes.
type Percentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

// SizeDistribution is the histogram-plus-percentiles view.
type SizeDistribution struct {
	Ranges      []SizeRange `json:"ranges"`
	Percentiles Percentiles `json:"percentiles"`
}

// Distribution computes a 10-bucket equal-width histogram over [0, maxSize]
// with step = ceil(maxSize/10), plus interpolated percentiles. Records
// without a positive size are excluded entirely; an empty filtered set yields
// empty ranges and all-zero percentiles.
func Distribution(records []models.Record) SizeDistribution {
	sizes := positiveSizes(records)
	if len(sizes) == 0 {
		return SizeDistribution{Ranges: []SizeRange{}}
	}

	sort.Float64s(sizes)
	maxSize := sizes[len(sizes)-1]
	step := math.Ceil(maxSize / 10)
	if step < 1 {
		step = 1
	}

	ranges := make([]SizeRange, 10)
	for i := range ranges {
		lo := float64(i) * step
		hi := lo + step
		ranges[i] = SizeRange{
			Min:   round1(lo),
			Max:   round1(hi),
			Label: fmt.Sprintf("%g-%g", lo, hi),
		}
	}
	for _, s := range sizes {
		idx := int(s / step)
		if idx > 9 {
			idx = 9 // maxSize lands in the final, inclusive bucket
		}
		ranges[idx].Count++
	}

	return SizeDistribution{
		Ranges: ranges,
		Percentiles: Percentiles{
			P25: percentile(sizes, 25),
			P50: percentile(sizes, 50),
			P75: percentile(sizes, 75),
			P90: percentile(sizes, 90),
			P95: percentile(sizes, 95),
		},
	}
}

// percentile computes the p-th percentile of sorted by linear interpolation
// between the two nearest order statistics, rounded to one decimal.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := p / 100 * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return round1(sorted[lo])
	}
	frac := idx - float64(lo)
	return round1(sorted[lo] + (sorted[hi]-sorted[lo])*frac)
}
