package stats

import (
	"sort"

	"github.com/minato/gyotaku/internal/models"
)

// MonthlyStats is one (year, month) bucket.
type MonthlyStats struct {
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	Count       int      `json:"count"`
	AverageSize float64  `json:"average_size"`
	TotalWeight float64  `json:"total_weight"`
	Species     []string `json:"species"`
	Locations   []string `json:"locations"`
}

// SeasonCounts buckets records by meteorological season.
type SeasonCounts struct {
	Spring int `json:"spring"` // Mar-May
	Summer int `json:"summer"` // Jun-Aug
	Autumn int `json:"autumn"` // Sep-Nov
	Winter int `json:"winter"` // Dec-Feb
}

// YearlyTrend is one entry of the per-year trend line.
type YearlyTrend struct {
	Year        int     `json:"year"`
	Count       int     `json:"count"`
	AverageSize float64 `json:"average_size"`
}

// TimeAnalysis is the full time-bucketed view.
type TimeAnalysis struct {
	Monthly []MonthlyStats `json:"monthly"`
	Seasons SeasonCounts   `json:"seasons"`
	Yearly  []YearlyTrend  `json:"yearly"`
}

// Analyze computes monthly, seasonal, and yearly buckets. Monthly entries are
// sorted ascending by (year, month), yearly entries ascending by year.
func Analyze(records []models.Record) TimeAnalysis {
	type monthKey struct{ year, month int }
	monthly := make(map[monthKey][]models.Record)
	yearly := make(map[int][]models.Record)
	var seasons SeasonCounts

	for _, r := range records {
		y, m := r.CaughtAt.Year(), int(r.CaughtAt.Month())
		mk := monthKey{y, m}
		monthly[mk] = append(monthly[mk], r)
		yearly[y] = append(yearly[y], r)

		switch {
		case m >= 3 && m <= 5:
			seasons.Spring++
		case m >= 6 && m <= 8:
			seasons.Summer++
		case m >= 9 && m <= 11:
			seasons.Autumn++
		default: // 12, 1, 2
			seasons.Winter++
		}
	}

	out := TimeAnalysis{Seasons: seasons}

	for mk, bucket := range monthly {
		ms := MonthlyStats{
			Year:        mk.year,
			Month:       mk.month,
			Count:       len(bucket),
			AverageSize: meanPositiveSize(bucket),
			Species:     distinctValues(bucket, func(r models.Record) string { return r.Species }),
			Locations:   distinctValues(bucket, func(r models.Record) string { return r.Location }),
		}
		for _, r := range bucket {
			if r.Weight != nil && *r.Weight > 0 {
				ms.TotalWeight += *r.Weight
			}
		}
		out.Monthly = append(out.Monthly, ms)
	}
	sort.Slice(out.Monthly, func(i, j int) bool {
		a, b := out.Monthly[i], out.Monthly[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	for y, bucket := range yearly {
		out.Yearly = append(out.Yearly, YearlyTrend{
			Year:        y,
			Count:       len(bucket),
			AverageSize: meanPositiveSize(bucket),
		})
	}
	sort.Slice(out.Yearly, func(i, j int) bool { return out.Yearly[i].Year < out.Yearly[j].Year })

	return out
}

// distinctValues collects the sorted set of trimmed non-empty values of key.
func distinctValues(records []models.Record, key func(models.Record) string) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		if v := trimKey(key(r)); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
