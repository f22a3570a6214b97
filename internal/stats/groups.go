package stats

import (
	"sort"
	"strings"

	"github.com/minato/gyotaku/internal/models"
)

// GroupStats is a per-group aggregation (species, location, or weather).
type GroupStats struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
	AverageSize float64 `json:"average_size"`
	MaxSize     float64 `json:"max_size"`
	MinSize     float64 `json:"min_size"`
	TotalWeight float64 `json:"total_weight"`
}

// BySpecies groups records by trimmed species name.
func BySpecies(records []models.Record) []GroupStats {
	return groupBy(records, func(r models.Record) string {
		return trimKey(r.Species)
	})
}

// ByLocation groups records by trimmed location.
func ByLocation(records []models.Record) []GroupStats {
	return groupBy(records, func(r models.Record) string {
		return trimKey(r.Location)
	})
}

// ByWeather groups records by weather condition; absent or blank weather is
// the literal category "unknown".
func ByWeather(records []models.Record) []GroupStats {
	return groupBy(records, func(r models.Record) string {
		if w := trimKey(r.Weather); w != "" {
			return w
		}
		return "unknown"
	})
}

func trimKey(s string) string { return strings.TrimSpace(s) }

// groupBy aggregates records under key(r), dropping empty keys, sorted
// descending by count (name ascending on ties for determinism).
func groupBy(records []models.Record, key func(models.Record) string) []GroupStats {
	buckets := make(map[string][]models.Record)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		buckets[k] = append(buckets[k], r)
	}

	total := len(records)
	out := make([]GroupStats, 0, len(buckets))
	for name, bucket := range buckets {
		g := GroupStats{
			Name:        name,
			Count:       len(bucket),
			AverageSize: meanPositiveSize(bucket),
		}
		if total > 0 {
			g.Percentage = round1(float64(len(bucket)) / float64(total) * 100)
		}
		first := true
		for _, r := range bucket {
			if r.Weight != nil && *r.Weight > 0 {
				g.TotalWeight += *r.Weight
			}
			if r.Size == nil || *r.Size <= 0 {
				continue
			}
			if first || *r.Size > g.MaxSize {
				g.MaxSize = *r.Size
			}
			if first || *r.Size < g.MinSize {
				g.MinSize = *r.Size
			}
			first = false
		}
		out = append(out, g)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
