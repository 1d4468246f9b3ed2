package domain

import "sort"

// DailyMean is one date's aggregated value, the unit consumed by line-chart
// style presentations.
type DailyMean struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// SortRecordsByDateDesc orders a multi-day concatenation most-recent first.
// Rendering consumers of the raw series depend on this ordering.
func SortRecordsByDateDesc(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}

// DownsampleSeries applies fixed-stride reduction once a series exceeds the
// cap, keeping every Nth point in original relative order. Deterministic:
// identical inputs always yield identical output.
func DownsampleSeries(points []Point, maxPoints int) []Point {
	if maxPoints <= 0 {
		return points
	}
	return stridePoints(points, maxPoints)
}

// AggregateDaily reduces extracted points to one arithmetic mean per date,
// sorted ascending (oldest first). Note the ordering contract differs from
// the raw series, which is date-descending.
func AggregateDaily(points []Point) []DailyMean {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range points {
		sums[p.Date] += p.Value
		counts[p.Date]++
	}

	out := make([]DailyMean, 0, len(sums))
	for date, sum := range sums {
		out = append(out, DailyMean{Date: date, Value: sum / float64(counts[date]), Count: counts[date]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
