package domain

import (
	"math"
	"sort"
)

// Summary holds descriptive statistics over a value sequence.
type Summary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
	Count  int     `json:"count"`
}

// Describe computes descriptive statistics over a sequence of finite numbers.
// An empty input yields the zero Summary; nothing here divides by zero.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqSum float64
	for _, v := range values {
		d := v - mean
		sqSum += d * d
	}

	return Summary{
		Mean:   mean,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(sqSum / float64(len(values))),
		Count:  len(values),
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// CorrelationMatrix computes pairwise Pearson coefficients for the requested
// variables over a record set, one row and column per variable. For each pair
// only records where both variables resolve to a number contribute; a record
// missing either side is excluded from that pair entirely. The diagonal is
// fixed at 1. A degenerate pair (fewer than two complete observations, or
// zero variance on either side) yields 0 rather than NaN.
func CorrelationMatrix(r *Resolver, records []Record, variables []string) [][]float64 {
	n := len(variables)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}

	// Pre-read each variable per record once; nil marks "did not resolve".
	columns := make([][]*float64, n)
	for i, v := range variables {
		columns[i] = readVariable(r, records, v)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := pearson(columns[i], columns[j])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return matrix
}

func readVariable(r *Resolver, records []Record, variable string) []*float64 {
	out := make([]*float64, len(records))
	for k, rec := range records {
		if f, ok := r.fieldValue(rec, variable); ok {
			v := f
			out[k] = &v
		}
	}
	return out
}

// pearson computes the Pearson coefficient over pairwise-complete entries.
func pearson(xs, ys []*float64) float64 {
	var px, py []float64
	for k := range xs {
		if xs[k] != nil && ys[k] != nil {
			px = append(px, *xs[k])
			py = append(py, *ys[k])
		}
	}
	n := float64(len(px))
	if len(px) < 2 {
		return 0
	}

	var sumX, sumY float64
	for k := range px {
		sumX += px[k]
		sumY += py[k]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for k := range px {
		dx, dy := px[k]-meanX, py[k]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}
	return cov / denom
}
