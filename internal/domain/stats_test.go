package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	t.Run("basic sequence", func(t *testing.T) {
		s := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})

		assert.Equal(t, 5.0, s.Mean)
		assert.Equal(t, 4.5, s.Median)
		assert.Equal(t, 2.0, s.Min)
		assert.Equal(t, 9.0, s.Max)
		assert.Equal(t, 2.0, s.StdDev)
		assert.Equal(t, 8, s.Count)
	})

	t.Run("odd-length median", func(t *testing.T) {
		s := Describe([]float64{9, 1, 5})
		assert.Equal(t, 5.0, s.Median)
	})

	t.Run("single value", func(t *testing.T) {
		s := Describe([]float64{3.5})
		assert.Equal(t, 3.5, s.Mean)
		assert.Equal(t, 3.5, s.Median)
		assert.Equal(t, 0.0, s.StdDev)
		assert.Equal(t, 1, s.Count)
	})

	t.Run("empty input yields the zero summary", func(t *testing.T) {
		assert.Equal(t, Summary{}, Describe(nil))
	})

	t.Run("ordering invariants", func(t *testing.T) {
		seqs := [][]float64{
			{1, 2, 3, 4, 5},
			{-10, 0, 10},
			{3.14},
			{100, 1, 50, 2, 99},
		}
		for _, v := range seqs {
			s := Describe(v)
			assert.LessOrEqual(t, s.Min, s.Median)
			assert.LessOrEqual(t, s.Median, s.Max)
			assert.GreaterOrEqual(t, s.Mean, s.Min)
			assert.LessOrEqual(t, s.Mean, s.Max)
		}
	})
}

func TestCorrelationMatrix(t *testing.T) {
	r := NewResolver(nil)

	t.Run("diagonal and symmetry", func(t *testing.T) {
		records := decodeTestDay(t,
			"lat,lon,PM2.5,TEMP,RH\n"+
				"30.1,120.2,10,5,80\n"+
				"30.2,120.3,20,10,70\n"+
				"30.3,120.4,30,15,65\n"+
				"30.4,120.5,40,20,50\n",
			"20130101")

		m := CorrelationMatrix(r, records, []string{"PM2.5", "TEMP", "RH"})
		require.Len(t, m, 3)
		for i := range m {
			require.Len(t, m[i], 3)
			assert.Equal(t, 1.0, m[i][i])
			for j := range m[i] {
				assert.Equal(t, m[i][j], m[j][i])
				assert.False(t, math.IsNaN(m[i][j]))
			}
		}
		// PM2.5 and TEMP move in perfect lockstep here.
		assert.InDelta(t, 1.0, m[0][1], 1e-9)
		// RH falls as PM2.5 rises.
		assert.Negative(t, m[0][2])
	})

	t.Run("zero variance yields 0, not NaN", func(t *testing.T) {
		records := decodeTestDay(t,
			"lat,lon,A,B\n1,2,7,7\n1,2,7,7\n1,2,7,7\n",
			"20130101")

		m := CorrelationMatrix(r, records, []string{"A", "B"})
		assert.Equal(t, 0.0, m[0][1])
		assert.Equal(t, 0.0, m[1][0])
		assert.Equal(t, 1.0, m[0][0])
	})

	t.Run("pairwise-complete filtering", func(t *testing.T) {
		// The NA row must drop from the A/B pairing entirely, not shift
		// one column's values against the other's.
		records := decodeTestDay(t,
			"lat,lon,A,B\n"+
				"1,2,1,1\n"+
				"1,2,2,NA\n"+
				"1,2,3,3\n"+
				"1,2,4,4\n",
			"20130101")

		m := CorrelationMatrix(r, records, []string{"A", "B"})
		assert.InDelta(t, 1.0, m[0][1], 1e-9)
	})

	t.Run("unresolvable variable gives a zero row", func(t *testing.T) {
		records := decodeTestDay(t, "lat,lon,A\n1,2,3\n1,2,4\n", "20130101")
		m := CorrelationMatrix(r, records, []string{"A", "MISSING"})
		assert.Equal(t, 0.0, m[0][1])
		assert.Equal(t, 1.0, m[1][1])
	})

	t.Run("empty records", func(t *testing.T) {
		m := CorrelationMatrix(r, nil, []string{"A", "B"})
		require.Len(t, m, 2)
		assert.Equal(t, 1.0, m[0][0])
		assert.Equal(t, 0.0, m[0][1])
	})
}
