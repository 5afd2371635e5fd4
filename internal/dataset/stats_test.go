package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	// Sample stddev with n-1 denominator.
	assert.InDelta(t, 2.138089935, StdDev(values), 1e-6)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{3}))
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, Quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-9)
	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 4.0, Quantile(sorted, 1))
	assert.Equal(t, 5.0, Quantile([]float64{5}, 0.5))
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
}

func TestStatsSkipsNulls(t *testing.T) {
	tbl := buildTable(t, []string{"v"},
		[]Value{Number(1)},
		[]Value{Null()},
		[]Value{Number(3)},
	)

	s, ok := Stats(tbl, "v")
	require.True(t, ok)
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.InDelta(t, 2.0, s.Median, 1e-9)
}

func TestStatsEmptyColumn(t *testing.T) {
	tbl := buildTable(t, []string{"v"}, []Value{Null()})

	_, ok := Stats(tbl, "v")
	assert.False(t, ok)
	_, ok = Stats(tbl, "missing")
	assert.False(t, ok)
}
