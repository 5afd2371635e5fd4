package dataset

import (
	"math"
	"sort"
)

// ColumnStats summarizes the non-null values of one numeric column.
type ColumnStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// Stats computes summary statistics over the non-null values of the named
// column. The second return is false when the column does not exist or
// holds no non-null numeric values.
func Stats(t *Table, column string) (ColumnStats, bool) {
	values := NumericValues(t, column)
	if len(values) == 0 {
		return ColumnStats{}, false
	}

	s := ColumnStats{
		Count:  len(values),
		Mean:   Mean(values),
		StdDev: StdDev(values),
		Min:    values[0],
		Max:    values[0],
	}
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q3 = Quantile(sorted, 0.75)
	return s, true
}

// NumericValues returns the non-null numeric cells of the column in row
// order.
func NumericValues(t *Table, column string) []float64 {
	col, ok := t.ColumnIndex(column)
	if !ok {
		return nil
	}
	out := make([]float64, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		if f, ok := t.rows[i][col].Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Mean returns the arithmetic mean. Zero for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n−1 denominator). Zero when
// fewer than two values exist.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Quantile returns the q-th quantile of sorted input using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
