package pipeline

import (
	"fmt"
	"log/slog"

	"tsprep/internal/dataset"
)

// NormalizeResult reports one normalization pass.
type NormalizeResult struct {
	// Columns counts the columns actually rescaled. Degenerate columns
	// (zero stddev, zero range) are skipped and excluded from the count.
	Columns int `json:"columns"`
}

// Normalize rescales the target numeric columns of the processed snapshot
// in place. Each column's statistics are computed independently over its
// non-null values; normalizing one column never affects another's.
func (p *Preprocessor) Normalize(method NormMethod, columns []string) (NormalizeResult, error) {
	if p.processed == nil {
		return NormalizeResult{}, ErrNotLoaded
	}
	if !method.Valid() {
		return NormalizeResult{}, fmt.Errorf("unknown normalization method: %q", method)
	}

	targets := columns
	if len(targets) == 0 {
		targets = p.detection.NumericColumns
	}

	normalized := 0
	for _, column := range targets {
		if !p.detection.IsNumeric(column) {
			continue
		}
		values := dataset.NumericValues(p.processed, column)
		if len(values) == 0 {
			continue
		}

		var rescale func(x float64) float64
		switch method {
		case NormZScore:
			mean := dataset.Mean(values)
			std := dataset.StdDev(values)
			if std == 0 {
				continue
			}
			rescale = func(x float64) float64 { return (x - mean) / std }
		case NormMinMax:
			min, max := values[0], values[0]
			for _, v := range values[1:] {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			if max == min {
				continue
			}
			span := max - min
			rescale = func(x float64) float64 { return (x - min) / span }
		}

		col, _ := p.processed.ColumnIndex(column)
		for i := 0; i < p.processed.RowCount(); i++ {
			row := p.processed.Row(i)
			if x, ok := row[col].Float(); ok {
				row[col] = dataset.Number(rescale(x))
			}
		}
		normalized++
	}

	p.stats.NormalizeRun = true
	p.stats.NormalizedColumns = normalized

	p.logger.Info("columns normalized",
		slog.String("method", string(method)),
		slog.Int("columns", normalized))

	return NormalizeResult{Columns: normalized}, nil
}
