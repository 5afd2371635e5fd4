package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"tsprep/internal/dataset"
)

// OutlierResult reports one outlier pass.
type OutlierResult struct {
	// Outliers counts flagged values per column at evaluation time. Under
	// the drop action a row flagged in several columns is counted once per
	// flagging column, so the total can exceed the number of rows removed.
	Outliers  int `json:"outliers"`
	RowsAfter int `json:"rows_after"`
}

// RemoveOutliers computes per-column inlier bounds on the processed
// snapshot and applies the action. Columns are processed in order: each
// column's bounds are computed immediately before its own mutation, so
// under the drop action later columns see the rows remaining after earlier
// columns' drops. Run this at most once per pipeline pass; repeating it
// keeps narrowing bounds on already-filtered data.
func (p *Preprocessor) RemoveOutliers(method OutlierMethod, columns []string, action OutlierAction) (OutlierResult, error) {
	if p.processed == nil {
		return OutlierResult{}, ErrNotLoaded
	}
	if !method.Valid() {
		return OutlierResult{}, fmt.Errorf("unknown outlier method: %q", method)
	}
	if !action.Valid() {
		return OutlierResult{}, fmt.Errorf("unknown outlier action: %q", action)
	}

	targets := columns
	if len(targets) == 0 {
		targets = p.detection.NumericColumns
	}

	total := 0
	for _, column := range targets {
		if !p.detection.IsNumeric(column) {
			continue
		}
		values := dataset.NumericValues(p.processed, column)
		if len(values) == 0 {
			// Mean, stddev and quantiles are undefined on an empty
			// column; zero outliers, no mutation.
			continue
		}

		lower, upper := inlierBounds(method, values)
		col, _ := p.processed.ColumnIndex(column)
		flagged := 0

		switch action {
		case ActionNull:
			for i := 0; i < p.processed.RowCount(); i++ {
				row := p.processed.Row(i)
				if x, ok := row[col].Float(); ok && (x < lower || x > upper) {
					row[col] = dataset.Null()
					flagged++
				}
			}
		case ActionDrop:
			p.processed = p.processed.Select(func(row []dataset.Value) bool {
				if x, ok := row[col].Float(); ok && (x < lower || x > upper) {
					flagged++
					return false
				}
				return true
			})
		}

		total += flagged
		p.logger.Debug("outlier bounds applied",
			slog.String("column", column),
			slog.Float64("lower", lower),
			slog.Float64("upper", upper),
			slog.Int("flagged", flagged))
	}

	p.stats.OutlierRun = true
	p.stats.OutliersTouched = total
	p.stats.RowsAfterOutliers = p.processed.RowCount()

	p.logger.Info("outliers handled",
		slog.String("method", string(method)),
		slog.String("action", string(action)),
		slog.Int("outliers", total),
		slog.Int("rows_after", p.processed.RowCount()))

	return OutlierResult{Outliers: total, RowsAfter: p.processed.RowCount()}, nil
}

// inlierBounds computes the [lower, upper] interval for the method over
// the non-null values of one column as it currently stands. A
// zero-variance column collapses the σ-bounds to the mean, making every
// non-equal value an outlier; that is the expected behavior.
func inlierBounds(method OutlierMethod, values []float64) (lower, upper float64) {
	if method == MethodIQR {
		sorted := make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)
		q1 := dataset.Quantile(sorted, 0.25)
		q3 := dataset.Quantile(sorted, 0.75)
		iqr := q3 - q1
		return q1 - 1.5*iqr, q3 + 1.5*iqr
	}

	k, _ := method.sigma()
	mean := dataset.Mean(values)
	std := dataset.StdDev(values)
	return mean - k*std, mean + k*std
}
