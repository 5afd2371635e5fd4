package pipeline

import (
	"log/slog"
	"math"

	"tsprep/internal/dataset"
)

// FilterPredicate is one row condition. Predicates are independent and
// AND-combined. For the range operator, a nil Min or Max means unbounded
// on that side; for the comparison operators a nil Value defaults to zero.
type FilterPredicate struct {
	Column   string   `json:"column" validate:"required"`
	Operator Operator `json:"operator" validate:"required"`
	Value    *float64 `json:"value,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// FilterResult reports the row counts of one filter pass.
type FilterResult struct {
	Before   int     `json:"before"`
	After    int     `json:"after"`
	Removed  int     `json:"removed"`
	Retained float64 `json:"retained"`
}

// ApplyFilters rebuilds the processed snapshot from the original, keeping
// the rows where every predicate holds. It always starts over from the
// original, so repeated calls with the same predicates are idempotent.
// Predicates naming unknown columns are skipped. With zero predicates the
// processed snapshot becomes a full copy of the original.
func (p *Preprocessor) ApplyFilters(predicates []FilterPredicate) (FilterResult, error) {
	if p.original == nil {
		return FilterResult{}, ErrNotLoaded
	}

	before := p.original.RowCount()

	// Resolve column positions once; drop predicates on unknown columns.
	type boundPredicate struct {
		col  int
		pred FilterPredicate
	}
	bound := make([]boundPredicate, 0, len(predicates))
	for _, pred := range predicates {
		col, ok := p.original.ColumnIndex(pred.Column)
		if !ok {
			p.logger.Warn("filter predicate skipped, unknown column",
				slog.String("column", pred.Column))
			continue
		}
		bound = append(bound, boundPredicate{col: col, pred: pred})
	}

	p.processed = p.original.Select(func(row []dataset.Value) bool {
		for _, bp := range bound {
			if !bp.pred.matches(row[bp.col]) {
				return false
			}
		}
		return true
	})

	after := p.processed.RowCount()
	retained := 0.0
	if before > 0 {
		retained = float64(after) / float64(before)
	}

	p.stats.FilterRun = true
	p.stats.FilteredRows = after
	p.stats.FilterRemoved = before - after

	p.logger.Info("filters applied",
		slog.Int("predicates", len(bound)),
		slog.Int("rows_before", before),
		slog.Int("rows_after", after))

	return FilterResult{Before: before, After: after, Removed: before - after, Retained: retained}, nil
}

// matches evaluates the predicate against one cell. Null and non-numeric
// cells fail every comparison except !=, which they pass; that keeps the
// semantics of comparing against a missing reading.
func (f FilterPredicate) matches(v dataset.Value) bool {
	x, ok := v.Float()
	if !ok {
		return f.Operator == OpNE
	}

	operand := 0.0
	if f.Value != nil {
		operand = *f.Value
	}

	switch f.Operator {
	case OpGE:
		return x >= operand
	case OpLE:
		return x <= operand
	case OpGT:
		return x > operand
	case OpLT:
		return x < operand
	case OpEQ:
		return x == operand
	case OpNE:
		return x != operand
	case OpRange:
		min := math.Inf(-1)
		if f.Min != nil {
			min = *f.Min
		}
		max := math.Inf(1)
		if f.Max != nil {
			max = *f.Max
		}
		return x >= min && x <= max
	default:
		// Unknown operators never match anything; validation upstream
		// rejects them before they get here.
		return false
	}
}
