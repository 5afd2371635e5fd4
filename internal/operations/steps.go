package operations

import (
	"context"
	"fmt"

	"tsprep/internal/pipeline"
	"tsprep/internal/preset"
)

// BuildSteps translates one settings document into the ordered step list
// of a full run. Filtering always runs, even with zero predicates, so the
// processed snapshot is rebuilt from the original at the start of every
// run. Optional stages appear only when their settings enable them.
func BuildSteps(settings preset.Settings, export ExportOptions) []Step {
	steps := []Step{filterStep{predicates: settings.Filters}}

	if settings.Outlier.Apply {
		steps = append(steps, outlierStep{
			method: settings.Outlier.Method,
			action: settings.Outlier.Action,
		})
	}
	if settings.Normalize.Apply {
		steps = append(steps, normalizeStep{method: settings.Normalize.Method})
	}
	if settings.Time.Normalize {
		steps = append(steps, snapStep{interval: settings.Time.IntervalMinutes()})
	}
	if settings.Time.Realign {
		steps = append(steps, realignStep{
			start:    settings.Time.StartTime,
			interval: settings.Time.IntervalMinutes(),
		})
	}
	if export.Enabled {
		steps = append(steps, exportStep{
			outputPath: export.OutputPath,
			dateFormat: export.DateFormat,
		})
	}
	return steps
}

type filterStep struct {
	predicates []pipeline.FilterPredicate
}

func (filterStep) ID() string     { return StepIDFilter }
func (filterStep) Name() string   { return StepNameFilter }
func (filterStep) Critical() bool { return true }

func (s filterStep) Run(ctx context.Context, prep *pipeline.Preprocessor) (StepOutcome, error) {
	res, err := prep.ApplyFilters(s.predicates)
	if err != nil {
		return StepOutcome{}, err
	}
	return StepOutcome{
		Message: fmt.Sprintf("%d of %d rows retained", res.After, res.Before),
		Metadata: map[string]any{
			"before":  res.Before,
			"after":   res.After,
			"removed": res.Removed,
		},
	}, nil
}

type outlierStep struct {
	method pipeline.OutlierMethod
	action pipeline.OutlierAction
}

func (outlierStep) ID() string     { return StepIDOutliers }
func (outlierStep) Name() string   { return StepNameOutliers }
func (outlierStep) Critical() bool { return false }

func (s outlierStep) Run(ctx context.Context, prep *pipeline.Preprocessor) (StepOutcome, error) {
	res, err := prep.RemoveOutliers(s.method, nil, s.action)
	if err != nil {
		return StepOutcome{}, err
	}
	return StepOutcome{
		Message: fmt.Sprintf("%d outliers handled (%s)", res.Outliers, s.method.DisplayName()),
		Metadata: map[string]any{
			"outliers":   res.Outliers,
			"rows_after": res.RowsAfter,
			"method":     string(s.method),
			"action":     string(s.action),
		},
	}, nil
}

type normalizeStep struct {
	method pipeline.NormMethod
}

func (normalizeStep) ID() string     { return StepIDNormalize }
func (normalizeStep) Name() string   { return StepNameNormalize }
func (normalizeStep) Critical() bool { return false }

func (s normalizeStep) Run(ctx context.Context, prep *pipeline.Preprocessor) (StepOutcome, error) {
	res, err := prep.Normalize(s.method, nil)
	if err != nil {
		return StepOutcome{}, err
	}
	return StepOutcome{
		Message: fmt.Sprintf("%d columns normalized", res.Columns),
		Metadata: map[string]any{
			"columns": res.Columns,
			"method":  string(s.method),
		},
	}, nil
}

type snapStep struct {
	interval int
}

func (snapStep) ID() string     { return StepIDSnap }
func (snapStep) Name() string   { return StepNameSnap }
func (snapStep) Critical() bool { return false }

func (s snapStep) Run(ctx context.Context, prep *pipeline.Preprocessor) (StepOutcome, error) {
	res, err := prep.SnapTimestamps(s.interval)
	if err != nil {
		return StepOutcome{}, err
	}
	return StepOutcome{
		Message: fmt.Sprintf("%d timestamps corrected", res.Corrected),
		Metadata: map[string]any{
			"corrected":        res.Corrected,
			"interval_minutes": res.Interval,
		},
	}, nil
}

type realignStep struct {
	start    string
	interval int
}

func (realignStep) ID() string     { return StepIDRealign }
func (realignStep) Name() string   { return StepNameRealign }
func (realignStep) Critical() bool { return false }

func (s realignStep) Run(ctx context.Context, prep *pipeline.Preprocessor) (StepOutcome, error) {
	res, err := prep.RealignTimestamps(s.start, s.interval)
	if err != nil {
		return StepOutcome{}, err
	}
	return StepOutcome{
		Message: fmt.Sprintf("%d rows realigned", res.Rows),
		Metadata: map[string]any{
			"rows":             res.Rows,
			"interval_minutes": res.Interval,
		},
	}, nil
}

type exportStep struct {
	outputPath string
	dateFormat string
}

func (exportStep) ID() string     { return StepIDExport }
func (exportStep) Name() string   { return StepNameExport }
func (exportStep) Critical() bool { return false }

func (s exportStep) Run(ctx context.Context, prep *pipeline.Preprocessor) (StepOutcome, error) {
	path, err := prep.Save(s.outputPath, s.dateFormat)
	if err != nil {
		return StepOutcome{}, err
	}
	return StepOutcome{
		Message:  fmt.Sprintf("exported to %s", path),
		Metadata: map[string]any{"path": path},
	}, nil
}
