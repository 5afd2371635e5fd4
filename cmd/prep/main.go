// Command prep runs the preprocessing pipeline once over an input file
// and writes the cleaned result, driven by flags or a saved preset.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"tsprep/internal/config"
	"tsprep/internal/infrastructure"
	"tsprep/internal/operations"
	"tsprep/internal/pipeline"
	"tsprep/internal/preset"
)

func main() {
	inPath := flag.String("in", "", "input file (.csv, .xlsx or .xls)")
	outPath := flag.String("out", "", "output file (defaults to <input>_processed_<timestamp>)")
	presetName := flag.String("preset", "", "run with a saved preset (name or path)")
	presetsDir := flag.String("presets-dir", "presets", "preset directory")

	outlierMethod := flag.String("outlier-method", string(pipeline.MethodSigma25), "outlier method: 2sigma, 2.5sigma, 3sigma, iqr")
	outlierAction := flag.String("outlier-action", string(pipeline.ActionDrop), "outlier action: nan, drop")
	noOutliers := flag.Bool("no-outliers", false, "skip outlier handling")
	normalize := flag.String("normalize", "", "normalize columns: zscore or minmax")
	snap := flag.Bool("snap", false, "snap timestamps to the minute grid")
	realign := flag.String("realign", "", "realign timestamps from this start time")
	interval := flag.Int("interval", pipeline.DefaultIntervalMinutes, "grid interval in minutes")
	dateFormat := flag.String("date-format", "", "timestamp layout for the exported date column")
	summary := flag.Bool("summary", true, "print the run summary")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: prep -in <file> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := infrastructure.MustInitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "console",
		FilePath: "logs/prep.log",
	})
	defer infrastructure.CloseLogFile()

	settings, err := resolveSettings(*presetName, *presetsDir, logger, func(s *preset.Settings) {
		if *noOutliers {
			s.Outlier.Apply = false
		} else {
			s.Outlier = preset.OutlierSettings{
				Apply:  true,
				Method: pipeline.OutlierMethod(*outlierMethod),
				Action: pipeline.OutlierAction(*outlierAction),
			}
		}
		if *normalize != "" {
			s.Normalize = preset.NormalizeSettings{
				Apply:  true,
				Method: pipeline.NormMethod(*normalize),
			}
		}
		s.Time.Normalize = *snap
		if *realign != "" {
			s.Time.Realign = true
			s.Time.StartTime = *realign
		}
		s.Time.Interval = fmt.Sprintf("%d", *interval)
	})
	if err != nil {
		slog.Error("failed to resolve settings", "error", err)
		os.Exit(1)
	}

	prep := pipeline.New(logger)
	loadRes, err := prep.Load(*inPath)
	if err != nil {
		slog.Error("failed to load input", "path", *inPath, "error", err)
		os.Exit(1)
	}
	slog.Info("input loaded",
		"rows", loadRes.Rows,
		"date_column", loadRes.DateColumn,
		"numeric_columns", strings.Join(loadRes.NumericColumns, ","))

	manager := operations.NewManager(logger, operations.NopSink{})
	steps := operations.BuildSteps(settings, operations.ExportOptions{
		Enabled:    true,
		OutputPath: *outPath,
		DateFormat: *dateFormat,
	})
	run := manager.NewRun(steps)

	if err := manager.Execute(context.Background(), run, steps, prep); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	if *summary {
		fmt.Println(prep.Summary())
	}
}

// resolveSettings loads the preset when one is named, otherwise builds
// settings from the defaults adjusted by the flag overrides.
func resolveSettings(presetName, presetsDir string, logger *slog.Logger, override func(*preset.Settings)) (preset.Settings, error) {
	if presetName != "" {
		store, err := preset.NewStore(presetsDir, logger)
		if err != nil {
			return preset.Settings{}, err
		}
		p, err := store.Load(presetName)
		if err != nil {
			return preset.Settings{}, err
		}
		return p.Settings, nil
	}

	settings := preset.Default()
	override(&settings)
	return settings, nil
}
