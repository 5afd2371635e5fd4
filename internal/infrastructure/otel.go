package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "tsprep"
	ServiceVersion = "1.2.0"
	MeterName      = "tsprep"
)

// OTelProviders holds the OpenTelemetry metric provider and the scrape
// handler backing /metrics.
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel sets up the metrics pipeline: an OTel meter provider
// exporting through the Prometheus bridge.
func InitializeOTel(logger *slog.Logger) (*OTelProviders, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			semconv.DeploymentEnvironmentName(env),
			attribute.String("service.instance.id", uuid.New().String()),
		))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	logger.Info("metrics initialized",
		slog.String("service", ServiceName),
		slog.String("environment", env))

	return &OTelProviders{
		MeterProvider:  mp,
		Meter:          mp.Meter(MeterName),
		PrometheusHTTP: promhttp.Handler(),
		Logger:         logger,
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// PipelineMetrics are the instruments recorded by the service layer.
type PipelineMetrics struct {
	RunsStarted   metric.Int64Counter
	RunsCompleted metric.Int64Counter
	RunsFailed    metric.Int64Counter
	RowsLoaded    metric.Int64Counter
	RunDuration   metric.Float64Histogram
}

// NewPipelineMetrics registers the pipeline instruments on the meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runsStarted, err := meter.Int64Counter("tsprep.runs.started",
		metric.WithDescription("Preprocessing runs started"))
	if err != nil {
		return nil, err
	}
	runsCompleted, err := meter.Int64Counter("tsprep.runs.completed",
		metric.WithDescription("Preprocessing runs completed"))
	if err != nil {
		return nil, err
	}
	runsFailed, err := meter.Int64Counter("tsprep.runs.failed",
		metric.WithDescription("Preprocessing runs failed or cancelled"))
	if err != nil {
		return nil, err
	}
	rowsLoaded, err := meter.Int64Counter("tsprep.rows.loaded",
		metric.WithDescription("Rows loaded from input files"))
	if err != nil {
		return nil, err
	}
	runDuration, err := meter.Float64Histogram("tsprep.run.duration",
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsStarted:   runsStarted,
		RunsCompleted: runsCompleted,
		RunsFailed:    runsFailed,
		RowsLoaded:    rowsLoaded,
		RunDuration:   runDuration,
	}, nil
}

// RecordRun records one finished run with its terminal status.
func (m *PipelineMetrics) RecordRun(ctx context.Context, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	switch status {
	case "completed":
		m.RunsCompleted.Add(ctx, 1, attrs)
	default:
		m.RunsFailed.Add(ctx, 1, attrs)
	}
	m.RunDuration.Record(ctx, elapsed.Seconds(), attrs)
}
