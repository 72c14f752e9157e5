package observability

import (
	"context"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/config"
	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracing        *tracing
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	stageDuration  otelmetric.Float64Histogram
	allocatedSeats otelmetric.Int64Counter
	logger         logger.Logger
}

type Options struct {
	// Registerer receives the OTel Prometheus collector. Defaults to the
	// global registry served on /metrics.
	Registerer prom.Registerer
}

func New(serviceName string, cfg config.ObservabilityConfig, log logger.Logger, opts Options) (*Observability, error) {
	exporterOpts := []prometheus.Option{}
	if opts.Registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(opts.Registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider, logger: log}

	if o.jobCounter, err = meter.Int64Counter("jobs.processed",
		otelmetric.WithDescription("Number of jobs processed")); err != nil {
		return nil, err
	}
	if o.jobDuration, err = meter.Float64Histogram("jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if o.stageDuration, err = meter.Float64Histogram("allocation.stage.duration",
		otelmetric.WithDescription("Allocation pipeline stage duration"),
		otelmetric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if o.allocatedSeats, err = meter.Int64Counter("allocation.seats",
		otelmetric.WithDescription("Seats allocated per run")); err != nil {
		return nil, err
	}

	if o.tracing, err = newTracing(serviceName, cfg); err != nil {
		return nil, err
	}
	if cfg.TracingEndpoint != "" {
		log.Info("trace export enabled", map[string]interface{}{"endpoint": cfg.TracingEndpoint})
	}
	return o, nil
}

// Tracer returns the tracer handed to the allocation pipeline.
func (o *Observability) Tracer(name string) trace.Tracer {
	return o.tracing.provider.Tracer(name)
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// Recorder wraps next so every event is also exported through OTel.
func (o *Observability) Recorder(next allocation.Recorder) allocation.Recorder {
	if next == nil {
		next = allocation.NopRecorder{}
	}
	return &otelRecorder{obs: o, next: next}
}

func (o *Observability) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.logger.Warn("meter provider shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := o.tracing.shutdown(ctx); err != nil {
		o.logger.Warn("tracer provider shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

type otelRecorder struct {
	obs  *Observability
	next allocation.Recorder
}

func (r *otelRecorder) PairScored(fallback bool) {
	r.next.PairScored(fallback)
}

func (r *otelRecorder) Allocated(t models.AllocationType, seat models.QuotaCategory) {
	r.next.Allocated(t, seat)
	r.obs.allocatedSeats.Add(context.Background(), 1, otelmetric.WithAttributes(
		attribute.String("allocation_type", string(t)),
		attribute.String("seat_category", string(seat)),
	))
}

func (r *otelRecorder) StageCompleted(stage string, d time.Duration) {
	r.next.StageCompleted(stage, d)
	r.obs.stageDuration.Record(context.Background(), float64(d.Microseconds())/1000,
		otelmetric.WithAttributes(attribute.String("stage", stage)))
}
