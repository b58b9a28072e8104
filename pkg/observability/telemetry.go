package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/fieldz/fieldz_backend/config"
)

const defaultServiceName = "fieldz_backend"

// GenerationDurationBuckets are the histogram bounds, in milliseconds, for a
// recurring generation run.
var GenerationDurationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exported as fieldz.scheduling.* resource attributes when set.
	Timezone    string
	LockBackend string

	OTLPEndpoint string // host:port of an OTLP HTTP collector; empty disables export
	OTLPInsecure bool

	SamplingRate float64 // 0 means sample everything

	// Registerer receives the Prometheus collector. Nil uses the default
	// registry served by /metrics.
	Registerer promclient.Registerer
}

// FromCentralConfig picks the telemetry settings out of the app config.
func FromCentralConfig(c *config.Config) Config {
	cfg := Config{
		ServiceName:    c.Observability.ServiceName,
		ServiceVersion: c.Observability.ServiceVersion,
		Environment:    c.Server.Environment,
		Timezone:       c.Scheduling.Timezone,
		LockBackend:    c.Scheduling.LockBackend,
		SamplingRate:   c.Observability.Tracing.SamplingRate,
	}
	if c.Observability.Tracing.Enabled {
		cfg.OTLPEndpoint = c.Observability.Tracing.OTLPEndpoint
		cfg.OTLPInsecure = c.Observability.Tracing.OTLPInsecure
	}
	return cfg
}

type Provider struct {
	TracerProvider     *trace.TracerProvider
	MeterProvider      *metric.MeterProvider
	PrometheusExporter *prometheus.Exporter
}

// InitTelemetry builds the tracer and meter providers and installs them as
// the otel globals, together with the W3C trace context propagator.
func InitTelemetry(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerProvider, err := initTracing(ctx, res, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	meterProvider, promExporter, err := initMetrics(res, cfg.Registerer)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		TracerProvider:     tracerProvider,
		MeterProvider:      meterProvider,
		PrometheusExporter: promExporter,
	}, nil
}

func newResource(cfg Config) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	}
	if cfg.Timezone != "" {
		attrs = append(attrs, attribute.String("fieldz.scheduling.timezone", cfg.Timezone))
	}
	if cfg.LockBackend != "" {
		attrs = append(attrs, attribute.String("fieldz.scheduling.lock_backend", cfg.LockBackend))
	}
	// empty schema URL so Merge keeps the one from resource.Default()
	return resource.Merge(resource.Default(), resource.NewWithAttributes("", attrs...))
}

func initTracing(ctx context.Context, res *resource.Resource, cfg Config) (*trace.TracerProvider, error) {
	samplingRate := cfg.SamplingRate
	if samplingRate <= 0 {
		samplingRate = 1.0
	}

	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		// an incoming sampled flag wins over the ratio
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(samplingRate))),
	}

	if cfg.OTLPEndpoint != "" {
		exOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			exOpts = append(exOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(opts...), nil
}

func initMetrics(res *resource.Resource, reg promclient.Registerer) (*metric.MeterProvider, *prometheus.Exporter, error) {
	var promOpts []prometheus.Option
	if reg != nil {
		promOpts = append(promOpts, prometheus.WithRegisterer(reg))
	}
	promExporter, err := prometheus.New(promOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	durationView := metric.NewView(
		metric.Instrument{Name: MetricGenerationDuration},
		metric.Stream{Aggregation: metric.AggregationExplicitBucketHistogram{
			Boundaries: GenerationDurationBuckets,
		}},
	)

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(promExporter),
		metric.WithView(durationView),
	)
	return meterProvider, promExporter, nil
}

// Shutdown flushes pending spans and stops both providers. Both are shut
// down even when the first one fails.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if err := p.TracerProvider.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider: %w", err))
	}
	if err := p.MeterProvider.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider: %w", err))
	}
	return errors.Join(errs...)
}
