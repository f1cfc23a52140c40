package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	ingestAccepted   metric.Int64Counter
	ingestRejected   metric.Int64Counter
	broadcasts       metric.Int64Counter
	broadcastDropped metric.Int64Counter
	kpiQueries       metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	jobRuns          metric.Int64Counter
	jobErrors        metric.Int64Counter
	jobProcessed     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "agrilink"
	}
	meter := provider.Meter(name)

	ingestAccepted, err := meter.Int64Counter("agrilink_ingest_accepted_total")
	if err != nil {
		return nil, err
	}
	ingestRejected, err := meter.Int64Counter("agrilink_ingest_rejected_total")
	if err != nil {
		return nil, err
	}
	broadcasts, err := meter.Int64Counter("agrilink_realtime_broadcasts_total")
	if err != nil {
		return nil, err
	}
	broadcastDropped, err := meter.Int64Counter("agrilink_realtime_dropped_total")
	if err != nil {
		return nil, err
	}
	kpiQueries, err := meter.Int64Counter("agrilink_qa_kpi_queries_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("agrilink_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	jobRuns, err := meter.Int64Counter("agrilink_scheduler_job_runs_total")
	if err != nil {
		return nil, err
	}
	jobErrors, err := meter.Int64Counter("agrilink_scheduler_job_errors_total")
	if err != nil {
		return nil, err
	}
	jobProcessed, err := meter.Int64Counter("agrilink_scheduler_job_processed_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ingestAccepted:   ingestAccepted,
		ingestRejected:   ingestRejected,
		broadcasts:       broadcasts,
		broadcastDropped: broadcastDropped,
		kpiQueries:       kpiQueries,
		rateLimitDenied:  rateLimitDenied,
		jobRuns:          jobRuns,
		jobErrors:        jobErrors,
		jobProcessed:     jobProcessed,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordIngestAccepted(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.ingestAccepted.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("source", strings.TrimSpace(source)),
	)...))
}

func (m *Metrics) RecordIngestRejected(ctx context.Context, source, reason string) {
	if m == nil {
		return
	}
	m.ingestRejected.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("source", strings.TrimSpace(source)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)...))
}

func (m *Metrics) RecordBroadcast(ctx context.Context, topic string, delivered, dropped int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(FilterAttributes(attribute.String("topic", topic))...)
	m.broadcasts.Add(ctx, int64(delivered), attrs)
	if dropped > 0 {
		m.broadcastDropped.Add(ctx, int64(dropped), attrs)
	}
}

func (m *Metrics) RecordKPIQuery(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.kpiQueries.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("scope", strings.TrimSpace(scope)),
	)...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"source":   {},
	"reason":   {},
	"topic":    {},
	"scope":    {},
	"endpoint": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

// RecordJobRun counts one scheduler job execution. reason is empty on success.
func (m *Metrics) RecordJobRun(ctx context.Context, job string, processed int, reason string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(FilterAttributes(attribute.String("job", job))...)
	m.jobRuns.Add(ctx, 1, attrs)
	if processed > 0 {
		m.jobProcessed.Add(ctx, int64(processed), attrs)
	}
	if reason != "" {
		m.jobErrors.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
			attribute.String("job", job),
			attribute.String("reason", reason),
		)...))
	}
}
