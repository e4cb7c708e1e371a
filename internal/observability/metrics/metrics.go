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

const (
	CompletionSourceManual     = "manual"
	CompletionSourceReconcile  = "reconcile"
	CompletionSourceUnitStatus = "unit_status"
)

// Metrics exposes rental ledger instruments.
type Metrics struct {
	rentalsCreated    metric.Int64Counter
	rentalsCompleted  metric.Int64Counter
	rentalsRemoved    metric.Int64Counter
	inconsistencies   metric.Int64Counter
	paymentsRecorded  metric.Int64Counter
	unitStatusChanges metric.Int64Counter
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

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))
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

// New registers the ledger counters on provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "storagedesk"
	}
	meter := provider.Meter(name)

	var m Metrics
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.rentalsCreated, "storagedesk_rentals_created_total", "Rentals opened."},
		{&m.rentalsCompleted, "storagedesk_rentals_completed_total", "Rentals moved to completed, by trigger."},
		{&m.rentalsRemoved, "storagedesk_rentals_removed_total", "Rentals deleted with their payments."},
		{&m.inconsistencies, "storagedesk_ledger_inconsistencies_total", "Multi-step writes that stopped halfway."},
		{&m.paymentsRecorded, "storagedesk_payments_recorded_total", "Payments recorded, by method."},
		{&m.unitStatusChanges, "storagedesk_unit_status_changes_total", "Unit status transitions."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return &m, nil
}

func add(ctx context.Context, counter metric.Int64Counter, n int, attrs ...attribute.KeyValue) {
	if n <= 0 {
		return
	}
	counter.Add(ctx, int64(n), metric.WithAttributes(FilterAttributes(attrs...)...))
}

func label(key, value string) attribute.KeyValue {
	return attribute.String(key, strings.TrimSpace(value))
}

// The Record methods are no-ops on a nil *Metrics.

func (m *Metrics) RecordRentalCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.rentalsCreated, 1)
	}
}

// RecordRentalCompleted counts completions by what triggered them.
func (m *Metrics) RecordRentalCompleted(ctx context.Context, source string, count int) {
	if m != nil {
		add(ctx, m.rentalsCompleted, count, label("source", source))
	}
}

func (m *Metrics) RecordRentalRemoved(ctx context.Context, status string) {
	if m != nil {
		add(ctx, m.rentalsRemoved, 1, label("status", status))
	}
}

func (m *Metrics) RecordInconsistency(ctx context.Context, operation string) {
	if m != nil {
		add(ctx, m.inconsistencies, 1, label("operation", operation))
	}
}

func (m *Metrics) RecordPayment(ctx context.Context, method string) {
	if m != nil {
		add(ctx, m.paymentsRecorded, 1, label("method", method))
	}
}

func (m *Metrics) RecordUnitStatusChange(ctx context.Context, from, to string) {
	if m != nil {
		add(ctx, m.unitStatusChanges, 1, label("from", from), label("to", to))
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
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
	"source":    {},
	"status":    {},
	"operation": {},
	"method":    {},
	"from":      {},
	"to":        {},
	"reason":    {},
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
