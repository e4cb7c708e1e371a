package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsHighCardinalityLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("rental_id", "123"),
		attribute.String("customer_id", "456"),
		attribute.String("source", "reconcile"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("source"), attrs[0].Key)
}

func TestRecordRentalCompletedAddsCount(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "storagedesk"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRentalCompleted(ctx, CompletionSourceReconcile, 3)
	m.RecordRentalCompleted(ctx, CompletionSourceReconcile, 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			if metric.Name != "storagedesk_rentals_completed_total" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), total)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRentalCreated(context.Background())
		m.RecordInconsistency(context.Background(), "create_rental")
	})
}
