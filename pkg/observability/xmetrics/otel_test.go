package xmetrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
)

func newTestProviders(t *testing.T) (*tracetest.InMemoryExporter, *sdkmetric.ManualReader, xmetrics.Observer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	obs, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName("test"),
		xmetrics.WithTracerProvider(tp),
		xmetrics.WithMeterProvider(mp),
	)
	require.NoError(t, err)
	return exporter, reader, obs
}

// countByOutcome 汇总 xmemo.operation.total 中各 outcome 的计数
func countByOutcome(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != xmetrics.MetricOperationTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("outcome"))
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestOTelObserver_RecordsSpanAndMetrics(t *testing.T) {
	exporter, reader, obs := newTestProviders(t)

	for _, outcome := range []string{"hit", "hit", "miss"} {
		_, span := obs.Start(context.Background(), xmetrics.SpanOptions{
			Component: "xmemo",
			Operation: "do",
			Attrs:     []xmetrics.Attr{xmetrics.String("fn", "prices")},
		})
		span.End(xmetrics.Result{Outcome: outcome, Attrs: []xmetrics.Attr{xmetrics.Int64("bucket", 7)}})
	}

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "xmemo.do", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	counts := countByOutcome(t, reader)
	assert.Equal(t, int64(2), counts["hit"])
	assert.Equal(t, int64(1), counts["miss"])
}

func TestOTelSpan_ErrorAndIdempotentEnd(t *testing.T) {
	exporter, reader, obs := newTestProviders(t)

	_, span := obs.Start(context.Background(), xmetrics.SpanOptions{Kind: xmetrics.KindClient})
	span.End(xmetrics.Result{Err: errors.New("compute failed"), Outcome: "error"})
	span.End(xmetrics.Result{Outcome: "hit"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unknown.unknown", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)

	counts := countByOutcome(t, reader)
	assert.Equal(t, map[string]int64{"error": 1}, counts)
}

func TestStart_NilObserver(t *testing.T) {
	ctx, span := xmetrics.Start(context.Background(), nil, xmetrics.SpanOptions{})
	require.NotNil(t, ctx)
	span.End(xmetrics.Result{Status: xmetrics.StatusOK})

	_, span = xmetrics.Start(context.Background(), xmetrics.NoopObserver{}, xmetrics.SpanOptions{})
	assert.IsType(t, xmetrics.NoopSpan{}, span)
}

func TestAttrs(t *testing.T) {
	assert.Equal(t, xmetrics.Attr{Key: "k", Value: true}, xmetrics.Bool("k", true))
	assert.Equal(t, xmetrics.Attr{Key: "d", Value: time.Second}, xmetrics.Duration("d", time.Second))
}
