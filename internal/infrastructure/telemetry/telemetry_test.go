package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func disabledConfig() config.TelemetryConfig {
	return config.TelemetryConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "boxstock-test",
		SamplingRatio:     1,
	}
}

// withRecorder installs a recording tracer provider for the test
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	cfg := disabledConfig()

	t.Run("tracer", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, cfg, logger)
		require.NoError(t, err)
		assert.False(t, tp.IsEnabled())

		tp.EnableSpanProfiles()
		assert.False(t, tp.SpanProfilesEnabled())
		assert.NotNil(t, tp.Tracer("test"))
		assert.NoError(t, tp.ForceFlush(ctx))
		assert.NoError(t, tp.Shutdown(ctx))
	})

	t.Run("meter", func(t *testing.T) {
		cfg := cfg
		cfg.MetricsEnabled = true
		mp, err := NewMeterProvider(ctx, cfg, logger)
		require.NoError(t, err)
		assert.False(t, mp.IsEnabled())
		assert.NotNil(t, mp.Meter("test"))
		assert.NoError(t, mp.Shutdown(ctx))
	})

	t.Run("logs", func(t *testing.T) {
		cfg := cfg
		cfg.LogsEnabled = true
		lp, err := NewLoggerProvider(ctx, cfg, logger)
		require.NoError(t, err)
		assert.False(t, lp.IsEnabled())
		assert.False(t, lp.Core().Enabled(zapcore.ErrorLevel))
		assert.Same(t, logger, lp.Bridge(logger))
		assert.NoError(t, lp.Shutdown(ctx))
	})

	t.Run("profiler", func(t *testing.T) {
		p, err := NewProfiler(cfg, logger)
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("profiler requires an address", func(t *testing.T) {
		cfg := cfg
		cfg.ProfilingEnabled = true
		_, err := NewProfiler(cfg, logger)
		assert.ErrorIs(t, err, ErrProfilerAddressRequired)
	})
}

func TestSamplerFor(t *testing.T) {
	tests := map[string]struct {
		ratio float64
		want  string
	}{
		"always": {1, "AlwaysOnSampler"},
		"above":  {2, "AlwaysOnSampler"},
		"never":  {0, "AlwaysOffSampler"},
		"ratio":  {0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, samplerFor(tt.ratio).Description(), tt.want)
		})
	}
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "ledger"))

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "ledger", logs.All()[0].ContextMap()["component"])
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("loud"))
}

func TestInstruments(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	counter, err := NewCounter(meter, "http_server_request_total", "requests", "{request}")
	require.NoError(t, err)
	hist, err := NewHistogram(meter, "http_server_request_duration_seconds", "latency", "s", HTTPDurationBuckets)
	require.NoError(t, err)

	attrs := []attribute.KeyValue{AttrHTTPMethod.String("GET"), AttrHTTPRoute.String("/api/v1/orders/:id")}
	counter.Inc(ctx, attrs...)
	counter.Inc(ctx, attrs...)
	hist.RecordDuration(ctx, 30*time.Millisecond, attrs...)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	sum, ok := byName["http_server_request_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	h, ok := byName["http_server_request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
	assert.Equal(t, HTTPDurationBuckets, h.DataPoints[0].Bounds)
}

func TestStartSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "stock_ledger", "reserve",
		SpanAttrBoxes, 3,
		SpanAttrProductID, "p-1",
		42, "ignored",
	)
	assert.NotEmpty(t, TraceID(ctx))
	SetAttributes(span, "retry", true)
	RecordError(span, nil)
	RecordError(span, errors.New("insufficient stock"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "stock_ledger.reserve", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Contains(t, s.Attributes(), attribute.Int(SpanAttrBoxes, 3))
	assert.Contains(t, s.Attributes(), attribute.String(SpanAttrProductID, "p-1"))
	assert.Contains(t, s.Attributes(), attribute.Bool("retry", true))
	assert.Len(t, s.Events(), 1)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestSanitizeLabels(t *testing.T) {
	long := make([]byte, MaxLabelValueLength+10)
	for i := range long {
		long[i] = 'a'
	}

	pairs := sanitizeLabels(map[string]string{
		"Job-Type":     "STAGNATION_SCAN",
		"route":        string(long),
		"order_id":     "5f1c",
		"method":       "",
		"!!":           "x",
		"Warehouse-ID": "5f1d",
	})

	assert.Equal(t, []string{
		"job_type", "STAGNATION_SCAN",
		"route", string(long[:MaxLabelValueLength]),
	}, pairs)
	assert.Nil(t, sanitizeLabels(nil))
}

func TestWithProfilingLabels(t *testing.T) {
	called := 0
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called++ })
	WithProfilingLabels(context.Background(), map[string]string{ProfilingLabelJobType: "HEALTH_SNAPSHOT"}, func(ctx context.Context) {
		called++
		assert.NotNil(t, ctx)
	})
	assert.Equal(t, 2, called)
}

type crate struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestDBTracing(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	recorder := withRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&crate{}))

	cfg := config.TelemetryConfig{
		Enabled:           true,
		DBTraceEnabled:    true,
		DBLogFullSQL:      true,
		DBSlowQueryThresh: time.Nanosecond,
	}
	require.NoError(t, NewDBTracing(cfg, zap.New(core)).Register(db))

	require.NoError(t, db.WithContext(context.Background()).Create(&crate{Name: "box"}).Error)

	t.Run("otelgorm emits spans", func(t *testing.T) {
		assert.NotEmpty(t, recorder.Ended())
	})

	t.Run("slow queries are logged with sql", func(t *testing.T) {
		slow := logs.FilterMessage("slow query").All()
		require.NotEmpty(t, slow)
		fields := slow[0].ContextMap()
		assert.Equal(t, "crates", fields["table"])
		assert.Contains(t, fields["sql"], "INSERT INTO")
	})
}

func TestDBTracing_Defaults(t *testing.T) {
	p := NewDBTracing(config.TelemetryConfig{DBTraceEnabled: true}, zap.NewNop())
	assert.False(t, p.tracing)
	assert.Equal(t, defaultSlowQueryThreshold, p.slowThresh)
}
