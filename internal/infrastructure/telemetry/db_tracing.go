package telemetry

import (
	"errors"
	"time"

	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

const queryStartKey = "boxstock:query_start"

// DBTracing registers otelgorm and a slow-query detector on a GORM handle
type DBTracing struct {
	tracing    bool
	fullSQL    bool
	slowThresh time.Duration
	logger     *zap.Logger
}

// NewDBTracing creates the plugin from telemetry config
func NewDBTracing(cfg config.TelemetryConfig, logger *zap.Logger) *DBTracing {
	thresh := cfg.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = defaultSlowQueryThreshold
	}
	return &DBTracing{
		tracing:    cfg.Enabled && cfg.DBTraceEnabled,
		fullSQL:    cfg.DBLogFullSQL,
		slowThresh: thresh,
		logger:     logger,
	}
}

// Register installs the callbacks. Slow queries are logged whether or not
// spans are exported. The timing callbacks are registered ahead of otelgorm
// so they wrap its span: the after hook still sees the span recording.
func (p *DBTracing) Register(db *gorm.DB) error {
	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("boxstock:before_create", p.before),
		cb.Query().Before("gorm:query").Register("boxstock:before_query", p.before),
		cb.Update().Before("gorm:update").Register("boxstock:before_update", p.before),
		cb.Delete().Before("gorm:delete").Register("boxstock:before_delete", p.before),
		cb.Row().Before("gorm:row").Register("boxstock:before_row", p.before),
		cb.Raw().Before("gorm:raw").Register("boxstock:before_raw", p.before),
		cb.Create().After("gorm:create").Register("boxstock:after_create", p.after),
		cb.Query().After("gorm:query").Register("boxstock:after_query", p.after),
		cb.Update().After("gorm:update").Register("boxstock:after_update", p.after),
		cb.Delete().After("gorm:delete").Register("boxstock:after_delete", p.after),
		cb.Row().After("gorm:row").Register("boxstock:after_row", p.after),
		cb.Raw().After("gorm:raw").Register("boxstock:after_raw", p.after),
	)
	if err != nil {
		return err
	}

	if p.tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !p.fullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	p.logger.Info("Database instrumentation registered",
		zap.Bool("tracing", p.tracing),
		zap.Bool("log_full_sql", p.fullSQL),
		zap.Duration("slow_query_threshold", p.slowThresh),
	)
	return nil
}

// before stamps the statement rather than its context: otelgorm swaps the
// statement context back to its parent once its span ends.
func (p *DBTracing) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracing) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	recording := span.IsRecording()
	if recording {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}

	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed <= p.slowThresh {
		return
	}

	if recording {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.slowThresh.Milliseconds()),
		))
	}
	fields := []zap.Field{
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", db.Statement.RowsAffected),
	}
	if p.fullSQL {
		fields = append(fields, zap.String("sql", db.Statement.SQL.String()))
	}
	p.logger.Warn("slow query", fields...)
}
