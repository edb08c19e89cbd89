package scheduler

import (
	"context"
	"fmt"

	fulfillmentapp "github.com/boxstock/backend/internal/application/fulfillment"
	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StagnationScanner flags the stagnant stock of one warehouse
type StagnationScanner interface {
	ScanWarehouse(ctx context.Context, warehouseID uuid.UUID) (*inventoryapp.ScanResult, error)
}

// HealthSnapshotter recomputes the stock-health gauges of one warehouse
type HealthSnapshotter interface {
	Snapshot(ctx context.Context, warehouseID uuid.UUID) (map[inventory.Urgency]int, error)
}

// WaitingStockResumer retries WAITING_STOCK orders
type WaitingStockResumer interface {
	ResumeWaiting(ctx context.Context, productID, warehouseID *uuid.UUID, limit int) (*fulfillmentapp.SweepResult, error)
}

// WaitingGauge is reset from a complete sweep
type WaitingGauge interface {
	SetWaitingStock(n int)
}

// JobRunner executes jobs against the application services
type JobRunner struct {
	scanner   StagnationScanner
	health    HealthSnapshotter
	orders    WaitingStockResumer
	gauge     WaitingGauge
	batchSize int
	logger    *zap.Logger
}

// NewJobRunner creates a new JobRunner. batchSize caps the orders one
// sweep examines.
func NewJobRunner(scanner StagnationScanner, health HealthSnapshotter, orders WaitingStockResumer, batchSize int, logger *zap.Logger) *JobRunner {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &JobRunner{
		scanner:   scanner,
		health:    health,
		orders:    orders,
		batchSize: batchSize,
		logger:    logger,
	}
}

// SetWaitingGauge sets the gauge resynced by complete sweeps
func (r *JobRunner) SetWaitingGauge(g WaitingGauge) {
	r.gauge = g
}

// Execute runs one job with a span and profiling labels
func (r *JobRunner) Execute(ctx context.Context, job *Job) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "scheduler", string(job.Type),
		telemetry.SpanAttrJobType, string(job.Type),
		"retry_count", job.RetryCount,
	)
	defer span.End()

	telemetry.WithProfilingLabels(ctx, map[string]string{telemetry.ProfilingLabelJobType: string(job.Type)}, func(ctx context.Context) {
		err = r.execute(ctx, job)
	})
	telemetry.RecordError(span, err)
	return err
}

func (r *JobRunner) execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeStagnationScan:
		if job.WarehouseID == nil {
			return fmt.Errorf("%s requires a warehouse", job.Type)
		}
		res, err := r.scanner.ScanWarehouse(ctx, *job.WarehouseID)
		if err != nil {
			return err
		}
		r.logger.Info("stagnation scan finished",
			zap.String("warehouse_id", job.WarehouseID.String()),
			zap.Int("scanned", res.Scanned),
			zap.Int("flagged", res.Flagged),
			zap.Int("already_open", res.AlreadyOpen),
			zap.Int("failed", res.Failed),
		)
		return nil

	case JobTypeHealthSnapshot:
		if job.WarehouseID == nil {
			return fmt.Errorf("%s requires a warehouse", job.Type)
		}
		_, err := r.health.Snapshot(ctx, *job.WarehouseID)
		return err

	case JobTypeWaitingStockSweep:
		res, err := r.orders.ResumeWaiting(ctx, nil, job.WarehouseID, r.batchSize)
		if err != nil {
			return err
		}
		// Every waiting order was seen, so the gauge can be reset exactly.
		// Only a global sweep sees them all.
		if job.WarehouseID == nil && res.Examined < r.batchSize && r.gauge != nil {
			r.gauge.SetWaitingStock(res.Waiting + res.Failed)
		}
		r.logger.Info("waiting-stock sweep finished",
			zap.Int("examined", res.Examined),
			zap.Int("resumed", res.Resumed),
			zap.Int("waiting", res.Waiting),
			zap.Int("failed", res.Failed),
		)
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
}

var _ JobExecutor = (*JobRunner)(nil)
