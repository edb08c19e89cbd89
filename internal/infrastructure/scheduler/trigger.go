package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WarehouseProvider lists the warehouses jobs run for
type WarehouseProvider interface {
	ActiveWarehouseIDs(ctx context.Context) ([]uuid.UUID, error)
}

// JobSubmitter is implemented by Scheduler
type JobSubmitter interface {
	Submit(job *Job) error
}

// IntervalTrigger submits each job type on its own interval: stagnation
// scans and health snapshots once per active warehouse, the waiting-stock
// sweep once globally. A zero interval disables that job type.
type IntervalTrigger struct {
	intervals  map[JobType]time.Duration
	maxRetries int
	scheduler  JobSubmitter
	warehouses WarehouseProvider
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a new trigger
func NewIntervalTrigger(cfg config.SchedulerConfig, scheduler JobSubmitter, warehouses WarehouseProvider, logger *zap.Logger) *IntervalTrigger {
	return &IntervalTrigger{
		intervals: map[JobType]time.Duration{
			JobTypeStagnationScan:    cfg.StagnationInterval,
			JobTypeWaitingStockSweep: cfg.WaitingStockSweep,
			JobTypeHealthSnapshot:    cfg.HealthSnapshotEvery,
		},
		maxRetries: cfg.RetryAttempts,
		scheduler:  scheduler,
		warehouses: warehouses,
		logger:     logger,
	}
}

// Start starts one ticker loop per enabled job type
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	for _, jobType := range AllJobTypes() {
		interval := t.intervals[jobType]
		if interval <= 0 {
			t.logger.Info("Job type disabled", zap.String("job_type", string(jobType)))
			continue
		}
		t.wg.Add(1)
		go t.runLoop(ctx, jobType, interval)
	}

	t.logger.Info("Interval trigger started",
		zap.Duration("stagnation_scan", t.intervals[JobTypeStagnationScan]),
		zap.Duration("waiting_stock_sweep", t.intervals[JobTypeWaitingStockSweep]),
		zap.Duration("health_snapshot", t.intervals[JobTypeHealthSnapshot]),
	)
	return nil
}

// Stop stops the ticker loops
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.cancel()
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) runLoop(ctx context.Context, jobType JobType, interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.Trigger(ctx, jobType); err != nil {
				t.logger.Error("Failed to trigger jobs", zap.String("job_type", string(jobType)), zap.Error(err))
			}
		}
	}
}

// Trigger submits jobType now and returns the number of jobs queued. Jobs
// still queued from a previous tick are skipped.
func (t *IntervalTrigger) Trigger(ctx context.Context, jobType JobType) (int, error) {
	if jobType == JobTypeWaitingStockSweep {
		return t.submit(NewJob(jobType, nil, t.maxRetries))
	}

	ids, err := t.warehouses.ActiveWarehouseIDs(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, id := range ids {
		n, err := t.submit(NewJob(jobType, &id, t.maxRetries))
		if err != nil {
			return queued, err
		}
		queued += n
	}
	return queued, nil
}

func (t *IntervalTrigger) submit(job *Job) (int, error) {
	err := t.scheduler.Submit(job)
	switch {
	case err == nil:
		return 1, nil
	case errors.Is(err, ErrJobAlreadyQueued):
		t.logger.Debug("Job still queued, skipping", zap.String("key", job.Key()))
		return 0, nil
	default:
		return 0, err
	}
}
