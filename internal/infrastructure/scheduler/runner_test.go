package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	fulfillmentapp "github.com/boxstock/backend/internal/application/fulfillment"
	inventoryapp "github.com/boxstock/backend/internal/application/inventory"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScanner struct {
	scanned []uuid.UUID
	err     error
}

func (f *fakeScanner) ScanWarehouse(_ context.Context, id uuid.UUID) (*inventoryapp.ScanResult, error) {
	f.scanned = append(f.scanned, id)
	if f.err != nil {
		return nil, f.err
	}
	return &inventoryapp.ScanResult{WarehouseID: id, Scanned: 3, Flagged: 1}, nil
}

type fakeSnapshotter struct {
	ids []uuid.UUID
}

func (f *fakeSnapshotter) Snapshot(_ context.Context, id uuid.UUID) (map[inventory.Urgency]int, error) {
	f.ids = append(f.ids, id)
	return map[inventory.Urgency]int{inventory.UrgencyNormal: 1}, nil
}

type fakeResumer struct {
	result      fulfillmentapp.SweepResult
	limit       int
	warehouseID *uuid.UUID
}

func (f *fakeResumer) ResumeWaiting(_ context.Context, productID, warehouseID *uuid.UUID, limit int) (*fulfillmentapp.SweepResult, error) {
	f.limit = limit
	f.warehouseID = warehouseID
	res := f.result
	return &res, nil
}

type fakeGauge struct {
	value int
	set   bool
}

func (g *fakeGauge) SetWaitingStock(n int) {
	g.value = n
	g.set = true
}

func TestJobRunner_Execute(t *testing.T) {
	ctx := context.Background()
	wh := uuid.New()

	t.Run("stagnation scan", func(t *testing.T) {
		scanner := &fakeScanner{}
		r := NewJobRunner(scanner, &fakeSnapshotter{}, &fakeResumer{}, 10, zap.NewNop())

		require.NoError(t, r.Execute(ctx, NewJob(JobTypeStagnationScan, &wh, 0)))
		assert.Equal(t, []uuid.UUID{wh}, scanner.scanned)
	})

	t.Run("scan error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		r := NewJobRunner(&fakeScanner{err: boom}, &fakeSnapshotter{}, &fakeResumer{}, 10, zap.NewNop())
		assert.ErrorIs(t, r.Execute(ctx, NewJob(JobTypeStagnationScan, &wh, 0)), boom)
	})

	t.Run("warehouse jobs need a warehouse", func(t *testing.T) {
		r := NewJobRunner(&fakeScanner{}, &fakeSnapshotter{}, &fakeResumer{}, 10, zap.NewNop())
		assert.Error(t, r.Execute(ctx, NewJob(JobTypeStagnationScan, nil, 0)))
		assert.Error(t, r.Execute(ctx, NewJob(JobTypeHealthSnapshot, nil, 0)))
	})

	t.Run("health snapshot", func(t *testing.T) {
		snap := &fakeSnapshotter{}
		r := NewJobRunner(&fakeScanner{}, snap, &fakeResumer{}, 10, zap.NewNop())
		require.NoError(t, r.Execute(ctx, NewJob(JobTypeHealthSnapshot, &wh, 0)))
		assert.Equal(t, []uuid.UUID{wh}, snap.ids)
	})

	t.Run("complete sweep resets the gauge", func(t *testing.T) {
		resumer := &fakeResumer{result: fulfillmentapp.SweepResult{Examined: 4, Resumed: 1, Waiting: 2, Failed: 1}}
		gauge := &fakeGauge{}
		r := NewJobRunner(&fakeScanner{}, &fakeSnapshotter{}, resumer, 10, zap.NewNop())
		r.SetWaitingGauge(gauge)

		require.NoError(t, r.Execute(ctx, NewJob(JobTypeWaitingStockSweep, nil, 0)))
		assert.Equal(t, 10, resumer.limit)
		assert.Nil(t, resumer.warehouseID)
		assert.True(t, gauge.set)
		assert.Equal(t, 3, gauge.value)
	})

	t.Run("truncated sweep leaves the gauge", func(t *testing.T) {
		resumer := &fakeResumer{result: fulfillmentapp.SweepResult{Examined: 10, Waiting: 10}}
		gauge := &fakeGauge{}
		r := NewJobRunner(&fakeScanner{}, &fakeSnapshotter{}, resumer, 10, zap.NewNop())
		r.SetWaitingGauge(gauge)

		require.NoError(t, r.Execute(ctx, NewJob(JobTypeWaitingStockSweep, nil, 0)))
		assert.False(t, gauge.set)
	})

	t.Run("warehouse sweep leaves the gauge", func(t *testing.T) {
		resumer := &fakeResumer{result: fulfillmentapp.SweepResult{Examined: 1, Waiting: 1}}
		gauge := &fakeGauge{}
		r := NewJobRunner(&fakeScanner{}, &fakeSnapshotter{}, resumer, 10, zap.NewNop())
		r.SetWaitingGauge(gauge)

		require.NoError(t, r.Execute(ctx, NewJob(JobTypeWaitingStockSweep, &wh, 0)))
		assert.Equal(t, &wh, resumer.warehouseID)
		assert.False(t, gauge.set)
	})

	t.Run("unknown type", func(t *testing.T) {
		r := NewJobRunner(&fakeScanner{}, &fakeSnapshotter{}, &fakeResumer{}, 0, zap.NewNop())
		assert.ErrorIs(t, r.Execute(ctx, NewJob("REPORT", nil, 0)), ErrUnknownJobType)
	})
}

type fakeWarehouses struct {
	ids []uuid.UUID
	err error
}

func (f fakeWarehouses) ActiveWarehouseIDs(context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []*Job
	err  func(*Job) error
}

func (f *fakeSubmitter) Submit(job *Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		if err := f.err(job); err != nil {
			return err
		}
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func TestIntervalTrigger_Trigger(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	cfg := config.SchedulerConfig{RetryAttempts: 2}

	t.Run("one job per warehouse", func(t *testing.T) {
		sub := &fakeSubmitter{}
		trigger := NewIntervalTrigger(cfg, sub, fakeWarehouses{ids: []uuid.UUID{a, b}}, zap.NewNop())

		n, err := trigger.Trigger(ctx, JobTypeStagnationScan)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.Len(t, sub.jobs, 2)
		assert.Equal(t, a, *sub.jobs[0].WarehouseID)
		assert.Equal(t, b, *sub.jobs[1].WarehouseID)
		assert.Equal(t, 2, sub.jobs[0].MaxRetries)
	})

	t.Run("sweep is global", func(t *testing.T) {
		sub := &fakeSubmitter{}
		trigger := NewIntervalTrigger(cfg, sub, fakeWarehouses{err: errors.New("unused")}, zap.NewNop())

		n, err := trigger.Trigger(ctx, JobTypeWaitingStockSweep)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Nil(t, sub.jobs[0].WarehouseID)
	})

	t.Run("skips jobs still queued", func(t *testing.T) {
		sub := &fakeSubmitter{err: func(j *Job) error {
			if *j.WarehouseID == a {
				return ErrJobAlreadyQueued
			}
			return nil
		}}
		trigger := NewIntervalTrigger(cfg, sub, fakeWarehouses{ids: []uuid.UUID{a, b}}, zap.NewNop())

		n, err := trigger.Trigger(ctx, JobTypeHealthSnapshot)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("queue full stops the round", func(t *testing.T) {
		sub := &fakeSubmitter{err: func(*Job) error { return ErrJobQueueFull }}
		trigger := NewIntervalTrigger(cfg, sub, fakeWarehouses{ids: []uuid.UUID{a, b}}, zap.NewNop())

		n, err := trigger.Trigger(ctx, JobTypeHealthSnapshot)
		assert.ErrorIs(t, err, ErrJobQueueFull)
		assert.Equal(t, 0, n)
	})

	t.Run("warehouse lookup error", func(t *testing.T) {
		boom := errors.New("db down")
		trigger := NewIntervalTrigger(cfg, &fakeSubmitter{}, fakeWarehouses{err: boom}, zap.NewNop())
		_, err := trigger.Trigger(ctx, JobTypeStagnationScan)
		assert.ErrorIs(t, err, boom)
	})
}

func TestIntervalTrigger_Loop(t *testing.T) {
	sub := &fakeSubmitter{}
	cfg := config.SchedulerConfig{
		WaitingStockSweep: 10 * time.Millisecond,
	}
	trigger := NewIntervalTrigger(cfg, sub, fakeWarehouses{ids: []uuid.UUID{uuid.New()}}, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, trigger.Start(ctx))
	require.NoError(t, trigger.Start(ctx))

	assert.Eventually(t, func() bool { return sub.count() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(ctx))
	require.NoError(t, trigger.Stop(ctx))

	sub.mu.Lock()
	defer sub.mu.Unlock()
	for _, j := range sub.jobs {
		assert.Equal(t, JobTypeWaitingStockSweep, j.Type, "disabled job types never fire")
	}
}
