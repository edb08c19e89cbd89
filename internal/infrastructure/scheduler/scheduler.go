// Package scheduler runs the background jobs: stagnation scans, the
// WAITING_STOCK sweep and stock-health snapshots.
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

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType identifies what a job does
type JobType string

const (
	JobTypeStagnationScan    JobType = "STAGNATION_SCAN"
	JobTypeWaitingStockSweep JobType = "WAITING_STOCK_SWEEP"
	JobTypeHealthSnapshot    JobType = "HEALTH_SNAPSHOT"
)

// AllJobTypes returns every job type
func AllJobTypes() []JobType {
	return []JobType{JobTypeStagnationScan, JobTypeWaitingStockSweep, JobTypeHealthSnapshot}
}

// Job outcomes reported to JobMetrics
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// Job is one run of a job type, optionally scoped to a warehouse
type Job struct {
	ID          uuid.UUID
	Type        JobType
	WarehouseID *uuid.UUID // nil means all warehouses
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a new pending job
func NewJob(jobType JobType, warehouseID *uuid.UUID, maxRetries int) *Job {
	return &Job{
		ID:          uuid.New(),
		Type:        jobType,
		WarehouseID: warehouseID,
		Status:      JobStatusPending,
		MaxRetries:  maxRetries,
	}
}

// Key identifies the job's type and scope. At most one job per key is
// pending or running.
func (j *Job) Key() string {
	if j.WarehouseID == nil {
		return string(j.Type)
	}
	return string(j.Type) + ":" + j.WarehouseID.String()
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// JobExecutor is the interface for executing jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobMetrics receives one observation per job attempt
type JobMetrics interface {
	ObserveJob(jobType, outcome string, d time.Duration)
}

// Scheduler is a fixed worker pool draining a bounded job queue. Failed
// jobs are resubmitted after the retry delay until attempts run out.
type Scheduler struct {
	config   config.SchedulerConfig
	executor JobExecutor
	metrics  JobMetrics
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool

	inflightMu sync.Mutex
	inflight   map[string]struct{}
	retries    map[*time.Timer]struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg config.SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &Scheduler{
		config:   cfg,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, cfg.QueueSize),
		inflight: make(map[string]struct{}),
		retries:  make(map[*time.Timer]struct{}),
	}
}

// SetMetrics sets the job metrics sink
func (s *Scheduler) SetMetrics(m JobMetrics) {
	s.metrics = m
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs, drops queued ones and waits for the workers
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	close(s.jobs)
	s.mu.Unlock()

	s.inflightMu.Lock()
	for t := range s.retries {
		t.Stop()
	}
	clear(s.retries)
	s.inflightMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a job. It never blocks: a full queue returns
// ErrJobQueueFull and a duplicate of a pending or running job returns
// ErrJobAlreadyQueued.
func (s *Scheduler) Submit(job *Job) error {
	key := job.Key()
	s.inflightMu.Lock()
	if _, ok := s.inflight[key]; ok {
		s.inflightMu.Unlock()
		return ErrJobAlreadyQueued
	}
	s.inflight[key] = struct{}{}
	s.inflightMu.Unlock()

	if err := s.enqueue(job); err != nil {
		s.release(job)
		return err
	}
	s.logger.Debug("Job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
	return nil
}

// enqueue holds the read lock so Stop cannot close the channel mid-send
func (s *Scheduler) enqueue(job *Job) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) release(job *Job) {
	s.inflightMu.Lock()
	delete(s.inflight, job.Key())
	s.inflightMu.Unlock()
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	logger := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
	if job.WarehouseID != nil {
		logger = logger.With(zap.String("warehouse_id", job.WarehouseID.String()))
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.run(jobCtx, job)
	cancel()
	elapsed := time.Since(*job.StartedAt)

	if err == nil {
		job.Complete()
		s.observe(job, OutcomeSuccess, elapsed)
		s.release(job)
		logger.Debug("Job completed", zap.Duration("elapsed", elapsed))
		return
	}

	job.Fail(err.Error())
	outcome := OutcomeFailure
	if errors.Is(err, context.DeadlineExceeded) {
		outcome = OutcomeTimeout
	}
	s.observe(job, outcome, elapsed)
	logger.Error("Job failed", zap.Int("retry_count", job.RetryCount), zap.Error(err))

	if ctx.Err() != nil || !job.ShouldRetry() {
		s.release(job)
		return
	}
	s.scheduleRetry(job, logger)
}

// run executes the job, turning a panic into an error so the worker
// survives
func (s *Scheduler) run(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("job panicked")
			s.logger.Error("Job panicked", zap.String("job_type", string(job.Type)), zap.Any("panic", r))
		}
	}()
	return s.executor.Execute(ctx, job)
}

// scheduleRetry requeues the job after the retry delay. The job keeps its
// in-flight slot meanwhile.
func (s *Scheduler) scheduleRetry(job *Job, logger *zap.Logger) {
	job.RetryCount++
	job.Status = JobStatusPending

	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(s.config.RetryDelay, func() {
		s.inflightMu.Lock()
		delete(s.retries, timer)
		s.inflightMu.Unlock()

		if err := s.enqueue(job); err != nil {
			s.release(job)
			logger.Warn("Failed to requeue job for retry", zap.Error(err))
		}
	})
	s.retries[timer] = struct{}{}

	logger.Info("Job scheduled for retry",
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", s.config.RetryDelay),
	)
}

func (s *Scheduler) observe(job *Job, outcome string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveJob(string(job.Type), outcome, d)
	}
}

// Pending returns the number of jobs pending or running
func (s *Scheduler) Pending() int {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	return len(s.inflight)
}
