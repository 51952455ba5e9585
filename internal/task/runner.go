package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/phrazzld/item-api/internal/redact"
	"github.com/phrazzld/item-api/internal/store"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("processing run queue is full, try again later")

	// ErrRunnerStopped is returned by Submit after Stop has been called.
	ErrRunnerStopped = errors.New("processing run runner is stopped")
)

// Messages recorded on runs that end without being processed to completion.
const (
	interruptedMessage = "interrupted before completion"
	stoppedMessage     = "runner stopped before the run was started"
	queueFullMessage   = "rejected: queue full"
	startFailedMessage = "could not be started"
)

// Processor performs one pass of bulk item processing.
type Processor interface {
	ProcessAll(ctx context.Context) ([]*domain.Item, error)
}

// partialFailure is implemented by processing errors that report which items
// failed and how many were saved before the failure surfaced.
type partialFailure interface {
	FailedIDs() []int64
	ProcessedCount() int
}

// RunnerConfig holds configuration for the RunRunner.
type RunnerConfig struct {
	// WorkerCount determines how many runs execute concurrently
	WorkerCount int

	// QueueSize determines how many submitted runs can wait for a worker
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 1,
		QueueSize:   16,
	}
}

// RunRunner executes processing runs in the background. Each submitted run is
// persisted, queued, and picked up by one of a fixed set of workers which
// records its outcome in the RunStore.
type RunRunner struct {
	store      store.RunStore
	processor  Processor
	runs       chan *domain.ProcessingRun
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
	config     RunnerConfig
	logger     *slog.Logger
}

// NewRunRunner creates a new RunRunner. Start must be called before runs are
// executed.
func NewRunRunner(
	runStore store.RunStore,
	processor Processor,
	config RunnerConfig,
	logger *slog.Logger,
) *RunRunner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RunRunner{
		store:      runStore,
		processor:  processor,
		runs:       make(chan *domain.ProcessingRun, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "run_runner")),
	}
}

// Start closes out runs left unfinished by a previous process and launches
// the workers.
func (r *RunRunner) Start(ctx context.Context) error {
	n, err := r.store.FailUnfinished(ctx, interruptedMessage)
	if err != nil {
		return fmt.Errorf("failed to recover unfinished runs: %w", err)
	}
	if n > 0 {
		r.logger.Warn("marked unfinished processing runs as failed", slog.Int64("count", n))
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.logger.Info("run runner started",
		slog.Int("workers", r.config.WorkerCount),
		slog.Int("queue_size", r.config.QueueSize))
	return nil
}

// Submit persists a new pending run and queues it for execution. The returned
// run is a snapshot taken at submission time.
func (r *RunRunner) Submit(ctx context.Context) (*domain.ProcessingRun, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	run := domain.NewProcessingRun()
	if err := r.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save processing run: %w", err)
	}
	snapshot := *run

	r.mu.RLock()
	if r.stopped {
		r.mu.RUnlock()
		r.abandon(ctx, run, stoppedMessage)
		return nil, ErrRunnerStopped
	}

	select {
	case r.runs <- run:
		r.mu.RUnlock()
		log.Info("processing run queued", slog.String("run_id", run.ID.String()))
		return &snapshot, nil
	default:
		r.mu.RUnlock()
		log.Warn("processing run rejected, queue is full", slog.String("run_id", run.ID.String()))
		r.abandon(ctx, run, queueFullMessage)
		return nil, ErrQueueFull
	}
}

// Stop cancels runs in flight, waits for the workers to exit and marks runs
// still waiting in the queue as failed.
func (r *RunRunner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.cancelFunc()
	r.wg.Wait()

	for {
		select {
		case run := <-r.runs:
			r.abandon(context.Background(), run, stoppedMessage)
		default:
			r.logger.Info("run runner stopped")
			return
		}
	}
}

func (r *RunRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return
		case run := <-r.runs:
			r.execute(run, id)
		}
	}
}

// execute drives a single run through processing to a terminal status.
func (r *RunRunner) execute(run *domain.ProcessingRun, workerID int) {
	ctx := context.Background()
	log := r.logger.With(
		slog.String("run_id", run.ID.String()),
		slog.Int("worker_id", workerID),
	)

	// Mark the run as processing before doing any work
	run.Start()
	if err := r.store.Update(ctx, run); err != nil {
		log.Error("failed to mark run as processing", slog.String("error", redact.Error(err)))
		// Best effort: leave the run in a terminal state for pollers
		r.abandon(ctx, run, startFailedMessage)
		return
	}

	log.Info("processing run started")

	items, err := r.process(logger.WithLogger(r.ctx, log), log)
	if err != nil {
		var (
			pf        partialFailure
			failedIDs []int64
			processed int
		)
		if errors.As(err, &pf) {
			failedIDs = pf.FailedIDs()
			processed = pf.ProcessedCount()
		}
		run.Fail(processed, failedIDs, redact.Error(err))
		log.Error("processing run failed",
			slog.Int("processed", processed),
			slog.Int("failed", len(failedIDs)),
			slog.String("error", run.Error))
	} else {
		run.Complete(len(items))
		log.Info("processing run completed", slog.Int("processed", len(items)))
	}

	if err := r.store.Update(ctx, run); err != nil {
		log.Error("failed to record run outcome", slog.String("error", redact.Error(err)))
	}
}

// process runs the processor, turning a panic into an error.
func (r *RunRunner) process(ctx context.Context, log *slog.Logger) (items []*domain.Item, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("processing run panicked",
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			items, err = nil, fmt.Errorf("task panicked: %v", p)
		}
	}()

	return r.processor.ProcessAll(ctx)
}

func (r *RunRunner) abandon(ctx context.Context, run *domain.ProcessingRun, msg string) {
	run.Fail(0, nil, msg)
	if err := r.store.Update(ctx, run); err != nil {
		r.logger.Error("failed to record abandoned run",
			slog.String("run_id", run.ID.String()),
			slog.String("error", redact.Error(err)))
	}
}
