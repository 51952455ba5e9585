package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/phrazzld/item-api/internal/domain"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/phrazzld/item-api/internal/store"
	"github.com/phrazzld/item-api/internal/task"
	"github.com/sourcegraph/conc/pool"
)

// DefaultProcessorWorkers bounds the number of items processed at once when no
// explicit limit is configured.
const DefaultProcessorWorkers = 8

// ProcessorConfig configures an ItemProcessor.
type ProcessorConfig struct {
	// Workers is the maximum number of items processed concurrently
	Workers int

	// Timeout bounds a whole ProcessAll call; zero means no limit
	Timeout time.Duration
}

// ItemProcessor marks every stored item as processed.
type ItemProcessor struct {
	items   store.ItemStore
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

// NewItemProcessor creates a new ItemProcessor.
// It returns an error if the item store is nil.
func NewItemProcessor(items store.ItemStore, config ProcessorConfig, logger *slog.Logger) (*ItemProcessor, error) {
	if items == nil {
		return nil, domain.NewValidationError("items", "cannot be nil", domain.ErrValidation)
	}

	if config.Workers <= 0 {
		config.Workers = DefaultProcessorWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ItemProcessor{
		items:   items,
		workers: config.Workers,
		timeout: config.Timeout,
		logger:  logger.With(slog.String("component", "item_processor")),
	}, nil
}

// ProcessAll takes a snapshot of the stored item IDs and processes each
// distinct ID once: the item is loaded, marked processed and saved. Items that
// no longer exist are skipped. ProcessAll returns only after every item has
// been attempted.
//
// On success it returns the saved items in no particular order. If any item
// fails, it returns a *ProcessingError describing every failure; items saved
// by other goroutines are not rolled back.
//
// When ctx ends (or the configured timeout elapses) items that have not yet
// started are recorded as failed with the context's error, and items in flight
// observe the cancelled context in their store calls.
func (p *ItemProcessor) ProcessAll(ctx context.Context) ([]*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ids, err := p.items.FindAllIDs(ctx)
	if err != nil {
		log.Error("failed to list item IDs", slog.String("error", err.Error()))
		return nil, NewItemServiceError("process_all", "failed to list item IDs", err)
	}
	ids = distinctIDs(ids)

	start := time.Now()
	log.Info("processing items",
		slog.Int("item_count", len(ids)),
		slog.Int("workers", p.workers))

	var (
		processed task.Accumulator[*domain.Item]
		failures  task.Accumulator[*ItemProcessingError]
		skipped   atomic.Int64
	)

	workers := pool.New().WithMaxGoroutines(p.workers)
	for _, id := range ids {
		workers.Go(func() {
			if err := ctx.Err(); err != nil {
				failures.Add(&ItemProcessingError{ItemID: id, Op: OpFind, Err: err})
				return
			}

			item, failure := p.processItem(ctx, id)
			switch {
			case failure != nil:
				failures.Add(failure)
			case item == nil:
				skipped.Add(1)
			default:
				processed.Add(item)
			}
		})
	}
	workers.Wait()

	attrs := []any{
		slog.Int("processed", processed.Len()),
		slog.Int64("skipped", skipped.Load()),
		slog.Int("failed", failures.Len()),
		slog.Duration("duration", time.Since(start)),
	}

	if failures.Len() > 0 {
		perr := newProcessingError(failures.Snapshot(), processed.Len())
		log.Error("item processing finished with failures",
			append(attrs, slog.Any("failed_ids", perr.FailedIDs()))...)
		return nil, perr
	}

	log.Info("item processing finished", attrs...)
	return processed.Snapshot(), nil
}

// ProcessAllAsync starts ProcessAll in the background and returns immediately.
func (p *ItemProcessor) ProcessAllAsync(ctx context.Context) *task.Future[[]*domain.Item] {
	return task.Go(ctx, p.ProcessAll)
}

// processItem handles one ID. A nil item with a nil failure means the item
// was not found, or was deleted before it could be saved, and has been skipped.
func (p *ItemProcessor) processItem(ctx context.Context, id int64) (*domain.Item, *ItemProcessingError) {
	item, err := p.items.FindByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, p.logger).Debug("item vanished before processing, skipping",
				slog.Int64("item_id", id))
			return nil, nil
		}
		return nil, &ItemProcessingError{ItemID: id, Op: OpFind, Err: err}
	}
	if item == nil {
		return nil, nil
	}

	item.MarkProcessed()

	saved, err := p.items.Save(ctx, item)
	if err != nil {
		// Deleted between lookup and save: same as never found.
		if store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, p.logger).Debug("item deleted during processing, skipping",
				slog.Int64("item_id", id))
			return nil, nil
		}
		return nil, &ItemProcessingError{ItemID: id, Op: OpSave, Err: err}
	}

	return saved, nil
}

// distinctIDs drops repeated IDs, keeping first-seen order.
func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
