package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/item-api/internal/config"
	"github.com/phrazzld/item-api/internal/platform/postgres"
	"github.com/phrazzld/item-api/internal/service"
	"github.com/phrazzld/item-api/internal/store"
	"github.com/phrazzld/item-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	runStore store.RunStore

	itemService   service.ItemService
	itemProcessor *service.ItemProcessor
	runRunner     *task.RunRunner
}

// newApplication wires stores, services and the background runner.
func newApplication(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*application, error) {
	itemStore := postgres.NewPostgresItemStore(db, logger)
	runStore := postgres.NewPostgresRunStore(db, logger)

	itemService, err := service.NewItemService(itemStore, store.NewSQLTransactor(db), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create item service: %w", err)
	}

	processor, err := service.NewItemProcessor(itemStore, service.ProcessorConfig{
		Workers: cfg.Processing.Workers,
		Timeout: cfg.Processing.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create item processor: %w", err)
	}

	runner := task.NewRunRunner(runStore, processor, task.RunnerConfig{
		WorkerCount: cfg.Processing.RunnerWorkers,
		QueueSize:   cfg.Processing.QueueSize,
	}, logger)

	return &application{
		config:        cfg,
		logger:        logger,
		db:            db,
		runStore:      runStore,
		itemService:   itemService,
		itemProcessor: processor,
		runRunner:     runner,
	}, nil
}

// cleanup releases background resources. The database is closed by the caller
// that opened it.
func (app *application) cleanup() {
	app.runRunner.Stop()
}
