package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/item-api/internal/api"
	apiMiddleware "github.com/phrazzld/item-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	itemHandler := api.NewItemHandler(app.itemService, app.logger)
	processingHandler := api.NewProcessingHandler(app.itemProcessor, app.runRunner, app.runStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.ListItems)
			r.Post("/", itemHandler.CreateItem)
			r.Get("/process", processingHandler.ProcessItems)
			r.Get("/{id}", itemHandler.GetItem)
			r.Put("/{id}", itemHandler.UpdateItem)
			r.Delete("/{id}", itemHandler.DeleteItem)
		})

		r.Post("/processing-runs", processingHandler.SubmitRun)
		r.Get("/processing-runs/{id}", processingHandler.GetRun)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
