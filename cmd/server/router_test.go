package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/item-api/internal/config"
	"github.com/phrazzld/item-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) (*application, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger(t)
	cfg := &config.Config{
		Processing: config.ProcessingConfig{Workers: 4, QueueSize: 2, RunnerWorkers: 1},
	}

	app, err := newApplication(cfg, db, log)
	require.NoError(t, err)
	return app, mock
}

func TestRouter_Health(t *testing.T) {
	app, _ := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_ProcessRouteTakesPrecedenceOverItemID(t *testing.T) {
	app, mock := newTestApplication(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM items ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/process", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_InvalidItemID(t *testing.T) {
	app, _ := newTestApplication(t)

	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunMigrations_RejectsUnknownCommand(t *testing.T) {
	log, _ := logger.NewTestLogger(t)

	err := runMigrations(context.Background(), nil, "redo-everything", log)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported migration command")
}
