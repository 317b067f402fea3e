package cli

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/backend"
	"fintrack/internal/config"
)

func TestSetupLoggerInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(slog.LevelWarn)
	require.NotNil(t, logger)
	assert.Same(t, logger.Logger, slog.Default())
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestOpenBackend(t *testing.T) {
	logger := SetupLogger(slog.LevelError)

	res, err := OpenBackend(context.Background(), logger, &config.Config{
		DataBackend:  config.BackendSQLite,
		SQLiteDBPath: filepath.Join(t.TempDir(), "fintrack.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Store)
	assert.Nil(t, res.Events)
	require.NoError(t, res.Store.Ping(context.Background()))
	CloseBackend(logger, res)

	_, err = OpenBackend(context.Background(), logger, &config.Config{DataBackend: "sheets"})
	assert.Error(t, err)
}

func TestCloseBackendToleratesMissingCleanup(t *testing.T) {
	logger := SetupLogger(slog.LevelError)
	CloseBackend(logger, nil)
	CloseBackend(logger, &backend.BackendResult{})

	called := false
	CloseBackend(logger, &backend.BackendResult{Cleanup: func() error {
		called = true
		return errors.New("already closed")
	}})
	assert.True(t, called)
}
