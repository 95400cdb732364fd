package cli

import (
	"context"
	"log/slog"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug", "json", "worker")
	require.NotNil(t, logger)
	assert.Equal(t, "worker", logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger("loud", "text", "app")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug), "unknown level falls back to info")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestGracefulShutdown_RunsCleanupOnSignal(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	logger := SetupLogger("error", "text", "app")

	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(logger, time.Second, func(context.Context) { close(cleaned) })

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	WaitForShutdown(ctx, done)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup was not called")
	}
}
