package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/farsight/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "farsight", cmd.Use)
	assert.Contains(t, cmd.Long, "equilibrium")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{{"solve"}, {"effectivity"}, {"validate"}, {"test"}, {"runs", "list"}, {"runs", "show"}}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	t.Setenv("FARSIGHT_FORMAT", "text")
	t.Setenv("FARSIGHT_DB", "results.db")
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "results.db", dbFlag.DefValue, "default comes from FARSIGHT_DB")
}

func TestFormatFromEnvironment(t *testing.T) {
	t.Setenv("FARSIGHT_FORMAT", "json")
	cmd := NewRootCommand()
	assert.Equal(t, "json", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, tempDB(t), "--format", "xml", "solve", pairExperiment)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestSolveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	solveCmd, _, err := cmd.Find([]string{"solve"})
	require.NoError(t, err)

	for _, name := range []string{"latex", "chart", "save", "lenient"} {
		assert.NotNil(t, solveCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestLoggerLevel(t *testing.T) {
	ctx := context.Background()

	opts := &RootOptions{Env: config.Env{LogLevel: "error"}}
	logger := opts.Logger(io.Discard)
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))

	opts.Verbose = true
	logger = opts.Logger(io.Discard)
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	opts = &RootOptions{Env: config.Env{LogLevel: "loud"}}
	logger = opts.Logger(io.Discard)
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn), "unknown levels fall back to warn")
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
}
