package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var strategiesDir = filepath.Join("..", "..", "examples", "strategies")

func TestValidateDirectory(t *testing.T) {
	out, err := execute(t, tempDB(t), "validate", strategiesDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All strategy tables valid (6 file(s))")
}

func TestValidateAgainstExperiment(t *testing.T) {
	out, err := execute(t, tempDB(t), "validate", "--experiment", pairExperiment, filepath.Join(strategiesDir, "pair.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "(1 file(s))")
}

func TestValidateWrongGame(t *testing.T) {
	out, err := execute(t, tempDB(t), "validate", "--experiment", pairExperiment, filepath.Join(strategiesDir, "status_quo.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E211: unknown player")
	assert.Contains(t, out, "E212: unknown state")
}

func TestValidateBrokenFileJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.cue"), []byte(failingStrategy), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(`strategy: "( )": proposals: A: "( )": 1.5`+"\n"), 0o644))

	out, err := execute(t, tempDB(t), "--format", "json", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, result.Valid)
	assert.Equal(t, 2, result.Files)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "E006", result.Errors[0].Code)
}

func TestValidateNonExistentPath(t *testing.T) {
	out, err := execute(t, tempDB(t), "validate", "/nonexistent/strategies")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, tempDB(t), "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E003")
}
