package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("testdata", "scenarios")

func TestTestCommand_PassingScenarioWithGolden(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenariosDir, "--filter", "glass"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ glass")
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, buf.String(), "✓ All scenarios passed")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenariosDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "✓ glass")
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Expected: 7 steps")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_JSON(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenariosDir})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "glass", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommand_NoScenarios(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenariosDir, "--filter", "zzz*"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No scenarios found.")
}

func TestTestCommand_MissingDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/nope"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// copyScenario copies the glass scenario into a temp dir whose protocol
// reference still resolves.
func copyScenario(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(glassDir)
	require.NoError(t, err)

	dir := t.TempDir()
	content := `name: glass
description: copied scenario
protocol_dir: ` + abs + `
assertions:
  - type: step_count
    count: 6
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "glass.yaml"), []byte(content), 0644))
	return dir
}

func TestTestCommand_UpdateWritesGolden(t *testing.T) {
	dir := copyScenario(t)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--update"})
	require.NoError(t, cmd.Execute())

	written, err := os.ReadFile(filepath.Join(dir, "golden", "glass.golden"))
	require.NoError(t, err)
	expected, err := os.ReadFile(filepath.Join(scenariosDir, "golden", "glass.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(bytes.TrimSpace(expected)), string(written))
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := copyScenario(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "glass.golden"), []byte(`{"scenario_name":"glass","steps":[]}`), 0644))

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "✗ glass")
	assert.Contains(t, buf.String(), "does not match golden file")
}

func TestFindScenarioFiles_InvalidFilter(t *testing.T) {
	_, err := findScenarioFiles(scenariosDir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
