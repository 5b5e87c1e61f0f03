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

func TestPlanCommand_Text(t *testing.T) {
	opts := newTestOptions(t, "text", "")
	cmd := NewPlanCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{glassDir})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "✓ Planned Si_quench (6 steps, 6 stages)")
	assert.Contains(t, out, "hash: ")
	assert.Contains(t, out, "[md]       snap_0_cool_1000")
	assert.Contains(t, out, "[static]   snap_0_static")
}

func TestPlanCommand_JSON(t *testing.T) {
	opts := newTestOptions(t, "json", "")
	cmd := NewPlanCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{glassDir})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "Si_quench", data["name"])
	assert.Equal(t, float64(6), data["step_count"])
	assert.Equal(t, []any{"snap_0_cool_1000"}, data["roots"])
	assert.Equal(t, []any{"snap_0_static"}, data["leaves"])
	assert.Len(t, data["hash"], 64)

	wf := data["workflow"].(map[string]any)
	assert.Equal(t, "Si_quench", wf["name"])
	assert.Equal(t, data["hash"], wf["hash"])
	assert.Len(t, wf["steps"], 6)
}

func TestPlanCommand_OutputFileUsesConfig(t *testing.T) {
	opts := newTestOptions(t, "text", "vasp_input_set: MITMDSet\ncommand_ref: gpu_vasp_cmd\n")
	out := filepath.Join(t.TempDir(), "glass.json")

	cmd := NewPlanCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{glassDir, "-o", out})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"vasp_input_set":"MITMDSet"`)
	assert.Contains(t, string(data), `"vasp_cmd":">>gpu_vasp_cmd<<"`)
	assert.NotContains(t, string(data), `">>vasp_cmd<<"`)

	var wf map[string]any
	require.NoError(t, json.Unmarshal(data, &wf))
	assert.Equal(t, "Si_quench", wf["name"])
}

func TestPlanCommand_Deterministic(t *testing.T) {
	run := func() string {
		opts := newTestOptions(t, "json", "")
		cmd := NewPlanCommand(opts)
		buf := &bytes.Buffer{}
		cmd.SetOut(buf)
		cmd.SetArgs([]string{glassDir})
		require.NoError(t, cmd.Execute())
		return buf.String()
	}

	assert.Equal(t, run(), run())
}

func TestPlanCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     string
		exitCode int
	}{
		{"missing directory", []string{"testdata/protocols/nope"}, ErrCodeNotFound, ExitCommandError},
		{"validation failure", []string{brokenDir}, "E101", ExitFailure},
		{"missing structures", []string{glassDir, "--structures", "nope.yaml"}, ErrCodeStructuresFailed, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newTestOptions(t, "json", "")
			cmd := NewPlanCommand(opts)
			buf := &bytes.Buffer{}
			cmd.SetOut(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestPlanCommand_WriteFailure(t *testing.T) {
	opts := newTestOptions(t, "text", "")
	cmd := NewPlanCommand(opts)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{glassDir, "-o", filepath.Join(t.TempDir(), "missing", "dir", "out.json")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E007]")
}
