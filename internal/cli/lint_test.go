package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLintCommand(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewLintCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestLintCleanQuery(t *testing.T) {
	buf, err := runLintCommand(t, "text", customersQuery)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ No hazards found")
}

func TestLintCleanQueryJSON(t *testing.T) {
	buf, err := runLintCommand(t, "json", customersQuery)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   LintResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Clean)
	assert.Empty(t, resp.Data.Warnings)
}

func TestLintHazards(t *testing.T) {
	buf, err := runLintCommand(t, "text", filepath.Join("testdata", "queries", "outer_hazard.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 hazard(s) found")

	output := buf.String()
	assert.Contains(t, output, "✗ Lint failed")
	assert.Contains(t, output, ErrCodeLintHazards)
	assert.Contains(t, output, `property "code" on left outer join "species"`)
}

func TestLintHazardsJSON(t *testing.T) {
	buf, err := runLintCommand(t, "json", filepath.Join("testdata", "queries", "outer_hazard.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   LintResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Clean)
	assert.Len(t, resp.Data.Warnings, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLintHazards, resp.Error.Code)
}

func TestLintMalformedQuery(t *testing.T) {
	buf, err := runLintCommand(t, "text", filepath.Join("testdata", "queries", "malformed.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error ["+ErrCodeBadQuery+"]")
}
