package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "waypoint version ")
}

func TestGraphAndValidateCommands(t *testing.T) {
	out, err := execute(t, "", "graph", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "entry: prompt")

	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))

	out, err = execute(t, "", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Graph is valid! 9 nodes")

	out, err = execute(t, "", "graph", path, "--format", "mermaid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("version: \"1\"\nnodes: []\n"), 0o600))
	_, err = execute(t, "", "validate", broken)
	assert.ErrorContains(t, err, "validation failed")
}

func TestTraceCommand(t *testing.T) {
	out, err := execute(t, "upload model.ifc\n", "trace")
	require.NoError(t, err)
	assert.Contains(t, out, "decide_mode -> upload_ifc_file")
}
