package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBuildFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Help(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(out, []string{"--help"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "hammer")
}

func TestRun_UnknownFlag(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(out, []string{"build", "--definitely-not-a-flag"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestRun_BuildEndToEnd(t *testing.T) {
	buildFile := writeBuildFile(t, `
target "out/note.txt" {
  run = "printf '%s' '${MSG}' > {target}"
}

task "all" {
  deps = ["out/note.txt"]
  run  = "true"
}
`)

	out := &bytes.Buffer{}
	err := run(out, []string{"build", "-f", buildFile, "-D", "MSG=from-cli", "--log-level", "warn"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(filepath.Dir(buildFile), "out/note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from-cli", string(data))
}

func TestRun_MissingBuildFile(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(out, []string{"build", "-f", filepath.Join(t.TempDir(), "absent.hcl")})
	require.Error(t, err)
}

func TestRun_FailingActionSurfacesNode(t *testing.T) {
	buildFile := writeBuildFile(t, `
task "all" {
  run = "exit 9"
}
`)

	out := &bytes.Buffer{}
	err := run(out, []string{"build", "-f", buildFile, "--log-level", "error"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"all"`)
}

func TestRun_List(t *testing.T) {
	buildFile := writeBuildFile(t, `
task "all" {
  run = "true"
}
`)

	out := &bytes.Buffer{}
	err := run(out, []string{"list", "-f", buildFile, "--log-level", "error"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "task\tall")
}
