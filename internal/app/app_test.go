package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/hammer/internal/graph"
	"github.com/vk/hammer/internal/hclfront"
	"github.com/vk/hammer/internal/scheduler"
)

// helloBuildFile mirrors the classic "generate, compile, run" pipeline using
// portable shell commands. Every action appends a marker line to the trace
// file, so tests can see exactly which actions ran.
const helloBuildFile = `
variable "WHO" {
  default = "World"
}

variable "TRACE" {
  default = "/dev/null"
}

target "out/hello.h" {
  run = "printf 'hello %s\n' '${WHO}' > {target} && echo header >> ${TRACE}"
}

target "out/hello.c" {
  deps = ["out/hello.h"]
  run  = "cat {dep0} > {target} && echo source >> ${TRACE}"
}

target "out/hello" {
  deps = ["out/hello.c"]
  run  = "cat {dep0} > {target} && echo binary >> ${TRACE}"
}

task "run" {
  deps = ["out/hello"]
  run  = "cat {dep0} >> ${TRACE}.out && echo run >> ${TRACE}"
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestApp(t *testing.T, ctx context.Context, buildPath string, defines ...string) *App {
	t.Helper()
	cfg, err := NewConfig(Config{
		BuildPath: buildPath,
		Defines:   defines,
		LogLevel:  "debug",
		LogFormat: "text",
		Jobs:      1,
	})
	require.NoError(t, err)

	a, err := New(ctx, &bytes.Buffer{}, cfg, hclfront.NewLoader())
	require.NoError(t, err)
	return a
}

func traceLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Fields(string(data))
}

func TestEndToEndBuild(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	trace := filepath.Join(dir, "trace")
	writeFile(t, buildFile, helloBuildFile)

	define := "TRACE=" + trace

	// Clean build: all three targets build, then the task runs.
	a := newTestApp(t, ctx, buildFile, define)
	require.NoError(t, a.Run(ctx, "run"))
	assert.Equal(t, []string{"header", "source", "binary", "run"}, traceLines(t, trace))

	produced, err := os.ReadFile(filepath.Join(dir, "out/hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello World\n", string(produced))

	// Unchanged inputs: targets are fresh and skipped, the task re-runs.
	a = newTestApp(t, ctx, buildFile, define)
	require.NoError(t, a.Run(ctx, "run"))
	assert.Equal(t, []string{"header", "source", "binary", "run", "run"}, traceLines(t, trace))
}

func TestVariableOverride(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	trace := filepath.Join(dir, "trace")
	writeFile(t, buildFile, helloBuildFile)

	a := newTestApp(t, ctx, buildFile, "TRACE="+trace, "WHO=Gopher")
	require.NoError(t, a.Run(ctx, "run"))

	produced, err := os.ReadFile(filepath.Join(dir, "out/hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello Gopher\n", string(produced))
}

func TestVarsFilePrecedence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	varsFile := filepath.Join(dir, "vars.yaml")
	writeFile(t, buildFile, `
variable "GREETING" {
  default = "default"
}

target "out/msg" {
  run = "printf '%s' '${GREETING}' > {target}"
}
`)
	writeFile(t, varsFile, "GREETING: from-file\n")

	t.Run("vars file overrides default", func(t *testing.T) {
		cfg, err := NewConfig(Config{
			BuildPath: buildFile,
			VarsFile:  varsFile,
			LogLevel:  "warn",
			LogFormat: "text",
		})
		require.NoError(t, err)
		a, err := New(ctx, &bytes.Buffer{}, cfg, hclfront.NewLoader())
		require.NoError(t, err)
		assert.Equal(t, "from-file", a.Bindings()["GREETING"])
	})

	t.Run("define overrides vars file", func(t *testing.T) {
		cfg, err := NewConfig(Config{
			BuildPath: buildFile,
			VarsFile:  varsFile,
			Defines:   []string{"GREETING=from-flag"},
			LogLevel:  "warn",
			LogFormat: "text",
		})
		require.NoError(t, err)
		a, err := New(ctx, &bytes.Buffer{}, cfg, hclfront.NewLoader())
		require.NoError(t, err)
		assert.Equal(t, "from-flag", a.Bindings()["GREETING"])
	})
}

func TestCycleIsRejectedBeforeExecution(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	writeFile(t, buildFile, `
target "out/a" {
  deps = ["out/b"]
  run  = "touch {target}"
}

target "out/b" {
  deps = ["out/a"]
  run  = "touch {target}"
}
`)

	a := newTestApp(t, ctx, buildFile)
	err := a.Run(ctx, filepath.Join(dir, "out/a"))
	require.Error(t, err)

	var cycleErr *graph.CyclicDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.NoFileExists(t, filepath.Join(dir, "out/a"))
	assert.NoFileExists(t, filepath.Join(dir, "out/b"))
}

func TestActionFailureIsReported(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	writeFile(t, buildFile, `
task "boom" {
  run = "exit 7"
}
`)

	a := newTestApp(t, ctx, buildFile)
	err := a.Run(ctx, "boom")
	require.Error(t, err)

	var actionErr *scheduler.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "boom", actionErr.NodeID)
}

func TestDuplicateDeclarationFailsLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	writeFile(t, buildFile, `
task "all" {
  run = "true"
}

task "all" {
  run = "true"
}
`)

	cfg, err := NewConfig(Config{BuildPath: buildFile, LogLevel: "warn", LogFormat: "text"})
	require.NoError(t, err)

	_, err = New(ctx, &bytes.Buffer{}, cfg, hclfront.NewLoader())
	require.Error(t, err)
	var dupErr *graph.DuplicateNodeError
	require.ErrorAs(t, err, &dupErr)
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	trace := filepath.Join(dir, "trace")
	writeFile(t, buildFile, helloBuildFile)

	a := newTestApp(t, ctx, buildFile, "TRACE="+trace)
	require.NoError(t, a.Run(ctx, "run"))
	require.FileExists(t, filepath.Join(dir, "out/hello"))

	require.NoError(t, a.Clean(ctx))
	assert.NoFileExists(t, filepath.Join(dir, "out/hello"))
	assert.NoFileExists(t, filepath.Join(dir, "out/hello.c"))
	assert.NoFileExists(t, filepath.Join(dir, "out/hello.h"))

	// A fresh invocation rebuilds everything.
	a = newTestApp(t, ctx, buildFile, "TRACE="+trace)
	require.NoError(t, a.Run(ctx, "run"))
	assert.FileExists(t, filepath.Join(dir, "out/hello"))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	writeFile(t, buildFile, helloBuildFile)

	out := &bytes.Buffer{}
	cfg, err := NewConfig(Config{BuildPath: buildFile, LogLevel: "warn", LogFormat: "text"})
	require.NoError(t, err)
	a, err := New(ctx, out, cfg, hclfront.NewLoader())
	require.NoError(t, err)

	a.List()
	listing := out.String()
	assert.Contains(t, listing, "target")
	assert.Contains(t, listing, filepath.Join(dir, "out/hello"))
	assert.Contains(t, listing, "task\trun")
}

func TestPrintOrder(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "build.hcl")
	writeFile(t, buildFile, helloBuildFile)

	out := &bytes.Buffer{}
	cfg, err := NewConfig(Config{BuildPath: buildFile, LogLevel: "warn", LogFormat: "text"})
	require.NoError(t, err)
	a, err := New(ctx, out, cfg, hclfront.NewLoader())
	require.NoError(t, err)

	require.NoError(t, a.PrintOrder(ctx, "run"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, filepath.Join(dir, "out/hello.h"), lines[0])
	assert.Equal(t, "run", lines[3])
}
