package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weave.dev/pkg/weave/internal/adapter"
	"weave.dev/pkg/weave/internal/controller"
	"weave.dev/pkg/weave/internal/domain"
	m "weave.dev/pkg/weave/internal/model"
)

const counterBlueprint = `package: counter
name: Counter
fields:
  - n int
methods:
  - |
    // Inc increments the counter.
    func (c *Counter) Inc() int {
        c.n++
        return c.n
    }
`

const shapeSource = `package shapes

// Shape is a named shape.
type Shape struct {
	Name string
}

// Describe names the shape.
func (s *Shape) Describe() string {
	return s.Name
}
`

func TestMain(tm *testing.M) {
	logDir, err := os.MkdirTemp("", "weave-cmd")
	if err != nil {
		panic(err)
	}

	_ = os.Setenv("WEAVE_LOG_FILENAME", filepath.Join(logDir, "weave.log"))

	code := tm.Run()

	_ = os.RemoveAll(logDir)
	os.Exit(code)
}

// runCommand executes sub under a fresh root whose output is captured. The
// shared workflow is swapped for one printing to that output.
func runCommand(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	cmd.AddCommand(sub)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	previous := workflow
	workflow = domain.NewWorkflow(sourceStore, sourceMetadata, controller.NewSimpleUI(cmd), adapter.NewInterpreterBridge(), compileOptions)
	t.Cleanup(func() { workflow = previous })

	err := cmd.Execute()

	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRenderCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "counter.yaml", counterBlueprint)

	output, err := runCommand(t, newRenderCmd(), "render", path)
	require.NoError(t, err)
	assert.Contains(t, output, "// counter.Counter")
	assert.Contains(t, output, "type Counter struct {\n\tn int\n}")
	assert.Contains(t, output, "func (c *Counter) Inc() int {")

	t.Run("line numbers", func(t *testing.T) {
		output, err := runCommand(t, newRenderCmd(), "render", "-n", path)
		require.NoError(t, err)
		assert.Contains(t, output, " 1  package counter\n")
	})

	t.Run("diff", func(t *testing.T) {
		previous := writeFile(t, dir, "counter.go", "package counter\n\ntype Counter struct{}\n")

		output, err := runCommand(t, newRenderCmd(), "render", "--diff", previous, path)
		require.NoError(t, err)
		assert.Contains(t, output, "--- "+previous)
		assert.Contains(t, output, "+\tn int")
	})

	t.Run("requires one blueprint", func(t *testing.T) {
		_, err := runCommand(t, newRenderCmd(), "render")
		require.Error(t, err)
	})
}

func TestCompileCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterBlueprint)

	journalPath := filepath.Join(dir, "journal.msgpack")

	output, err := runCommand(t, newCompileCmd(), "compile", "--journal", journalPath, "-p", "2", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "counter.Counter")
	assert.Contains(t, output, "1 COMPILED")
	assert.FileExists(t, journalPath)

	t.Run("failure exits with an error", func(t *testing.T) {
		writeFile(t, dir, "broken.yaml", "package: broken\ncolour: red\n")

		output, err := runCommand(t, newCompileCmd(), "compile", "--journal", journalPath, dir)
		require.ErrorIs(t, err, m.ErrCompilationFailure)
		assert.Contains(t, output, "invalid")
		assert.Contains(t, output, "TOTAL BLUEPRINTS 2")
	})

	t.Run("history lists both runs", func(t *testing.T) {
		output, err := runCommand(t, newHistoryCmd(), "history", "--journal", journalPath)
		require.NoError(t, err)
		assert.Contains(t, output, "TOTAL RECORDS 3")
	})
}

func TestMembersCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shape.go", shapeSource)

	output, err := runCommand(t, newMembersCmd(), "members", path, "Shape")
	require.NoError(t, err)
	assert.Contains(t, output, "shapes.Shape (struct)")
	assert.Regexp(t, `Shape\.Describe\(\) string\s+\|\s+virtual\s+\|\s+yes`, output)

	_, err = runCommand(t, newMembersCmd(), "members", path, "Circle")
	require.ErrorIs(t, err, m.ErrInvalidBaseType)
}

func TestHistoryCmd_EmptyJournal(t *testing.T) {
	output, err := runCommand(t, newHistoryCmd(), "history", "--journal", filepath.Join(t.TempDir(), "none.msgpack"))
	require.NoError(t, err)
	assert.Contains(t, output, "journal is empty")
}

func TestViewCmd(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterBlueprint)

	output, err := runCommand(t, newViewCmd(), "view", path)
	require.NoError(t, err)
	assert.Contains(t, output, "// counter.Counter")
	assert.Contains(t, output, " 1  package counter\n")

	_, err = runCommand(t, newViewCmd(), "view")
	require.Error(t, err)
}

func TestCompileCmd_Examples(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.msgpack")

	output, err := runCommand(t, newCompileCmd(), "compile", "--journal", journalPath, "../examples/...")
	require.NoError(t, err)
	assert.Contains(t, output, "counter.Counter")
	assert.Contains(t, output, "shapes.Square")
	assert.Contains(t, output, "2 COMPILED")
}
