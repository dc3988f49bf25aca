package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"weave.dev/pkg/weave/internal/adapter"
	"weave.dev/pkg/weave/internal/controller"
	m "weave.dev/pkg/weave/internal/model"
	"weave.dev/pkg/weave/pkg/journal"
)

const brokenBlueprint = `package = "broken"
name = "Broken"
methods = ["func (b *Broken) Get() int {\n\treturn (\n}"]
`

type recordingUI struct {
	sources     []string
	diffs       []string
	results     []m.CompileResult
	base        m.TypeDescriptor
	overridable []m.Operation
	history     []m.CompileRecord
}

var _ controller.UI = (*recordingUI)(nil)

func (u *recordingUI) DisplaySource(_ context.Context, title, source string, _ ...controller.DisplayOption) error {
	u.sources = append(u.sources, title+"\n"+source)
	return nil
}

func (u *recordingUI) DisplayDiff(_ context.Context, diff string) error {
	u.diffs = append(u.diffs, diff)
	return nil
}

func (u *recordingUI) DisplayCompileResults(_ context.Context, results []m.CompileResult) error {
	u.results = results
	return nil
}

func (u *recordingUI) DisplayMembers(_ context.Context, base m.TypeDescriptor, overridable []m.Operation) error {
	u.base = base
	u.overridable = overridable

	return nil
}

func (u *recordingUI) DisplayHistory(_ context.Context, records []m.CompileRecord) error {
	u.history = records
	return nil
}

func newTestWorkflow(ui controller.UI) Workflow {
	store := adapter.NewLocalSourceStore()
	return NewWorkflow(store, adapter.NewLocalSourceMetadata(store), ui, adapter.NewInterpreterBridge(), nil)
}

func TestWorkflow_Render(t *testing.T) {
	dir := t.TempDir()
	path := writeBlueprintFile(t, dir, "counter.toml", counterBlueprint)

	ui := &recordingUI{}
	if err := newTestWorkflow(ui).Render(context.Background(), RenderArgs{Blueprint: path}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(ui.sources) != 1 || !strings.HasPrefix(ui.sources[0], "counter.Counter\npackage counter\n") {
		t.Fatalf("DisplaySource() got %q", ui.sources)
	}

	t.Run("diff", func(t *testing.T) {
		previous := writeBlueprintFile(t, dir, "counter.go", "package counter\n\ntype Counter struct{}\n")

		ui := &recordingUI{}
		if err := newTestWorkflow(ui).Render(context.Background(), RenderArgs{Blueprint: path, Diff: previous}); err != nil {
			t.Fatalf("Render(diff) error = %v", err)
		}

		if len(ui.diffs) != 1 || !strings.Contains(ui.diffs[0], "+\tn int") {
			t.Fatalf("DisplayDiff() got %q", ui.diffs)
		}
	})

	t.Run("missing blueprint", func(t *testing.T) {
		err := newTestWorkflow(&recordingUI{}).Render(context.Background(), RenderArgs{Blueprint: m.Path(filepath.Join(dir, "nope.yaml"))})
		if err == nil {
			t.Fatal("Render() expected error for a missing blueprint")
		}
	})
}

func TestWorkflow_Compile(t *testing.T) {
	dir := t.TempDir()
	writeBlueprintFile(t, dir, "counter.toml", counterBlueprint)
	writeBlueprintFile(t, dir, "broken.toml", brokenBlueprint)
	writeBlueprintFile(t, dir, "invalid.yaml", "package: x\ncolour: red\n")
	writeBlueprintFile(t, dir, "notes.txt", "not a blueprint")

	journalPath := filepath.Join(dir, "state", "journal.msgpack")

	ui := &recordingUI{}
	results, err := newTestWorkflow(ui).Compile(context.Background(), CompileArgs{
		Paths:   []m.Path{m.Path(dir)},
		Journal: journalPath,
		Threads: 2,
	})
	if !errors.Is(err, m.ErrCompilationFailure) {
		t.Fatalf("Compile() error = %v, want ErrCompilationFailure", err)
	}

	if len(results) != 3 || len(ui.results) != 3 {
		t.Fatalf("Compile() returned %d results, displayed %d, want 3", len(results), len(ui.results))
	}

	status := make(map[string]m.CompileStatus, len(results))
	for _, r := range results {
		status[filepath.Base(string(r.Blueprint.Path))] = r.Status
	}

	want := map[string]m.CompileStatus{
		"broken.toml":  m.Failed,
		"counter.toml": m.Compiled,
		"invalid.yaml": m.Invalid,
	}

	for name, s := range want {
		if status[name] != s {
			t.Fatalf("status of %s = %s, want %s", name, status[name], s)
		}
	}

	jr, err := journal.Open[m.CompileRecord](journalPath)
	if err != nil {
		t.Fatalf("journal.Open() error = %v", err)
	}
	defer jr.Close()

	if jr.Len() != 3 {
		t.Fatalf("journal Len() = %d, want 3", jr.Len())
	}

	succeeded := 0

	err = jr.Range(func(_ uint64, r m.CompileRecord) error {
		if r.ID == "" || r.Timestamp.IsZero() {
			t.Fatalf("record missing identity: %+v", r)
		}

		if r.Succeeded {
			succeeded++

			if r.SourceHash == "" || r.TypeName != "Counter" {
				t.Fatalf("compiled record = %+v", r)
			}
		} else if r.Errors == 0 {
			t.Fatalf("failed record without errors: %+v", r)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}

	if succeeded != 1 {
		t.Fatalf("succeeded records = %d, want 1", succeeded)
	}
}

func TestWorkflow_CompileSelection(t *testing.T) {
	dir := t.TempDir()
	writeBlueprintFile(t, dir, "counter.toml", counterBlueprint)

	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0o750); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	writeBlueprintFile(t, nested, "counter.toml", counterBlueprint)

	cases := map[string]struct {
		paths []m.Path
		want  int
	}{
		"top level only": {[]m.Path{m.Path(dir)}, 1},
		"recursive":      {[]m.Path{m.Path(dir + "/...")}, 2},
		"single file":    {[]m.Path{m.Path(filepath.Join(nested, "counter.toml"))}, 1},
		"deduplicated":   {[]m.Path{m.Path(dir + "/..."), m.Path(filepath.Join(nested, "counter.toml"))}, 2},
	}

	for name, tc := range cases {
		results, err := newTestWorkflow(&recordingUI{}).Compile(context.Background(), CompileArgs{Paths: tc.paths})
		if err != nil {
			t.Fatalf("%s: Compile() error = %v", name, err)
		}

		if len(results) != tc.want {
			t.Fatalf("%s: Compile() returned %d results, want %d", name, len(results), tc.want)
		}
	}

	if _, err := newTestWorkflow(&recordingUI{}).Compile(context.Background(), CompileArgs{Paths: []m.Path{m.Path(filepath.Join(dir, "missing"))}}); err == nil {
		t.Fatal("Compile() expected error for a missing path")
	}
}

func TestWorkflow_Members(t *testing.T) {
	dir := t.TempDir()
	path := writeBlueprintFile(t, dir, "shape.go", shapeSource)

	ui := &recordingUI{}
	if err := newTestWorkflow(ui).Members(context.Background(), MembersArgs{File: path, Type: "Shape"}); err != nil {
		t.Fatalf("Members() error = %v", err)
	}

	if ui.base.Name != "Shape" || len(ui.base.Operations) != 2 {
		t.Fatalf("DisplayMembers() base = %+v", ui.base)
	}

	if len(ui.overridable) != 1 || ui.overridable[0].Name != "Describe" {
		t.Fatalf("DisplayMembers() overridable = %v", ui.overridable)
	}

	if err := newTestWorkflow(ui).Members(context.Background(), MembersArgs{File: path, Type: "Missing"}); err == nil {
		t.Fatal("Members() expected error for an unknown type")
	}
}

func TestWorkflow_History(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "journal.msgpack")

	ui := &recordingUI{}
	wf := newTestWorkflow(ui)

	if err := wf.History(context.Background(), HistoryArgs{Journal: journalPath}); err != nil {
		t.Fatalf("History() error = %v", err)
	}

	if len(ui.history) != 0 {
		t.Fatalf("History() of a missing journal = %v", ui.history)
	}

	writeBlueprintFile(t, dir, "counter.toml", counterBlueprint)

	for range 2 {
		if _, err := wf.Compile(context.Background(), CompileArgs{Paths: []m.Path{m.Path(dir)}, Journal: journalPath}); err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
	}

	if err := wf.History(context.Background(), HistoryArgs{Journal: journalPath}); err != nil {
		t.Fatalf("History() error = %v", err)
	}

	if len(ui.history) != 2 || ui.history[0].ID == ui.history[1].ID {
		t.Fatalf("History() = %+v", ui.history)
	}
}
