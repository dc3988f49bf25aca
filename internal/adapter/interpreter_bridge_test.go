package adapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	m "weave.dev/pkg/weave/internal/model"
)

const greeterSource = `package greeter

import "strings"

// Greeter greets.
type Greeter struct {
	Name string
}

// Prefix is prepended to every greeting.
var Prefix = "hello"

// Version of the greeter.
const Version = 2

// Greet greets name.
func Greet(name string) string {
	return Prefix + " " + strings.ToUpper(name)
}

func (g *Greeter) Hello() string {
	return Greet(g.Name)
}
`

func greeterUnit() m.SourceUnit {
	return m.SourceUnit{
		Package:    "greeter",
		ImportPath: m.GeneratedImportRoot + "/greeter",
		TypeName:   "Greeter",
		Text:       greeterSource,
	}
}

type fakeVet struct {
	diags []m.Diagnostic
	err   error
	calls int
}

func (f *fakeVet) Vet(context.Context, m.SourceUnit) ([]m.Diagnostic, error) {
	f.calls++
	return f.diags, f.err
}

func TestInterpreterBridge_Compile(t *testing.T) {
	t.Run("loads unit and resolves functions", func(t *testing.T) {
		bridge := NewInterpreterBridge()

		art, err := bridge.Compile(context.Background(), greeterUnit(), nil, m.DefaultCompileOptions())
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		if art.ID() == "" {
			t.Fatalf("Compile() artifact has empty ID")
		}

		wantNames := []string{"Greet", "Greeter", "Prefix", "Version"}
		if !reflect.DeepEqual(art.Names(), wantNames) {
			t.Fatalf("Names() = %v, want %v", art.Names(), wantNames)
		}

		v, err := art.Lookup("Greet")
		if err != nil {
			t.Fatalf("Lookup(Greet) error = %v", err)
		}

		greet, ok := v.Interface().(func(string) string)
		if !ok {
			t.Fatalf("Lookup(Greet) type = %v", v.Type())
		}

		if got := greet("ada"); got != "hello ADA" {
			t.Fatalf("Greet() = %q", got)
		}
	})

	t.Run("resolves types variables and constants", func(t *testing.T) {
		art, err := NewInterpreterBridge().Compile(context.Background(), greeterUnit(), nil, m.DefaultCompileOptions())
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		typ, err := art.Lookup("Greeter")
		if err != nil {
			t.Fatalf("Lookup(Greeter) error = %v", err)
		}

		if typ.Kind() != reflect.Struct || !typ.IsZero() {
			t.Fatalf("Lookup(Greeter) = %v, want zero struct", typ)
		}

		prefix, err := art.Lookup("Prefix")
		if err != nil {
			t.Fatalf("Lookup(Prefix) error = %v", err)
		}

		if prefix.String() != "hello" {
			t.Fatalf("Lookup(Prefix) = %q", prefix.String())
		}

		version, err := art.Lookup("Version")
		if err != nil {
			t.Fatalf("Lookup(Version) error = %v", err)
		}

		if version.Int() != 2 {
			t.Fatalf("Lookup(Version) = %v", version)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		art, err := NewInterpreterBridge().Compile(context.Background(), greeterUnit(), nil, m.DefaultCompileOptions())
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		for _, name := range []string{"Missing", "Greet.Hello", "hello"} {
			if _, err := art.Lookup(name); !errors.Is(err, m.ErrNoSuchGeneratedType) {
				t.Fatalf("Lookup(%s) error = %v, want ErrNoSuchGeneratedType", name, err)
			}
		}
	})

	t.Run("syntax errors carry locations", func(t *testing.T) {
		unit := m.SourceUnit{Package: "broken", Text: "package broken\n\nfunc Broken( {\n}\n"}

		_, err := NewInterpreterBridge().Compile(context.Background(), unit, nil, m.DefaultCompileOptions())

		var compErr *m.CompilationError
		if !errors.As(err, &compErr) {
			t.Fatalf("Compile() error = %v, want *CompilationError", err)
		}

		if !errors.Is(err, m.ErrCompilationFailure) {
			t.Fatalf("Compile() error does not wrap ErrCompilationFailure")
		}

		if len(compErr.Errors()) == 0 || compErr.Errors()[0].Location.Line != 3 {
			t.Fatalf("Compile() diagnostics = %v, want an error on line 3", compErr.Diagnostics)
		}

		if compErr.Unit != m.GeneratedImportRoot+"/broken" {
			t.Fatalf("CompilationError.Unit = %s", compErr.Unit)
		}
	})

	t.Run("type errors fail the load", func(t *testing.T) {
		unit := m.SourceUnit{Package: "undefined", Text: "package undefined\n\nfunc F() int { return missing }\n"}

		_, err := NewInterpreterBridge().Compile(context.Background(), unit, nil, m.DefaultCompileOptions())
		if !errors.Is(err, m.ErrCompilationFailure) {
			t.Fatalf("Compile() error = %v, want ErrCompilationFailure", err)
		}
	})

	t.Run("cancelled context is not submitted", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewInterpreterBridge().Compile(ctx, greeterUnit(), nil, m.DefaultCompileOptions())
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Compile() error = %v, want context.Canceled", err)
		}
	})
}

func TestInterpreterBridge_Warnings(t *testing.T) {
	emptyUnit := m.SourceUnit{Package: "empty", Text: "package empty\n\nfunc Noop() {}\n"}

	t.Run("level gates warnings", func(t *testing.T) {
		opts := m.DefaultCompileOptions()
		opts.WarningLevel = 0

		art, err := NewInterpreterBridge().Compile(context.Background(), emptyUnit, nil, opts)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		if len(art.Diagnostics()) != 0 {
			t.Fatalf("Diagnostics() = %v, want none at level 0", art.Diagnostics())
		}

		opts.WarningLevel = 4

		art, err = NewInterpreterBridge().Compile(context.Background(), emptyUnit, nil, opts)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		if len(art.Diagnostics()) != 2 {
			t.Fatalf("Diagnostics() = %v, want empty-body and undocumented warnings", art.Diagnostics())
		}
	})

	t.Run("warnings as errors", func(t *testing.T) {
		opts := m.DefaultCompileOptions()
		opts.TreatWarningsAsErrors = true

		_, err := NewInterpreterBridge().Compile(context.Background(), emptyUnit, nil, opts)

		var compErr *m.CompilationError
		if !errors.As(err, &compErr) {
			t.Fatalf("Compile() error = %v, want *CompilationError", err)
		}

		if len(compErr.Errors()) != 1 || !strings.Contains(compErr.Errors()[0].Message, "empty body") {
			t.Fatalf("Compile() diagnostics = %v", compErr.Diagnostics)
		}
	})

	t.Run("vet findings are warnings", func(t *testing.T) {
		vet := &fakeVet{diags: []m.Diagnostic{{Severity: m.SeverityWarning, Message: "unreachable code"}}}

		opts := m.DefaultCompileOptions()
		opts.WarningLevel = 1

		art, err := NewInterpreterBridge(WithVetRunner(vet)).Compile(context.Background(), greeterUnit(), nil, opts)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		if vet.calls != 1 || len(art.Diagnostics()) != 1 {
			t.Fatalf("vet calls = %d, diagnostics = %v", vet.calls, art.Diagnostics())
		}
	})

	t.Run("vet failure is not fatal", func(t *testing.T) {
		vet := &fakeVet{err: errors.New("go not found")}

		if _, err := NewInterpreterBridge(WithVetRunner(vet)).Compile(context.Background(), greeterUnit(), nil, m.DefaultCompileOptions()); err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
	})
}

func TestInterpreterBridge_Dependencies(t *testing.T) {
	upper := m.Dependency{
		Path: "example.com/shout",
		Name: "shout",
		Symbols: map[string]reflect.Value{
			"Shout": reflect.ValueOf(func(s string) string { return s + "!" }),
		},
	}

	unit := m.SourceUnit{
		Package: "caller",
		Text:    "package caller\n\nimport \"example.com/shout\"\n\nfunc Call(s string) string { return shout.Shout(s) }\n",
	}

	bridge := NewInterpreterBridge()

	art, err := bridge.Compile(context.Background(), unit, []m.Dependency{upper}, m.DefaultCompileOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	v, err := art.Lookup("Call")
	if err != nil {
		t.Fatalf("Lookup(Call) error = %v", err)
	}

	if got := v.Interface().(func(string) string)("hey"); got != "hey!" {
		t.Fatalf("Call() = %q", got)
	}

	exported, err := art.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if exported.Path != m.GeneratedImportRoot+"/caller" || exported.Name != "caller" {
		t.Fatalf("Export() = %s/%s", exported.Path, exported.Name)
	}

	if len(exported.Requires) != 1 || exported.Requires[0].Path != upper.Path {
		t.Fatalf("Export().Requires = %v", exported.Requires)
	}

	chained := m.SourceUnit{
		Package: "chained",
		Text:    "package chained\n\nimport \"weave.dev/generated/caller\"\n\nfunc Twice(s string) string { return caller.Call(caller.Call(s)) }\n",
	}

	art, err = bridge.Compile(context.Background(), chained, []m.Dependency{exported}, m.DefaultCompileOptions())
	if err != nil {
		t.Fatalf("Compile(chained) error = %v", err)
	}

	v, err = art.Lookup("Twice")
	if err != nil {
		t.Fatalf("Lookup(Twice) error = %v", err)
	}

	if got := v.Interface().(func(string) string)("hey"); got != "hey!!" {
		t.Fatalf("Twice() = %q", got)
	}
}

func TestInterpreterBridge_ExportVariables(t *testing.T) {
	settings := m.SourceUnit{
		Package: "settings",
		Text:    "package settings\n\n// Greeting opens every message.\nvar Greeting = \"hi\"\n",
	}

	bridge := NewInterpreterBridge()

	art, err := bridge.Compile(context.Background(), settings, nil, m.DefaultCompileOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	greeting, err := art.Lookup("Greeting")
	if err != nil {
		t.Fatalf("Lookup(Greeting) error = %v", err)
	}

	if greeting.String() != "hi" {
		t.Fatalf("Lookup(Greeting) = %q", greeting.String())
	}

	exported, err := art.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if sym := exported.Symbols["Greeting"]; sym.Kind() != reflect.Pointer || sym.Elem().String() != "hi" {
		t.Fatalf("Export().Symbols[Greeting] = %v, want a pointer to the value", sym)
	}

	reader := m.SourceUnit{
		Package: "reader",
		Text:    "package reader\n\nimport \"weave.dev/generated/settings\"\n\nfunc Hello() string { return settings.Greeting + \"!\" }\n",
	}

	art, err = bridge.Compile(context.Background(), reader, []m.Dependency{exported}, m.DefaultCompileOptions())
	if err != nil {
		t.Fatalf("Compile(reader) error = %v", err)
	}

	hello, err := art.Lookup("Hello")
	if err != nil {
		t.Fatalf("Lookup(Hello) error = %v", err)
	}

	if got := hello.Interface().(func() string)(); got != "hi!" {
		t.Fatalf("Hello() = %q", got)
	}
}

func TestInterpreterBridge_Dump(t *testing.T) {
	dir := t.TempDir()

	opts := m.DefaultCompileOptions()
	opts.DumpDir = m.Path(dir)

	if _, err := NewInterpreterBridge().Compile(context.Background(), greeterUnit(), nil, opts); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "greeter", "greeter.go"))
	if err != nil {
		t.Fatalf("dumped unit missing: %v", err)
	}

	if string(content) != greeterSource {
		t.Fatalf("dumped unit differs from source")
	}
}

func TestParseDiagnostics(t *testing.T) {
	output := "# weave.dev/generated/x\n./x.go:4:2: unreachable code\nvet: exit status 1\n"

	diags := parseDiagnostics(output, m.SeverityWarning)
	if len(diags) != 1 {
		t.Fatalf("parseDiagnostics() = %v, want 1 diagnostic", diags)
	}

	want := m.Diagnostic{
		Severity: m.SeverityWarning,
		Message:  "unreachable code",
		Location: m.Location{File: "x.go", Line: 4, Column: 2},
	}

	if diags[0] != want {
		t.Fatalf("parseDiagnostics()[0] = %+v, want %+v", diags[0], want)
	}
}
