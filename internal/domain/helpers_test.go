package domain

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"weave.dev/pkg/weave/internal/adapter"
	m "weave.dev/pkg/weave/internal/model"
)

// recordingBridge records every unit and resolves lookups from values.
type recordingBridge struct {
	mu     sync.Mutex
	units  []m.SourceUnit
	deps   [][]m.Dependency
	opts   []m.CompileOptions
	values map[string]reflect.Value
	err    error
}

func newRecordingBridge(values map[string]reflect.Value) *recordingBridge {
	return &recordingBridge{values: values}
}

func (b *recordingBridge) Compile(_ context.Context, unit m.SourceUnit, deps []m.Dependency, opts m.CompileOptions) (adapter.Artifact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.units = append(b.units, unit)
	b.deps = append(b.deps, deps)
	b.opts = append(b.opts, opts)

	if b.err != nil {
		return nil, b.err
	}

	return &fakeArtifact{id: fmt.Sprintf("fake-%d", len(b.units)), unit: unit, deps: deps, values: b.values}, nil
}

func (b *recordingBridge) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.units)
}

type fakeArtifact struct {
	id     string
	unit   m.SourceUnit
	deps   []m.Dependency
	values map[string]reflect.Value
}

func (a *fakeArtifact) ID() string                   { return a.id }
func (a *fakeArtifact) Unit() m.SourceUnit           { return a.unit }
func (a *fakeArtifact) Dependencies() []m.Dependency { return a.deps }
func (a *fakeArtifact) Diagnostics() []m.Diagnostic  { return nil }

func (a *fakeArtifact) Names() []string {
	names := make([]string, 0, len(a.values))
	for name := range a.values {
		names = append(names, name)
	}

	return names
}

func (a *fakeArtifact) Lookup(name string) (reflect.Value, error) {
	v, ok := a.values[name]
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s", m.ErrNoSuchGeneratedType, name)
	}

	return v, nil
}

func (a *fakeArtifact) Export() (m.Dependency, error) {
	return m.Dependency{Path: a.unit.ImportPath, Name: a.unit.Package, Symbols: a.values, Requires: a.deps}, nil
}

// countingBridge counts the compilations forwarded to a real bridge.
type countingBridge struct {
	next  adapter.Bridge
	mu    sync.Mutex
	count int
}

func (b *countingBridge) Compile(ctx context.Context, unit m.SourceUnit, deps []m.Dependency, opts m.CompileOptions) (adapter.Artifact, error) {
	b.mu.Lock()
	b.count++
	b.mu.Unlock()

	return b.next.Compile(ctx, unit, deps, opts)
}

func (b *countingBridge) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}
