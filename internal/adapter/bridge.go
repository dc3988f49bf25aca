package adapter

import (
	"context"
	"reflect"

	m "weave.dev/pkg/weave/internal/model"
)

// Bridge hands a synthesized source unit to a toolchain and returns the
// loaded artifact. A failed build returns a *model.CompilationError carrying
// every diagnostic; there is no partial success.
//
// Compile blocks until the toolchain is done. The context is consulted
// before submission only: a submitted build is never cancelled.
type Bridge interface {
	Compile(ctx context.Context, unit m.SourceUnit, deps []m.Dependency, opts m.CompileOptions) (Artifact, error)
}

// Artifact is a loaded, compiled source unit. It lives as long as the
// process that loaded it.
type Artifact interface {
	// ID uniquely identifies this load.
	ID() string

	// Unit is the source unit the artifact was built from.
	Unit() m.SourceUnit

	// Names lists the top-level declarations of the unit.
	Names() []string

	// Lookup resolves a declared name: functions and variables to their
	// value, types to their zero value. Unknown names fail with
	// model.ErrNoSuchGeneratedType.
	Lookup(name string) (reflect.Value, error)

	// Dependencies are the dependencies the artifact was built against.
	Dependencies() []m.Dependency

	// Diagnostics are the warnings reported by a successful build.
	Diagnostics() []m.Diagnostic

	// Export turns the artifact into a dependency other units can import.
	Export() (m.Dependency, error)
}
