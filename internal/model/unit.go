package model

import (
	"fmt"
	"reflect"
)

// GeneratedImportRoot prefixes the import path of every synthesized package.
const GeneratedImportRoot = "weave.dev/generated"

// SourceUnit is a complete synthesized source file and the identity of the
// type it declares.
type SourceUnit struct {
	Package    string
	ImportPath string
	TypeName   string
	Base       string
	Imports    []string
	Body       string
	Text       string

	// Companions are further files of the same package, keyed by file
	// name, loaded alongside the unit (typically the base type's source).
	Companions map[string]string
}

// FileName is the name used when the unit is written out.
func (u SourceUnit) FileName() string {
	return u.Package + ".go"
}

// Dependency is an importable package made available to the toolchain: its
// exported symbols and the dependencies it requires itself.
type Dependency struct {
	Path     string
	Name     string
	Symbols  map[string]reflect.Value
	Requires []Dependency
}

// Severity classifies a diagnostic.
type Severity int

// Available Severity values.
const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// Location points into a source unit.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	switch {
	case l.File == "" && l.Line == 0:
		return "-"
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}

	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is one toolchain finding.
type Diagnostic struct {
	Severity Severity
	Message  string
	Location Location
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// CompileOptions configures a toolchain invocation.
type CompileOptions struct {
	Optimize              bool
	TreatWarningsAsErrors bool
	WarningLevel          int
	GenerateInMemory      bool
	DumpDir               Path
}

// DefaultCompileOptions mirrors the defaults of the CLI configuration.
func DefaultCompileOptions() CompileOptions {
	return CompileOptions{
		Optimize:              true,
		TreatWarningsAsErrors: false,
		WarningLevel:          3,
		GenerateInMemory:      true,
	}
}

// MaxWarningLevel is the highest meaningful warning level.
const MaxWarningLevel = 4
