package adapter

import (
	"errors"
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"regexp"
	"strconv"
	"strings"

	m "weave.dev/pkg/weave/internal/model"
)

var diagnosticLine = regexp.MustCompile(`^(?:.*?\s)?([^\s:]+\.go):(\d+):(\d+):\s*(.*)$`)

// syntaxDiagnostics converts a go/parser failure into error diagnostics.
func syntaxDiagnostics(err error, file string) []m.Diagnostic {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		diags := make([]m.Diagnostic, 0, len(list))
		for _, e := range list {
			diags = append(diags, m.Diagnostic{
				Severity: m.SeverityError,
				Message:  e.Msg,
				Location: m.Location{File: file, Line: e.Pos.Line, Column: e.Pos.Column},
			})
		}

		return diags
	}

	return []m.Diagnostic{{Severity: m.SeverityError, Message: err.Error(), Location: m.Location{File: file}}}
}

// parseDiagnostics turns toolchain output into diagnostics, one per
// "file.go:line:col: message" line. Lines that do not match are dropped.
func parseDiagnostics(output string, severity m.Severity) []m.Diagnostic {
	var diags []m.Diagnostic

	for _, line := range strings.Split(output, "\n") {
		match := diagnosticLine.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(match[2])
		column, _ := strconv.Atoi(match[3])

		diags = append(diags, m.Diagnostic{
			Severity: severity,
			Message:  match[4],
			Location: m.Location{File: baseName(match[1]), Line: lineNo, Column: column},
		})
	}

	return diags
}

func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}

	return path
}

// loadDiagnostics converts an interpreter load failure into diagnostics,
// falling back to a single location-less error.
func loadDiagnostics(err error, file string) []m.Diagnostic {
	diags := parseDiagnostics(err.Error(), m.SeverityError)
	if len(diags) > 0 {
		return diags
	}

	return []m.Diagnostic{{Severity: m.SeverityError, Message: err.Error(), Location: m.Location{File: file}}}
}

// warningRule is a source check enabled from a minimum warning level.
type warningRule struct {
	level int
	check func(fset *token.FileSet, file *ast.File, name string) []m.Diagnostic
}

var warningRules = []warningRule{
	{level: 2, check: emptyBodies},
	{level: 4, check: undocumentedExports},
}

func lint(fset *token.FileSet, file *ast.File, name string, level int) []m.Diagnostic {
	var diags []m.Diagnostic

	for _, rule := range warningRules {
		if level >= rule.level {
			diags = append(diags, rule.check(fset, file, name)...)
		}
	}

	return diags
}

func emptyBodies(fset *token.FileSet, file *ast.File, name string) []m.Diagnostic {
	var diags []m.Diagnostic

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil || len(fn.Body.List) > 0 {
			continue
		}

		diags = append(diags, warningAt(fset, fn.Pos(), name, fmt.Sprintf("empty body in func %s", fn.Name.Name)))
	}

	return diags
}

func undocumentedExports(fset *token.FileSet, file *ast.File, name string) []m.Diagnostic {
	var diags []m.Diagnostic

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Name.IsExported() && d.Doc == nil {
				diags = append(diags, warningAt(fset, d.Pos(), name, fmt.Sprintf("exported func %s should have comment", d.Name.Name)))
			}
		case *ast.GenDecl:
			if d.Tok != token.TYPE || d.Doc != nil {
				continue
			}

			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if ok && ts.Name.IsExported() && ts.Doc == nil {
					diags = append(diags, warningAt(fset, ts.Pos(), name, fmt.Sprintf("exported type %s should have comment", ts.Name.Name)))
				}
			}
		}
	}

	return diags
}

func warningAt(fset *token.FileSet, pos token.Pos, file, message string) m.Diagnostic {
	p := fset.Position(pos)

	return m.Diagnostic{
		Severity: m.SeverityWarning,
		Message:  message,
		Location: m.Location{File: file, Line: p.Line, Column: p.Column},
	}
}

func hasErrors(diags []m.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == m.SeverityError {
			return true
		}
	}

	return false
}

func promoteWarnings(diags []m.Diagnostic) []m.Diagnostic {
	promoted := make([]m.Diagnostic, len(diags))
	for i, d := range diags {
		d.Severity = m.SeverityError
		promoted[i] = d
	}

	return promoted
}
