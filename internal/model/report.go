package model

// CompileStatus is the outcome of compiling one blueprint.
type CompileStatus int

const (
	// Compiled indicates the unit built and its type resolved.
	Compiled CompileStatus = iota
	// Failed indicates the toolchain rejected the unit.
	Failed
	// Invalid indicates the blueprint could not be turned into a unit.
	Invalid
)

func (s CompileStatus) String() string {
	switch s {
	case Compiled:
		return "compiled"
	case Failed:
		return "failed"
	case Invalid:
		return "invalid"
	}

	return "unknown"
}

// CompileResult is what the CLI reports for one blueprint.
type CompileResult struct {
	Blueprint   File
	Package     string
	TypeName    string
	SourceHash  string
	Status      CompileStatus
	Diagnostics []Diagnostic
	Err         error
}

// Counts returns the number of error and warning diagnostics.
func (r CompileResult) Counts() (int, int) {
	var errs, warnings int

	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			errs++
		} else {
			warnings++
		}
	}

	return errs, warnings
}
