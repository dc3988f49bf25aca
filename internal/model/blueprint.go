package model

// Blueprint is the file form of an assembly: everything needed to build an
// assembler without writing Go.
type Blueprint struct {
	Package       string         `yaml:"package"                 toml:"package"`
	Name          string         `yaml:"name"                    toml:"name"`
	Imports       []string       `yaml:"imports,omitempty"       toml:"imports"`
	Base          *BaseRef       `yaml:"base,omitempty"          toml:"base"`
	Types         []string       `yaml:"types,omitempty"         toml:"types"`
	Fields        []string       `yaml:"fields,omitempty"        toml:"fields"`
	Constructors  []string       `yaml:"constructors,omitempty"  toml:"constructors"`
	Properties    []string       `yaml:"properties,omitempty"    toml:"properties"`
	Notifications []string       `yaml:"notifications,omitempty" toml:"notifications"`
	Methods       []string       `yaml:"methods,omitempty"       toml:"methods"`
	Overrides     []OverrideSpec `yaml:"overrides,omitempty"     toml:"overrides"`
}

// BaseRef locates a base type declared in a Go source file. File is
// resolved relative to the blueprint.
type BaseRef struct {
	File string `yaml:"file" toml:"file"`
	Type string `yaml:"type" toml:"type"`
}

// OverrideSpec overrides one base method.
type OverrideSpec struct {
	Method   string `yaml:"method"             toml:"method"`
	Strategy string `yaml:"strategy,omitempty" toml:"strategy"`
	Body     string `yaml:"body"               toml:"body"`
}

// Fragments returns the blueprint fragments keyed by category.
func (b Blueprint) Fragments() map[Category][]string {
	return map[Category][]string{
		CategoryNestedType:   b.Types,
		CategoryField:        b.Fields,
		CategoryConstructor:  b.Constructors,
		CategoryProperty:     b.Properties,
		CategoryNotification: b.Notifications,
		CategoryMethod:       b.Methods,
	}
}
