package domain

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"weave.dev/pkg/weave/internal/adapter"
	m "weave.dev/pkg/weave/internal/model"
)

// IsBlueprintFile reports whether path has a blueprint extension.
func IsBlueprintFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml":
		return true
	}

	return false
}

// LoadBlueprint reads a YAML or TOML blueprint, chosen by extension.
func LoadBlueprint(store adapter.SourceStore, path m.Path) (m.Blueprint, error) {
	data, err := store.ReadFile(path)
	if err != nil {
		slog.Error("failed to read blueprint", "path", path, "error", err)
		return m.Blueprint{}, fmt.Errorf("failed to read blueprint %s: %w", path, err)
	}

	return DecodeBlueprint(string(path), data)
}

// DecodeBlueprint decodes data according to the extension of name.
func DecodeBlueprint(name string, data []byte) (m.Blueprint, error) {
	var bp m.Blueprint

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(&bp); err != nil {
			return m.Blueprint{}, fmt.Errorf("%w: %s: %w", m.ErrInvalidConfiguration, name, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &bp)
		if err != nil {
			return m.Blueprint{}, fmt.Errorf("%w: %s: %w", m.ErrInvalidConfiguration, name, err)
		}

		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return m.Blueprint{}, fmt.Errorf("%w: %s: unknown key %s", m.ErrInvalidConfiguration, name, undecoded[0])
		}
	default:
		return m.Blueprint{}, fmt.Errorf("%w: %s is neither YAML nor TOML", m.ErrInvalidConfiguration, name)
	}

	return bp, nil
}

// BlueprintBuilder turns blueprints into assemblers.
type BlueprintBuilder struct {
	bridge   adapter.Bridge
	store    adapter.SourceStore
	metadata adapter.SourceMetadata
	options  m.CompileOptions
}

// NewBlueprintBuilder constructs a BlueprintBuilder.
func NewBlueprintBuilder(bridge adapter.Bridge, store adapter.SourceStore, metadata adapter.SourceMetadata, opts m.CompileOptions) *BlueprintBuilder {
	return &BlueprintBuilder{
		bridge:   bridge,
		store:    store,
		metadata: metadata,
		options:  opts,
	}
}

// Build returns the assembler described by bp. Base files are resolved
// relative to dir; a base makes the result a subclass compiled next to the
// base source.
func (b *BlueprintBuilder) Build(bp m.Blueprint, dir m.Path) (*Assembler, error) {
	opts := []AssemblerOption{WithCompileOptions(b.options)}
	if bp.Package != "" {
		opts = append(opts, WithPackage(bp.Package))
	}

	if bp.Name != "" {
		opts = append(opts, WithTypeName(bp.Name))
	}

	var (
		asm *Assembler
		sub *Subclass
	)

	if bp.Base != nil {
		var err error

		sub, err = b.subclass(bp, dir, opts)
		if err != nil {
			return nil, err
		}

		asm = sub.Assembler
	} else {
		if len(bp.Overrides) > 0 {
			return nil, fmt.Errorf("%w: overrides need a base", m.ErrInvalidConfiguration)
		}

		asm = NewAssembler(b.bridge, opts...)
	}

	asm.AddImport(bp.Imports...)

	for _, category := range m.Categories() {
		for _, fragment := range bp.Fragments()[category] {
			if err := asm.add(category, fragment); err != nil {
				return nil, err
			}
		}
	}

	for _, o := range bp.Overrides {
		strategy, err := m.ParseOverrideStrategy(o.Strategy)
		if err != nil {
			return nil, err
		}

		if err := sub.OverrideByName(o.Method, o.Body, strategy); err != nil {
			return nil, err
		}
	}

	return asm, nil
}

func (b *BlueprintBuilder) subclass(bp m.Blueprint, dir m.Path, opts []AssemblerOption) (*Subclass, error) {
	file := bp.Base.File
	if !filepath.IsAbs(file) {
		file = filepath.Join(string(dir), file)
	}

	src, err := b.store.ReadFile(m.Path(file))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", m.ErrInvalidBaseType, err)
	}

	base, err := b.metadata.DescribeSource(file, src, bp.Base.Type)
	if err != nil {
		return nil, err
	}

	if bp.Package != "" && bp.Package != base.PkgName {
		return nil, fmt.Errorf("%w: package %s differs from base package %s", m.ErrInvalidConfiguration, bp.Package, base.PkgName)
	}

	sub, err := NewSubclass(b.bridge, base, opts...)
	if err != nil {
		return nil, err
	}

	sub.AddCompanion("base_"+filepath.Base(file), string(src))

	return sub, nil
}
