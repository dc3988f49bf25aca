// Package model defines the data structures shared by the synthesis engine.
package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// AccessLevel is the visibility of a synthesized member. The five levels are
// package-level singletons and are compared by identity.
type AccessLevel struct {
	keyword  string
	exported bool
}

// Available access levels.
var (
	Private             = &AccessLevel{keyword: "private"}
	Internal            = &AccessLevel{keyword: "internal"}
	Protected           = &AccessLevel{keyword: "protected", exported: true}
	ProtectedOrInternal = &AccessLevel{keyword: "protected internal", exported: true}
	Public              = &AccessLevel{keyword: "public", exported: true}
)

// AccessLevels lists every access level.
func AccessLevels() []*AccessLevel {
	return []*AccessLevel{Private, Internal, Protected, ProtectedOrInternal, Public}
}

// String returns the canonical keyword.
func (a *AccessLevel) String() string {
	return a.keyword
}

// Exported reports whether members at this level get an exported Go identifier.
func (a *AccessLevel) Exported() bool {
	return a.exported
}

// Ident applies Go visibility to name: exported levels upper-case the first
// rune, the others lower-case it.
func (a *AccessLevel) Ident(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}

	if a.exported {
		return string(unicode.ToUpper(r)) + name[size:]
	}

	return string(unicode.ToLower(r)) + name[size:]
}

// ParseAccessLevel resolves a keyword (case-insensitive) to its singleton.
func ParseAccessLevel(keyword string) (*AccessLevel, bool) {
	keyword = strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
	for _, level := range AccessLevels() {
		if level.keyword == keyword {
			return level, true
		}
	}

	return nil, false
}

// Visibility is the set of accessibility classifications reported by a
// metadata source for an operation.
type Visibility uint8

// Visibility flags.
const (
	VisInternal Visibility = 1 << iota
	VisProtected
	VisProtectedOrInternal
	VisPrivate
	VisPublic
)

// Has reports whether v carries flag.
func (v Visibility) Has(flag Visibility) bool {
	return v&flag != 0
}

// IsExportedName reports whether name is an exported Go identifier.
func IsExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
