package model

import "strings"

// BasePlaceholder marks where the base call goes in an override body.
const BasePlaceholder = "$BASE$"

const legacyBasePlaceholder = "$base$"

// Body is an override body template: text before the base call, whether the
// base call is present, and text after it.
type Body struct {
	Prefix    string
	CallsBase bool
	Suffix    string
}

// ParseBody splits text at the first base placeholder. Only the first
// placeholder is a call site; later ones stay in Suffix untouched.
func ParseBody(text string) Body {
	idx, width := placeholderIndex(text)
	if idx < 0 {
		return Body{Prefix: text}
	}

	return Body{
		Prefix:    text[:idx],
		CallsBase: true,
		Suffix:    text[idx+width:],
	}
}

func placeholderIndex(text string) (int, int) {
	idx := strings.Index(text, BasePlaceholder)
	legacy := strings.Index(text, legacyBasePlaceholder)

	switch {
	case idx < 0 && legacy < 0:
		return -1, 0
	case idx < 0 || (legacy >= 0 && legacy < idx):
		return legacy, len(legacyBasePlaceholder)
	}

	return idx, len(BasePlaceholder)
}

// String reassembles the template with the placeholder in place.
func (b Body) String() string {
	if !b.CallsBase {
		return b.Prefix
	}

	return b.Prefix + BasePlaceholder + b.Suffix
}

// Expand substitutes the base call site with statement.
func (b Body) Expand(statement string) string {
	if !b.CallsBase {
		return b.Prefix
	}

	return b.Prefix + statement + b.Suffix
}
