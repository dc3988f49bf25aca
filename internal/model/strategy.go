package model

import (
	"fmt"
	"strings"
)

// OverrideStrategy governs how a base-operation call is woven into a
// generated override body.
type OverrideStrategy int

const (
	// StrategyNone uses the body verbatim.
	StrategyNone OverrideStrategy = iota
	// StrategyReturnDefault calls the base operation, discards its result and
	// returns the zero value of the result types.
	StrategyReturnDefault
	// StrategyAutoReturn captures the base result and returns it.
	StrategyAutoReturn
	// StrategyNotReturn calls the base operation and adds no return.
	StrategyNotReturn
)

var strategyNames = map[OverrideStrategy]string{
	StrategyNone:          "none",
	StrategyReturnDefault: "return-default",
	StrategyAutoReturn:    "auto-return",
	StrategyNotReturn:     "not-return",
}

func (s OverrideStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}

	return fmt.Sprintf("OverrideStrategy(%d)", int(s))
}

// ParseOverrideStrategy parses the textual form used in blueprints. An empty
// string selects StrategyNone.
func ParseOverrideStrategy(value string) (OverrideStrategy, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return StrategyNone, nil
	}

	value = strings.ReplaceAll(value, "_", "-")
	for strategy, name := range strategyNames {
		if name == value || strings.ReplaceAll(name, "-", "") == value {
			return strategy, nil
		}
	}

	return StrategyNone, fmt.Errorf("%w: unknown override strategy %q", ErrInvalidConfiguration, value)
}

// VirtualState marks a generated function as a plain, virtual or overriding
// member. Go has no keyword for it, so it is rendered as a doc line.
type VirtualState int

// Available VirtualState values.
const (
	VirtualNone VirtualState = iota
	VirtualVirtual
	VirtualOverride
)
