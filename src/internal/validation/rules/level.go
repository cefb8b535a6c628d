// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLevel indicates a level string outside FAIL, WARN, INFORM and IGNORE.
var ErrInvalidLevel = errors.New("rules: invalid constraint level")

// Level is the configured severity of a constraint.
type Level string

const (
	// LevelFail stops the chain when the constraint does not hold.
	LevelFail Level = "FAIL"
	// LevelWarn records a failed constraint as a warning and continues.
	LevelWarn Level = "WARN"
	// LevelInform records a failed constraint as information and continues.
	LevelInform Level = "INFORM"
	// LevelIgnore skips the constraint entirely.
	LevelIgnore Level = "IGNORE"
)

// ParseLevel parses s case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelFail, LevelWarn, LevelInform, LevelIgnore:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Evaluated reports whether a constraint with this level is executed at all.
func (l Level) Evaluated() bool {
	return l == LevelFail || l == LevelWarn || l == LevelInform
}

// Levels maps constraint names to their configured level. A name without an entry
// is not evaluated.
type Levels map[string]Level

// Of returns the level configured for name.
func (l Levels) Of(name string) (Level, bool) {
	lvl, ok := l[name]
	return lvl, ok
}

// With returns a copy of l where each of names is set to level.
func (l Levels) With(level Level, names ...string) Levels {
	out := make(Levels, len(l)+len(names))
	for k, v := range l {
		out[k] = v
	}
	for _, n := range names {
		out[n] = level
	}
	return out
}
