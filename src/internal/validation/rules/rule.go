// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
)

var (
	// ErrUnknownRule indicates a chain referencing a rule that was never registered.
	ErrUnknownRule = errors.New("rules: unknown rule")

	// ErrDuplicateRule indicates two registrations under one name.
	ErrDuplicateRule = errors.New("rules: duplicate rule")
)

// Boundary is the point in time past which a failed constraint is known to block.
// Past validation moves its control time to before this point.
type Boundary struct {
	Time time.Time `json:"time" yaml:"time"`
	// Inclusive reports whether Time itself is still an acceptable control time.
	Inclusive bool `json:"inclusive" yaml:"inclusive"`
	// TokenID identifies the certificate or token carrying the blocking condition.
	TokenID string `json:"tokenId,omitempty" yaml:"tokenId,omitempty"`
}

// Admits reports whether t is on the acceptable side of the boundary.
func (b *Boundary) Admits(t time.Time) bool {
	if b.Inclusive {
		return !t.After(b.Time)
	}
	return t.Before(b.Time)
}

// Outcome is what a rule check returns.
type Outcome struct {
	Passed bool
	Detail string
	// Indication and SubIndication override the rule's defaults when set.
	Indication    indication.Indication
	SubIndication indication.SubIndication
	Boundary      *Boundary
}

// Pass returns a passing outcome.
func Pass(format string, args ...any) Outcome {
	return Outcome{Passed: true, Detail: fmt.Sprintf(format, args...)}
}

// Fail returns a failing outcome using the rule's default indication.
func Fail(format string, args ...any) Outcome {
	return Outcome{Detail: fmt.Sprintf(format, args...)}
}

// WithBoundary attaches a blocking boundary to o.
func (o Outcome) WithBoundary(b *Boundary) Outcome {
	o.Boundary = b
	return o
}

// As overrides the indication pair reported if o fails.
func (o Outcome) As(ind indication.Indication, sub indication.SubIndication) Outcome {
	o.Indication = ind
	o.SubIndication = sub
	return o
}

// Rule is a named, pure predicate over an input of type C.
type Rule[C any] struct {
	Name          string
	Indication    indication.Indication
	SubIndication indication.SubIndication
	Check         func(C) Outcome
}

// Set holds rules registered by name, preserving registration order.
type Set[C any] struct {
	order []string
	rules map[string]Rule[C]
}

// NewSet creates a Set containing rules in the given order.
// It panics on a duplicate name, since sets are built from static tables.
func NewSet[C any](rules ...Rule[C]) *Set[C] {
	s := &Set[C]{rules: make(map[string]Rule[C], len(rules))}
	for _, r := range rules {
		if err := s.Register(r); err != nil {
			panic(err)
		}
	}
	return s
}

// Register adds r to the set.
func (s *Set[C]) Register(r Rule[C]) error {
	if _, dup := s.rules[r.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, r.Name)
	}
	s.rules[r.Name] = r
	s.order = append(s.order, r.Name)
	return nil
}

// Build returns the rules named by names, in that order.
func (s *Set[C]) Build(names ...string) ([]Rule[C], error) {
	out := make([]Rule[C], 0, len(names))
	for _, n := range names {
		r, ok := s.rules[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRule, n)
		}
		out = append(out, r)
	}
	return out, nil
}

// All returns every rule in registration order.
func (s *Set[C]) All() []Rule[C] {
	out := make([]Rule[C], 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.rules[n])
	}
	return out
}

// Names returns the registered rule names in order.
func (s *Set[C]) Names() []string {
	return append([]string(nil), s.order...)
}
