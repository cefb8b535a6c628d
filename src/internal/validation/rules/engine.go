// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rules

import (
	"slices"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
)

// ConstraintResult records one consulted constraint.
type ConstraintResult struct {
	Name          string                   `json:"name" yaml:"name"`
	Message       string                   `json:"message,omitempty" yaml:"message,omitempty"`
	Level         Level                    `json:"level" yaml:"level"`
	Passed        bool                     `json:"passed" yaml:"passed"`
	Indication    indication.Indication    `json:"indication,omitempty" yaml:"indication,omitempty"`
	SubIndication indication.SubIndication `json:"subIndication,omitempty" yaml:"subIndication,omitempty"`
	Detail        string                   `json:"detail,omitempty" yaml:"detail,omitempty"`
	Boundary      *Boundary                `json:"boundary,omitempty" yaml:"boundary,omitempty"`
}

// Conclusion is the aggregate of an executed chain.
type Conclusion struct {
	Indication    indication.Indication    `json:"indication" yaml:"indication"`
	SubIndication indication.SubIndication `json:"subIndication,omitempty" yaml:"subIndication,omitempty"`
	Results       []ConstraintResult       `json:"constraints" yaml:"constraints"`
	// Boundary is copied from the constraint that stopped the chain, if any.
	Boundary *Boundary `json:"boundary,omitempty" yaml:"boundary,omitempty"`
}

// Passed reports whether the conclusion is PASSED.
func (c *Conclusion) Passed() bool {
	return c != nil && (c.Indication == indication.Passed || c.Indication == indication.TotalPassed)
}

// Failure returns the FAIL-level result that stopped the chain, or nil.
func (c *Conclusion) Failure() *ConstraintResult {
	if c == nil || len(c.Results) == 0 {
		return nil
	}
	last := &c.Results[len(c.Results)-1]
	if !last.Passed && last.Level == LevelFail {
		return last
	}
	return nil
}

// Warnings returns the failed WARN-level results.
func (c *Conclusion) Warnings() []ConstraintResult {
	var out []ConstraintResult
	for _, r := range c.Results {
		if !r.Passed && r.Level == LevelWarn {
			out = append(out, r)
		}
	}
	return out
}

// Nest returns a new conclusion with the results of own. Its outcome is that of
// own, unless own passed and a nested conclusion did not, in which case the first
// such nested outcome is taken over. Nested results stay with their conclusions
// and no input is modified.
func Nest(own *Conclusion, nested ...*Conclusion) *Conclusion {
	c := &Conclusion{
		Indication:    own.Indication,
		SubIndication: own.SubIndication,
		Results:       slices.Clone(own.Results),
		Boundary:      own.Boundary,
	}
	if !own.Passed() {
		return c
	}
	for _, n := range nested {
		if n == nil || n.Passed() {
			continue
		}
		c.Indication, c.SubIndication, c.Boundary = n.Indication, n.SubIndication, n.Boundary
		break
	}
	return c
}

// NewConclusion returns a conclusion with the given indication pair and no results.
func NewConclusion(ind indication.Indication, sub indication.SubIndication) *Conclusion {
	return &Conclusion{Indication: ind, SubIndication: sub}
}

// Execute runs chain over input in order.
//
// Parameters:
//   - input: The value every rule checks; never mutated by the engine
//   - levels: Configured levels; rules without an evaluated level are skipped
//   - chain: The ordered rules
//   - messages: Human-readable message set for the validation context (may be nil)
//
// Returns:
//   - *Conclusion: PASSED if no FAIL-level rule failed, otherwise the indication pair
//     of the first failing FAIL-level rule; all consulted results in order
//
// Execution stops at the first FAIL-level failure. WARN and INFORM failures are
// recorded and execution continues.
func Execute[C any](input C, levels Levels, chain []Rule[C], messages *Messages) *Conclusion {
	conclusion := NewConclusion(indication.Passed, indication.None)

	for _, rule := range chain {
		level, ok := levels.Of(rule.Name)
		if !ok || !level.Evaluated() {
			continue
		}

		out := rule.Check(input)
		result := ConstraintResult{
			Name:    rule.Name,
			Message: messages.Text(rule.Name),
			Level:   level,
			Passed:  out.Passed,
			Detail:  out.Detail,
		}

		if !out.Passed {
			result.Indication, result.SubIndication = rule.Indication, rule.SubIndication
			if out.Indication != "" {
				result.Indication, result.SubIndication = out.Indication, out.SubIndication
			}
			result.Boundary = out.Boundary
		}
		conclusion.Results = append(conclusion.Results, result)

		if !out.Passed && level == LevelFail {
			conclusion.Indication = result.Indication
			conclusion.SubIndication = result.SubIndication
			conclusion.Boundary = result.Boundary
			return conclusion
		}
	}

	return conclusion
}
