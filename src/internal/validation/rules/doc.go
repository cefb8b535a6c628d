// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package rules is a small, generic constraint interpreter.
//
// A chain is an ordered slice of [Rule] values, each a pure predicate over one input
// type. [Execute] runs the rules that have a configured [Level], records every
// consulted result, and stops at the first FAIL-level rule that does not hold.
// Building blocks (revocation acceptance, chain validation, past validation) declare
// their rules as static tables and share this interpreter.
//
// Example usage:
//
//	set := rules.NewSet(
//		rules.Rule[*input]{
//			Name:          "NotExpired",
//			Indication:    indication.Indeterminate,
//			SubIndication: indication.OutOfBoundsNoPOE,
//			Check: func(in *input) rules.Outcome {
//				if in.t.After(in.cert.NotAfter) {
//					return rules.Fail("expired at %s", in.cert.NotAfter)
//				}
//				return rules.Pass("valid")
//			},
//		},
//	)
//	conclusion := rules.Execute(in, rules.Levels{"NotExpired": rules.LevelFail}, set.All(),
//		rules.MessagesFor(rules.ContextSignature))
package rules
