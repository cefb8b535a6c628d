// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package psv implements past signature validation.
//
// A token whose present-time conclusion is INDETERMINATE with a sub-indication
// that a proof of existence could overcome (a revoked or expired certificate, a
// revoked CA, an expired algorithm) is re-validated at earlier control times. The
// chain is re-run through [xcv.Validator] at each control time; the blocking
// boundary it reports decides the next control time, which is always a proof
// time of the token taken from the [poe.Registry].
//
// Once the search stops, a fixed chain of gating constraints decides whether the
// historical result is accepted. A rejected search reports the present-time
// indication pair unchanged.
package psv
