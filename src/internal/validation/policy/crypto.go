// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	"fmt"
	"strings"
	"time"
)

// CryptoVerdict is the result of checking algorithms against the policy at one time.
type CryptoVerdict struct {
	OK     bool
	Reason string
	// Expired is set when the only problem is an algorithm expiry; Expiry then holds
	// the earliest expiry that was reached.
	Expired bool
	Expiry  time.Time
}

// AlgorithmExpiry returns the expiry of an algorithm, matching names
// case-insensitively. known is false for algorithms absent from the policy.
func (p *Policy) AlgorithmExpiry(name string) (expiry *time.Time, known bool) {
	if e, ok := p.Cryptographic.Algorithms[name]; ok {
		return e, true
	}
	for k, e := range p.Cryptographic.Algorithms {
		if strings.EqualFold(k, name) {
			return e, true
		}
	}
	return nil, false
}

// MinKeySize returns the minimum key size for keyAlgorithm, or zero when unconstrained.
func (p *Policy) MinKeySize(keyAlgorithm string) int {
	if n, ok := p.Cryptographic.MinKeySizes[keyAlgorithm]; ok {
		return n
	}
	for k, n := range p.Cryptographic.MinKeySizes {
		if strings.EqualFold(k, keyAlgorithm) {
			return n
		}
	}
	return 0
}

// CheckCrypto checks that every non-empty algorithm is known and not expired at t,
// and that keySize meets the minimum for keyAlgorithm. Unknown algorithms and short
// keys can never be fixed by moving t, so they are reported with Expired unset.
func (p *Policy) CheckCrypto(t time.Time, keyAlgorithm string, keySize int, algorithms ...string) CryptoVerdict {
	if keyAlgorithm != "" && keySize > 0 {
		if minSize := p.MinKeySize(keyAlgorithm); keySize < minSize {
			return CryptoVerdict{Reason: fmt.Sprintf("%s key size %d is below the minimum of %d", keyAlgorithm, keySize, minSize)}
		}
	}

	verdict := CryptoVerdict{OK: true}
	for _, alg := range algorithms {
		if alg == "" {
			continue
		}
		expiry, known := p.AlgorithmExpiry(alg)
		if !known {
			return CryptoVerdict{Reason: fmt.Sprintf("algorithm %s is not accepted", alg)}
		}
		if expiry == nil || t.Before(*expiry) {
			continue
		}
		if verdict.OK || expiry.Before(verdict.Expiry) {
			verdict = CryptoVerdict{
				Expired: true,
				Expiry:  *expiry,
				Reason:  fmt.Sprintf("algorithm %s is not reliable since %s", alg, expiry.Format(time.RFC3339)),
			}
		}
	}
	if verdict.OK {
		verdict.Reason = "algorithms accepted"
	}
	return verdict
}
