// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package rac decides whether one revocation candidate is acceptable evidence about
// one certificate, and selects the latest acceptable candidate among many.
package rac

import (
	"cmp"
	"slices"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/trustservice"
)

// Result is the acceptance verdict for one revocation candidate.
type Result struct {
	CertificateID string                       `json:"certificateId"`
	RevocationID  string                       `json:"revocationId"`
	Revocation    *diagnostic.RevocationRecord `json:"-"`
	Conclusion    *rules.Conclusion            `json:"conclusion"`
	Accepted      bool                         `json:"accepted"`
	// Terminal is set when the candidate was rejected for a reason fresher data
	// from the same source cannot fix (wrong signer, self-issued responder).
	Terminal    bool       `json:"terminal"`
	CoverageEnd *time.Time `json:"coverageEnd,omitempty"`
}

// Checker runs the acceptance chain.
//
// Thread Safety: Checker holds no mutable state and is safe for concurrent use.
type Checker struct {
	index    *diagnostic.Index
	levels   rules.Levels
	messages *rules.Messages
}

// New creates a Checker using the revocation-context levels of p.
func New(index *diagnostic.Index, p *policy.Policy) *Checker {
	return &Checker{
		index:    index,
		levels:   p.Levels(rules.ContextRevocation),
		messages: rules.MessagesFor(rules.ContextRevocation),
	}
}

// Check evaluates rev as evidence about cert.
func (c *Checker) Check(cert *diagnostic.CertificateRecord, rev *diagnostic.RevocationRecord) *Result {
	in := &input{
		cert:          cert,
		rev:           rev,
		defaultExpiry: c.defaultExpiry(cert, rev),
	}
	if rev.SigningCertificateID != "" {
		in.signer, _ = c.index.Certificate(rev.SigningCertificateID)
	}
	in.coverageEnd = CoverageEnd(rev, in.defaultExpiry)

	conclusion := rules.Execute(in, c.levels, acceptance.All(), c.messages)
	res := &Result{
		CertificateID: cert.ID,
		RevocationID:  rev.ID,
		Revocation:    rev,
		Conclusion:    conclusion,
		Accepted:      conclusion.Passed(),
		CoverageEnd:   in.coverageEnd,
	}
	if f := conclusion.Failure(); f != nil {
		_, res.Terminal = terminalRules[f.Name]
	}
	return res
}

// CheckAll evaluates every candidate the index holds about cert, in input order.
func (c *Checker) CheckAll(cert *diagnostic.CertificateRecord) []*Result {
	revs := c.index.Revocations(cert.ID)
	out := make([]*Result, 0, len(revs))
	for _, rev := range revs {
		out = append(out, c.Check(cert, rev))
	}
	return out
}

// defaultExpiry returns the trust-service configured expiredCertsRevocationInfo
// governing cert at the revocation's thisUpdate, if any.
func (c *Checker) defaultExpiry(cert *diagnostic.CertificateRecord, rev *diagnostic.RevocationRecord) *time.Time {
	chain, ok := c.index.Chain(cert.ID)
	if !ok {
		return nil
	}
	at := rev.ProductionDate
	if rev.ThisUpdate != nil {
		at = *rev.ThisUpdate
	}
	binding := trustservice.Resolve(chain, 0)
	rec, ok := trustservice.Match(at, binding.Records, func(r diagnostic.TrustServiceRecord) bool {
		return r.ExpiredCertsRevocationInfo != nil
	})
	if !ok {
		return nil
	}
	return rec.ExpiredCertsRevocationInfo
}

// CoverageEnd returns the earliest present of nextUpdate, expiredCertsOnCRL,
// archiveCutoff and the trust-service default expiry, or nil if none is present.
func CoverageEnd(rev *diagnostic.RevocationRecord, defaultExpiry *time.Time) *time.Time {
	var end *time.Time
	for _, candidate := range []*time.Time{rev.NextUpdate, rev.ExpiredCertsOnCRL, rev.ArchiveCutoff, defaultExpiry} {
		if candidate != nil && (end == nil || candidate.Before(*end)) {
			end = candidate
		}
	}
	return end
}

// Consistent is the coverage predicate: the data was issued no earlier than the
// certificate and covers it up to its expiry, or is bound to it by a matching cert
// hash.
func Consistent(notBefore, notAfter time.Time, thisUpdate, coverageEnd *time.Time, certHashOK bool) bool {
	if thisUpdate == nil || thisUpdate.Before(notBefore) {
		return false
	}
	if certHashOK {
		return true
	}
	return coverageEnd != nil && !notAfter.After(*coverageEnd)
}

// LatestAcceptable returns the accepted result with the most recent thisUpdate,
// then production date, then lowest identifier. It returns nil when none was accepted.
func LatestAcceptable(results []*Result) *Result {
	accepted := make([]*Result, 0, len(results))
	for _, r := range results {
		if r.Accepted {
			accepted = append(accepted, r)
		}
	}
	if len(accepted) == 0 {
		return nil
	}
	return slices.MaxFunc(accepted, func(a, b *Result) int {
		if c := compareOptional(a.Revocation.ThisUpdate, b.Revocation.ThisUpdate); c != 0 {
			return c
		}
		if c := a.Revocation.ProductionDate.Compare(b.Revocation.ProductionDate); c != 0 {
			return c
		}
		return cmp.Compare(b.RevocationID, a.RevocationID)
	})
}

func compareOptional(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
