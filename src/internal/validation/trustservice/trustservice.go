// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trustservice matches usage times against trusted-list service entries.
//
// A record grants trust over the half-open interval [Start, End): the start instant
// is included, the end instant is not, and a missing end is unbounded.
package trustservice

import (
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
)

// Predicate decides whether a record's status and type are acceptable.
type Predicate func(diagnostic.TrustServiceRecord) bool

// Any accepts every record.
func Any(diagnostic.TrustServiceRecord) bool { return true }

// Match returns the first record accepted by pred whose interval contains u.
func Match(u time.Time, records []diagnostic.TrustServiceRecord, pred Predicate) (diagnostic.TrustServiceRecord, bool) {
	for _, rec := range records {
		if pred(rec) && rec.Covers(u) {
			return rec, true
		}
	}
	return diagnostic.TrustServiceRecord{}, false
}

// LastEndAtOrBefore returns the latest end among records accepted by pred that
// ended at or before u. It is the instant before which trust may still have held.
func LastEndAtOrBefore(u time.Time, records []diagnostic.TrustServiceRecord, pred Predicate) (time.Time, bool) {
	var (
		last  time.Time
		found bool
	)
	for _, rec := range records {
		if rec.End == nil || !pred(rec) || rec.End.After(u) || !rec.Start.Before(*rec.End) {
			continue
		}
		if !found || rec.End.After(last) {
			last, found = *rec.End, true
		}
	}
	return last, found
}

// Evaluation is the outcome of matching at usage time and at issuance time,
// reported separately.
type Evaluation struct {
	UsageTime          time.Time                      `json:"usageTime"`
	IssuanceTime       time.Time                      `json:"issuanceTime"`
	AcceptedAtUsage    bool                           `json:"acceptedAtUsage"`
	AcceptedAtIssuance bool                           `json:"acceptedAtIssuance"`
	AtUsage            *diagnostic.TrustServiceRecord `json:"atUsage,omitempty"`
	AtIssuance         *diagnostic.TrustServiceRecord `json:"atIssuance,omitempty"`
}

// Evaluate matches records at usage and at issuance independently.
func Evaluate(usage, issuance time.Time, records []diagnostic.TrustServiceRecord, pred Predicate) Evaluation {
	ev := Evaluation{UsageTime: usage, IssuanceTime: issuance}
	if rec, ok := Match(usage, records, pred); ok {
		ev.AcceptedAtUsage, ev.AtUsage = true, &rec
	}
	if rec, ok := Match(issuance, records, pred); ok {
		ev.AcceptedAtIssuance, ev.AtIssuance = true, &rec
	}
	return ev
}

// Binding is the set of trust services governing one certificate.
type Binding struct {
	Records []diagnostic.TrustServiceRecord
	Stale   bool
	// Source is the certificate the records were taken from.
	Source *diagnostic.CertificateRecord
	// TrustedStore is set when the governing anchor is a locally trusted store
	// anchor, which bypasses trust-service checks.
	TrustedStore bool
}

// Resolve returns the trust services governing chain[pos]: its own records when it
// has any, otherwise those of the nearest trust anchor above it. chain is ordered
// leaf first.
func Resolve(chain []*diagnostic.CertificateRecord, pos int) Binding {
	for i := pos; i < len(chain); i++ {
		c := chain[i]
		if len(c.TrustServices) > 0 {
			return Binding{Records: c.TrustServices, Stale: c.TrustServicesStale, Source: c}
		}
		if c.TrustAnchor {
			return Binding{Stale: c.TrustServicesStale, Source: c, TrustedStore: c.TrustedStore}
		}
	}
	return Binding{}
}
