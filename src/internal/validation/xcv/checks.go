// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package xcv

import (
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rac"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/trustservice"
)

// Constraint names, as configured per token context of a policy.
const (
	ProspectiveCertificateChain = "ProspectiveCertificateChain"
	CertificateValidityRange    = "CertificateValidityRange"
	CertificateCryptographic    = "CertificateCryptographic"
	CertificateNotRevoked       = "CertificateNotRevoked"
	CertificateNotOnHold        = "CertificateNotOnHold"
	TrustServiceAtUsageTime     = "TrustServiceAtUsageTime"
	TrustServiceAtIssuance      = "TrustServiceAtIssuance"
	TrustAnchorNotSunset        = "TrustAnchorNotSunset"
)

type chainInput struct {
	chain []*diagnostic.CertificateRecord
	t     time.Time
}

type certInput struct {
	chain       []*diagnostic.CertificateRecord
	pos         int
	cert        *diagnostic.CertificateRecord
	t           time.Time
	policy      *policy.Policy
	binding     trustservice.Binding
	revocations []*rac.Result
	latest      *rac.Result
}

func (in *certInput) leaf() bool { return in.pos == 0 }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

var chainRules = rules.NewSet(
	rules.Rule[*chainInput]{
		Name:          ProspectiveCertificateChain,
		Indication:    indication.Indeterminate,
		SubIndication: indication.NoCertificateChainFound,
		Check:         checkProspectiveChain,
	},
)

// checkProspectiveChain looks for an anchor whose trust period covers t. An anchor
// without trust services is trusted for as long as it is in the store.
func checkProspectiveChain(in *chainInput) rules.Outcome {
	var (
		anchors  int
		stale    bool
		lastEnd  time.Time
		endFound bool
		endOwner string
	)
	for _, c := range in.chain {
		if !c.TrustAnchor {
			continue
		}
		anchors++
		if len(c.TrustServices) == 0 {
			return rules.Pass("trust anchor %s", c.ID)
		}
		if _, ok := trustservice.Match(in.t, c.TrustServices, trustservice.Any); ok {
			return rules.Pass("trust anchor %s is listed at %s", c.ID, stamp(in.t))
		}
		stale = stale || c.TrustServicesStale
		if end, ok := trustservice.LastEndAtOrBefore(in.t, c.TrustServices, trustservice.Any); ok && (!endFound || end.After(lastEnd)) {
			lastEnd, endFound, endOwner = end, true, c.ID
		}
	}

	switch {
	case anchors == 0:
		return rules.Fail("no trust anchor in the chain of %s", in.chain[0].ID)
	case stale:
		return rules.Fail("trusted list is stale and lists no anchor at %s", stamp(in.t)).
			As(indication.Indeterminate, indication.TryLater)
	case endFound:
		return rules.Fail("trust anchor %s was listed only until %s", endOwner, stamp(lastEnd)).
			As(indication.Indeterminate, indication.NoCertificateChainFoundNoPOE).
			WithBoundary(&rules.Boundary{Time: lastEnd, TokenID: endOwner})
	default:
		return rules.Fail("no trust anchor is listed at %s", stamp(in.t))
	}
}

var anchorRules = rules.NewSet(
	rules.Rule[*certInput]{
		Name:          TrustAnchorNotSunset,
		Indication:    indication.Indeterminate,
		SubIndication: indication.NoCertificateChainFoundNoPOE,
		Check: func(in *certInput) rules.Outcome {
			sunset := in.cert.SunsetDate
			if sunset == nil {
				return rules.Pass("no sunset date")
			}
			if in.t.Before(*sunset) {
				return rules.Pass("sunset at %s", stamp(*sunset))
			}
			return rules.Fail("trust in %s ended at sunset %s", in.cert.ID, stamp(*sunset)).
				WithBoundary(&rules.Boundary{Time: *sunset, TokenID: in.cert.ID})
		},
	},
)

var certificateRules = rules.NewSet(
	rules.Rule[*certInput]{
		Name:          CertificateValidityRange,
		Indication:    indication.Indeterminate,
		SubIndication: indication.OutOfBoundsNoPOE,
		Check: func(in *certInput) rules.Outcome {
			c := in.cert
			switch {
			case in.t.Before(c.NotBefore):
				return rules.Fail("%s is not valid before %s", c.ID, stamp(c.NotBefore)).
					As(indication.Failed, indication.NotYetValid)
			case in.t.After(c.NotAfter):
				return rules.Fail("%s expired at %s", c.ID, stamp(c.NotAfter)).
					WithBoundary(&rules.Boundary{Time: c.NotAfter, Inclusive: true, TokenID: c.ID})
			}
			return rules.Pass("%s valid from %s to %s", c.ID, stamp(c.NotBefore), stamp(c.NotAfter))
		},
	},
	rules.Rule[*certInput]{
		Name:          CertificateCryptographic,
		Indication:    indication.Indeterminate,
		SubIndication: indication.CryptoConstraintsFailure,
		Check: func(in *certInput) rules.Outcome {
			c := in.cert
			v := in.policy.CheckCrypto(in.t, c.PublicKeyAlgorithm, c.KeySize, c.DigestAlgorithm, c.EncryptionAlgorithm)
			switch {
			case v.OK:
				return rules.Pass("%s", v.Reason)
			case v.Expired:
				return rules.Fail("%s", v.Reason).
					As(indication.Indeterminate, indication.CryptoConstraintsFailureNoPOE).
					WithBoundary(&rules.Boundary{Time: v.Expiry, TokenID: c.ID})
			default:
				return rules.Fail("%s", v.Reason)
			}
		},
	},
	rules.Rule[*certInput]{
		Name:          CertificateNotRevoked,
		Indication:    indication.Indeterminate,
		SubIndication: indication.TryLater,
		Check: func(in *certInput) rules.Outcome {
			if in.cert.RevocationCheckExempt {
				return rules.Pass("%s is exempt from revocation checking", in.cert.ID)
			}
			if in.latest == nil {
				return rules.Fail("no acceptable revocation data for %s among %d candidate(s)", in.cert.ID, len(in.revocations))
			}
			at, revoked := revokedAt(in.latest.Revocation)
			if !revoked {
				return rules.Pass("%s not revoked according to %s", in.cert.ID, in.latest.RevocationID)
			}
			if at.After(in.t) {
				return rules.Pass("%s revoked only at %s", in.cert.ID, stamp(at))
			}
			sub := indication.RevokedCANoPOE
			if in.leaf() {
				sub = indication.RevokedNoPOE
			}
			return rules.Fail("%s revoked at %s according to %s", in.cert.ID, stamp(at), in.latest.RevocationID).
				As(indication.Indeterminate, sub).
				WithBoundary(&rules.Boundary{Time: at, TokenID: in.cert.ID})
		},
	},
	rules.Rule[*certInput]{
		Name:          CertificateNotOnHold,
		Indication:    indication.Indeterminate,
		SubIndication: indication.TryLater,
		Check: func(in *certInput) rules.Outcome {
			if in.latest == nil || !in.latest.Revocation.OnHold() {
				return rules.Pass("%s is not suspended", in.cert.ID)
			}
			rev := in.latest.Revocation
			if rev.RevocationDate != nil && rev.RevocationDate.After(in.t) {
				return rules.Pass("%s suspended only at %s", in.cert.ID, stamp(*rev.RevocationDate))
			}
			return rules.Fail("%s is suspended according to %s", in.cert.ID, rev.ID)
		},
	},
	rules.Rule[*certInput]{
		Name:          TrustServiceAtUsageTime,
		Indication:    indication.Indeterminate,
		SubIndication: indication.NoCertificateChainFound,
		Check: func(in *certInput) rules.Outcome {
			return checkTrustService(in, in.t, true)
		},
	},
	rules.Rule[*certInput]{
		Name:          TrustServiceAtIssuance,
		Indication:    indication.Indeterminate,
		SubIndication: indication.NoCertificateChainFound,
		Check: func(in *certInput) rules.Outcome {
			return checkTrustService(in, in.cert.NotBefore, false)
		},
	},
)

// checkTrustService matches the governing trust services at u. Only the usage-time
// check reports a boundary or a staleness retry.
func checkTrustService(in *certInput, u time.Time, usage bool) rules.Outcome {
	b := in.binding
	switch {
	case b.TrustedStore:
		return rules.Pass("anchored in trusted store %s", b.Source.ID)
	case b.Source == nil:
		return rules.Pass("no trust anchor governs %s", in.cert.ID)
	case len(b.Records) == 0 && !b.Stale:
		return rules.Pass("anchor %s carries no trust services", b.Source.ID)
	}

	if rec, ok := trustservice.Match(u, b.Records, in.policy.AcceptsTrustService); ok {
		return rules.Pass("service %q %s/%s covers %s", rec.ServiceName, rec.Status, rec.Type, stamp(u))
	}
	if !usage {
		return rules.Fail("no accepted service of %s covers the issuance of %s at %s", b.Source.ID, in.cert.ID, stamp(u))
	}
	if b.Stale {
		return rules.Fail("trusted list is stale and no accepted service of %s covers %s", b.Source.ID, stamp(u)).
			As(indication.Indeterminate, indication.TryLater)
	}
	if end, ok := trustservice.LastEndAtOrBefore(u, b.Records, in.policy.AcceptsTrustService); ok {
		return rules.Fail("accepted service of %s ended at %s", b.Source.ID, stamp(end)).
			As(indication.Indeterminate, indication.NoCertificateChainFoundNoPOE).
			WithBoundary(&rules.Boundary{Time: end, TokenID: b.Source.ID})
	}
	return rules.Fail("no accepted service of %s covers %s", b.Source.ID, stamp(u))
}

func init() {
	rules.RegisterMessages(rules.ContextAny, map[string]string{
		ProspectiveCertificateChain: "Can the certificate chain be built till a trust anchor?",
		CertificateValidityRange:    "Is the certificate within its validity range?",
		CertificateCryptographic:    "Are the certificate's cryptographic constraints met?",
		CertificateNotRevoked:       "Is the certificate not revoked?",
		CertificateNotOnHold:        "Is the certificate not on hold?",
		TrustServiceAtUsageTime:     "Is the trust service accepted at the control time?",
		TrustServiceAtIssuance:      "Was the trust service accepted at certificate issuance?",
		TrustAnchorNotSunset:        "Is the trust anchor used before its sunset date?",
	})
	rules.RegisterMessages(rules.ContextTimestamp, map[string]string{
		ProspectiveCertificateChain: "Can the timestamp's certificate chain be built till a trust anchor?",
		TrustServiceAtUsageTime:     "Is the time-stamping service accepted at the control time?",
	})
	rules.RegisterMessages(rules.ContextSignature, map[string]string{
		ProspectiveCertificateChain: "Can the signing certificate chain be built till a trust anchor?",
		TrustServiceAtUsageTime:     "Is the trust service accepted at the signing control time?",
	})
}
