// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package psv

import (
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/poe"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
)

// Constraint names, as configured per token context of a policy.
const (
	PastCertificateValidationAcceptable   = "PastCertificateValidationAcceptable"
	POEExists                             = "POEExists"
	POENotAfterCARevocationTime           = "POENotAfterCARevocationTime"
	BestSignatureTimeNotBeforeIssuance    = "BestSignatureTimeNotBeforeIssuance"
	BestSignatureTimeBeforeExpiration     = "BestSignatureTimeBeforeExpiration"
	TokenCryptographicAtBestSignatureTime = "TokenCryptographicAtBestSignatureTime"
)

type gateInput struct {
	in          Input
	original    *rules.Conclusion
	state       *rules.Conclusion
	controlTime time.Time
	bst         *time.Time
	cert        *diagnostic.CertificateRecord
	registry    *poe.Registry
	policy      *policy.Policy

	caRevocation time.Time
	caRevoked    bool
}

// revert reports a failure with the present-time indication pair.
func (g *gateInput) revert(out rules.Outcome) rules.Outcome {
	return out.As(g.original.Indication, g.original.SubIndication)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// expirySubIndication is reported when best-signature-time is after notAfter.
func expirySubIndication(original indication.SubIndication) indication.SubIndication {
	switch original {
	case indication.RevokedNoPOE, indication.RevokedCANoPOE:
		return indication.OutOfBoundsNotRevoked
	default:
		return indication.OutOfBoundsNoPOE
	}
}

var gateRules = rules.NewSet(
	rules.Rule[*gateInput]{
		Name:          PastCertificateValidationAcceptable,
		Indication:    indication.Indeterminate,
		SubIndication: indication.NoPOE,
		Check: func(g *gateInput) rules.Outcome {
			s := g.state
			if s.Passed() {
				return rules.Pass("past certificate validation passed at %s", stamp(g.controlTime))
			}
			if s.Indication == indication.Indeterminate && s.SubIndication == g.original.SubIndication &&
				s.Boundary != nil && g.bst != nil && s.Boundary.Admits(*g.bst) {
				return rules.Pass("%s applies only after best-signature-time %s", s.SubIndication, stamp(*g.bst))
			}
			return g.revert(rules.Fail("past certificate validation concluded %s/%s at %s",
				s.Indication, s.SubIndication, stamp(g.controlTime)))
		},
	},
	rules.Rule[*gateInput]{
		Name:          POEExists,
		Indication:    indication.Indeterminate,
		SubIndication: indication.NoPOE,
		Check: func(g *gateInput) rules.Outcome {
			if g.registry.Exists(g.in.TokenID, g.controlTime) {
				return rules.Pass("%s existed at %s", g.in.TokenID, stamp(g.controlTime))
			}
			return g.revert(rules.Fail("no proof that %s existed at %s", g.in.TokenID, stamp(g.controlTime)))
		},
	},
	rules.Rule[*gateInput]{
		Name:          POENotAfterCARevocationTime,
		Indication:    indication.Indeterminate,
		SubIndication: indication.RevokedCANoPOE,
		Check: func(g *gateInput) rules.Outcome {
			switch {
			case g.original.SubIndication != indication.RevokedCANoPOE:
				return rules.Pass("no CA revocation to precede")
			case !g.caRevoked:
				return rules.Pass("no CA revocation is known")
			case g.bst != nil && g.bst.Before(g.caRevocation):
				return rules.Pass("%s existed at %s, before the CA revocation at %s",
					g.in.TokenID, stamp(*g.bst), stamp(g.caRevocation))
			}
			return g.revert(rules.Fail("no proof that %s existed before the CA revocation at %s",
				g.in.TokenID, stamp(g.caRevocation)))
		},
	},
	rules.Rule[*gateInput]{
		Name:          BestSignatureTimeNotBeforeIssuance,
		Indication:    indication.Failed,
		SubIndication: indication.NotYetValid,
		Check: func(g *gateInput) rules.Outcome {
			if g.bst == nil || g.cert == nil {
				return g.revert(rules.Fail("no best-signature-time for %s", g.in.TokenID))
			}
			if g.bst.Before(g.cert.NotBefore) {
				return rules.Fail("best-signature-time %s is before %s was issued at %s",
					stamp(*g.bst), g.cert.ID, stamp(g.cert.NotBefore))
			}
			return rules.Pass("best-signature-time %s is not before %s", stamp(*g.bst), stamp(g.cert.NotBefore))
		},
	},
	rules.Rule[*gateInput]{
		Name:          BestSignatureTimeBeforeExpiration,
		Indication:    indication.Indeterminate,
		SubIndication: indication.OutOfBoundsNoPOE,
		Check: func(g *gateInput) rules.Outcome {
			if g.bst == nil || g.cert == nil {
				return g.revert(rules.Fail("no best-signature-time for %s", g.in.TokenID))
			}
			if g.bst.After(g.cert.NotAfter) {
				return rules.Fail("best-signature-time %s is after %s expired at %s",
					stamp(*g.bst), g.cert.ID, stamp(g.cert.NotAfter)).
					As(indication.Indeterminate, expirySubIndication(g.original.SubIndication))
			}
			return rules.Pass("best-signature-time %s is not after %s", stamp(*g.bst), stamp(g.cert.NotAfter))
		},
	},
	rules.Rule[*gateInput]{
		Name:          TokenCryptographicAtBestSignatureTime,
		Indication:    indication.Indeterminate,
		SubIndication: indication.CryptoConstraintsFailureNoPOE,
		Check: func(g *gateInput) rules.Outcome {
			if g.bst == nil {
				return g.revert(rules.Fail("no best-signature-time for %s", g.in.TokenID))
			}
			v := g.policy.CheckCrypto(*g.bst, "", 0, g.in.DigestAlgorithm, g.in.EncryptionAlgorithm)
			if v.OK {
				return rules.Pass("algorithms of %s reliable at %s", g.in.TokenID, stamp(*g.bst))
			}
			return g.revert(rules.Fail("%s", v.Reason))
		},
	},
)

func init() {
	rules.RegisterMessages(rules.ContextAny, map[string]string{
		PastCertificateValidationAcceptable:   "Is the result of the past certificate validation acceptable?",
		POEExists:                             "Does a proof of existence exist at the control time?",
		POENotAfterCARevocationTime:           "Does a proof of existence precede the CA revocation?",
		BestSignatureTimeNotBeforeIssuance:    "Is the best-signature-time not before the certificate issuance?",
		BestSignatureTimeBeforeExpiration:     "Is the best-signature-time before the certificate expiration?",
		TokenCryptographicAtBestSignatureTime: "Are the algorithms reliable at the best-signature-time?",
	})
	rules.RegisterMessages(rules.ContextTimestamp, map[string]string{
		BestSignatureTimeNotBeforeIssuance: "Is the timestamp's best-signature-time not before the TSA certificate issuance?",
		BestSignatureTimeBeforeExpiration:  "Is the timestamp's best-signature-time before the TSA certificate expiration?",
	})
}
