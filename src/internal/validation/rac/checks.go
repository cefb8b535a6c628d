// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rac

import (
	"slices"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
)

// Constraint names, as configured in the revocation context of a policy.
const (
	RevocationDataKnown                   = "RevocationDataKnown"
	RevocationSignerIdentified            = "RevocationSignerIdentified"
	RevocationSignerNotSelfIssued         = "RevocationSignerNotSelfIssued"
	RevocationThisUpdatePresent           = "RevocationThisUpdatePresent"
	RevocationConsistent                  = "RevocationConsistent"
	RevocationIssuerValidAtProductionTime = "RevocationIssuerValidAtProductionTime"
)

var terminalRules = map[string]struct{}{
	RevocationSignerIdentified:    {},
	RevocationSignerNotSelfIssued: {},
}

type input struct {
	cert          *diagnostic.CertificateRecord
	rev           *diagnostic.RevocationRecord
	signer        *diagnostic.CertificateRecord
	defaultExpiry *time.Time
	coverageEnd   *time.Time
}

func stamp(t *time.Time) string {
	if t == nil {
		return "absent"
	}
	return t.UTC().Format(time.RFC3339)
}

var acceptance = rules.NewSet(
	rules.Rule[*input]{
		Name:          RevocationDataKnown,
		Indication:    indication.Indeterminate,
		SubIndication: indication.TryLater,
		Check: func(in *input) rules.Outcome {
			if !in.rev.Known() {
				return rules.Fail("revocation status of %s is %q", in.cert.ID, in.rev.Status)
			}
			return rules.Pass("revocation status is %s", in.rev.Status)
		},
	},
	rules.Rule[*input]{
		Name:          RevocationSignerIdentified,
		Indication:    indication.Indeterminate,
		SubIndication: indication.CertificateChainGeneralFailure,
		Check: func(in *input) rules.Outcome {
			if in.rev.SigningCertificateID == "" || in.rev.SigningCertificateID != in.rev.SignerReference {
				return rules.Fail("signer %q does not match the referenced signer %q",
					in.rev.SigningCertificateID, in.rev.SignerReference)
			}
			return rules.Pass("signed by %s", in.rev.SigningCertificateID)
		},
	},
	rules.Rule[*input]{
		Name:          RevocationSignerNotSelfIssued,
		Indication:    indication.Indeterminate,
		SubIndication: indication.CertificateChainGeneralFailure,
		Check: func(in *input) rules.Outcome {
			if in.rev.SigningCertificateID == in.cert.ID || slices.Contains(in.rev.SignerChain, in.cert.ID) {
				return rules.Fail("%s appears in the chain of its own revocation signer", in.cert.ID)
			}
			return rules.Pass("signer chain does not contain %s", in.cert.ID)
		},
	},
	rules.Rule[*input]{
		Name:          RevocationThisUpdatePresent,
		Indication:    indication.Indeterminate,
		SubIndication: indication.TryLater,
		Check: func(in *input) rules.Outcome {
			if in.rev.ThisUpdate == nil {
				return rules.Fail("thisUpdate is absent")
			}
			return rules.Pass("thisUpdate %s", stamp(in.rev.ThisUpdate))
		},
	},
	rules.Rule[*input]{
		Name:          RevocationConsistent,
		Indication:    indication.Indeterminate,
		SubIndication: indication.TryLater,
		Check: func(in *input) rules.Outcome {
			ok := Consistent(in.cert.NotBefore, in.cert.NotAfter, in.rev.ThisUpdate, in.coverageEnd, in.rev.CertHashOK())
			detail := "notBefore %s, notAfter %s, thisUpdate %s, coverage end %s, cert hash match %t"
			args := []any{stamp(&in.cert.NotBefore), stamp(&in.cert.NotAfter), stamp(in.rev.ThisUpdate),
				stamp(in.coverageEnd), in.rev.CertHashOK()}
			if !ok {
				return rules.Fail(detail, args...)
			}
			return rules.Pass(detail, args...)
		},
	},
	rules.Rule[*input]{
		Name:          RevocationIssuerValidAtProductionTime,
		Indication:    indication.Indeterminate,
		SubIndication: indication.TryLater,
		Check: func(in *input) rules.Outcome {
			if in.rev.Type != diagnostic.RevocationOCSP {
				return rules.Pass("not an OCSP response")
			}
			if in.signer == nil {
				return rules.Fail("responder certificate %q is unknown", in.rev.SigningCertificateID)
			}
			if !in.signer.ValidAt(in.rev.ProductionDate) {
				return rules.Fail("responder %s is not valid at production time %s",
					in.signer.ID, stamp(&in.rev.ProductionDate))
			}
			return rules.Pass("responder %s valid at %s", in.signer.ID, stamp(&in.rev.ProductionDate))
		},
	},
)

func init() {
	rules.RegisterMessages(rules.ContextAny, map[string]string{
		RevocationDataKnown:                   "Is the revocation status known?",
		RevocationSignerIdentified:            "Does the revocation signer match the referenced signer?",
		RevocationSignerNotSelfIssued:         "Is the revocation signer independent from the certificate?",
		RevocationThisUpdatePresent:           "Is the revocation thisUpdate present?",
		RevocationConsistent:                  "Is the revocation data consistent with the certificate?",
		RevocationIssuerValidAtProductionTime: "Is the OCSP responder valid at the response production time?",
	})
}
