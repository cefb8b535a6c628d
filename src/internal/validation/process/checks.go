// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package process

import (
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
)

// Constraint names of the token basic validation.
const (
	MessageImprintIntact = "MessageImprintIntact"
	SignatureIntact      = "SignatureIntact"
	TokenCryptographic   = "TokenCryptographic"
)

// basicInput is the token-level data checked before its chain.
type basicInput struct {
	id             string
	imprintIntact  bool
	signatureValid bool
	digest         string
	encryption     string
	t              time.Time
	policy         *policy.Policy
}

var basicRules = rules.NewSet(
	rules.Rule[*basicInput]{
		Name:          MessageImprintIntact,
		Indication:    indication.Failed,
		SubIndication: indication.HashFailure,
		Check: func(in *basicInput) rules.Outcome {
			if in.imprintIntact {
				return rules.Pass("message imprint of %s matches", in.id)
			}
			return rules.Fail("message imprint of %s does not match the timestamped data", in.id)
		},
	},
	rules.Rule[*basicInput]{
		Name:          SignatureIntact,
		Indication:    indication.Failed,
		SubIndication: indication.SigCryptoFailure,
		Check: func(in *basicInput) rules.Outcome {
			if in.signatureValid {
				return rules.Pass("signature value of %s verifies", in.id)
			}
			return rules.Fail("signature value of %s does not verify", in.id)
		},
	},
	rules.Rule[*basicInput]{
		Name:          TokenCryptographic,
		Indication:    indication.Indeterminate,
		SubIndication: indication.CryptoConstraintsFailure,
		Check: func(in *basicInput) rules.Outcome {
			v := in.policy.CheckCrypto(in.t, "", 0, in.digest, in.encryption)
			switch {
			case v.OK:
				return rules.Pass("algorithms of %s reliable at %s", in.id, in.t.UTC().Format(time.RFC3339))
			case v.Expired:
				return rules.Fail("%s", v.Reason).
					As(indication.Indeterminate, indication.CryptoConstraintsFailureNoPOE).
					WithBoundary(&rules.Boundary{Time: v.Expiry, TokenID: in.id})
			default:
				return rules.Fail("%s", v.Reason)
			}
		},
	},
)

func init() {
	rules.RegisterMessages(rules.ContextAny, map[string]string{
		MessageImprintIntact: "Does the message imprint match the timestamped data?",
		SignatureIntact:      "Is the signature value intact?",
		TokenCryptographic:   "Are the token's algorithms reliable at the validation time?",
	})
	rules.RegisterMessages(rules.ContextTimestamp, map[string]string{
		SignatureIntact: "Is the timestamp signature intact?",
	})
}
