// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package psv

import (
	"time"

	"go.uber.org/zap"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/poe"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/xcv"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

// Input describes the token whose present-time conclusion may be recovered.
type Input struct {
	// TokenID identifies the signature or timestamp in the POE registry.
	TokenID string
	// CertificateID is the signing certificate of the token.
	CertificateID string
	Context       rules.Context
	// Conclusion is the present-time conclusion of the token.
	Conclusion *rules.Conclusion
	// DigestAlgorithm and EncryptionAlgorithm are the token's own algorithms,
	// re-checked at every control time.
	DigestAlgorithm     string
	EncryptionAlgorithm string
}

// Result is the outcome of past validation for one token.
type Result struct {
	TokenID string `json:"tokenId"`
	// Entered is false when the present-time conclusion is not recoverable by
	// past validation. Conclusion then is the present-time conclusion.
	Entered bool `json:"entered"`
	// ControlTime is the last control time evaluated.
	ControlTime time.Time `json:"controlTime"`
	// ControlTimes lists every evaluated control time, most recent first.
	ControlTimes      []time.Time       `json:"controlTimes,omitempty"`
	Iterations        int               `json:"iterations"`
	BestSignatureTime *time.Time        `json:"bestSignatureTime,omitempty"`
	PCV               *xcv.Result       `json:"pcv,omitempty"`
	Conclusion        *rules.Conclusion `json:"conclusion"`
}

// Validator slides the control time of a token's chain back towards its proofs of
// existence.
type Validator struct {
	xcv *xcv.Validator
	poe *poe.Registry
	log logger.Logger
}

// New creates a Validator reading proofs from registry. A nil log discards output.
func New(x *xcv.Validator, registry *poe.Registry, log logger.Logger) *Validator {
	return &Validator{xcv: x, poe: registry, log: logger.OrDiscard(log)}
}

// Validate runs past validation for in.
//
// The control time starts at the validation time. While the chain, or the token's
// own cryptography, is blocked by a condition that a proof of existence could
// overcome, the control time moves to the latest proof of the token that the
// blocking boundary admits. Each move is strictly backwards and lands on a proof
// time, so the search ends after at most one evaluation per proof time.
//
// Returns:
//   - *Result: The recovered conclusion, or the present-time one if nothing was recovered
//   - error: diagnostic.ErrUnknownCertificate when the signing certificate is unknown
func (v *Validator) Validate(in Input) (*Result, error) {
	p := v.xcv.Policy()
	now := v.xcv.Index().ValidationTime()
	res := &Result{TokenID: in.TokenID, ControlTime: now, Conclusion: in.Conclusion}

	original := in.Conclusion
	if original == nil || original.Indication != indication.Indeterminate || !p.PastValidationEntry(original.SubIndication) {
		return res, nil
	}
	res.Entered = true

	floor, _ := v.xcv.Floor(in.CertificateID)
	limit := len(v.poe.Times(in.TokenID)) + 1

	var state *rules.Conclusion
	for t := now; ; {
		res.Iterations++
		pcv, err := v.xcv.Validate(in.CertificateID, t, in.Context)
		if err != nil {
			return nil, err
		}
		res.PCV, res.ControlTime = pcv, t
		res.ControlTimes = append(res.ControlTimes, t)

		state = v.tokenState(in, pcv.Conclusion, t)
		next, ok := v.slide(in.TokenID, state, t, floor)
		if !ok || res.Iterations >= limit {
			break
		}
		v.logSlide(in.TokenID, t, next, state)
		t = next
	}

	if bst, ok := v.poe.LatestAtOrBefore(in.TokenID, res.ControlTime); ok {
		res.BestSignatureTime = &bst
	}

	cert, _ := v.xcv.Index().Certificate(in.CertificateID)
	g := &gateInput{
		in:          in,
		original:    original,
		state:       state,
		controlTime: res.ControlTime,
		bst:         res.BestSignatureTime,
		cert:        cert,
		registry:    v.poe,
		policy:      p,
	}
	if original.SubIndication == indication.RevokedCANoPOE {
		g.caRevocation, g.caRevoked = v.xcv.RevokedCA(in.CertificateID, now)
	}
	res.Conclusion = rules.Execute(g, p.Levels(in.Context), gateRules.All(), rules.MessagesFor(in.Context))
	return res, nil
}

// tokenState combines the chain conclusion at t with the token's own algorithms.
func (v *Validator) tokenState(in Input, chain *rules.Conclusion, t time.Time) *rules.Conclusion {
	if !chain.Passed() {
		return chain
	}
	verdict := v.xcv.Policy().CheckCrypto(t, "", 0, in.DigestAlgorithm, in.EncryptionAlgorithm)
	switch {
	case verdict.OK:
		return chain
	case verdict.Expired:
		c := rules.NewConclusion(indication.Indeterminate, indication.CryptoConstraintsFailureNoPOE)
		c.Boundary = &rules.Boundary{Time: verdict.Expiry, TokenID: in.TokenID}
		return c
	default:
		return rules.NewConclusion(indication.Indeterminate, indication.CryptoConstraintsFailure)
	}
}

// slide returns the next control time for state, if the search can continue.
func (v *Validator) slide(tokenID string, state *rules.Conclusion, t, floor time.Time) (time.Time, bool) {
	if state.Passed() || state.Indication != indication.Indeterminate || state.Boundary == nil ||
		!v.xcv.Policy().PastValidationEntry(state.SubIndication) {
		return time.Time{}, false
	}

	b := state.Boundary
	var (
		next time.Time
		ok   bool
	)
	if b.Inclusive {
		next, ok = v.poe.LatestAtOrBefore(tokenID, b.Time)
	} else {
		next, ok = v.poe.LatestBefore(tokenID, b.Time)
	}
	if !ok || !next.Before(t) || next.Before(floor) {
		return time.Time{}, false
	}
	return next, true
}

func (v *Validator) logSlide(tokenID string, from, to time.Time, state *rules.Conclusion) {
	if fl, ok := v.log.(logger.FieldLogger); ok {
		fl.Info("control time moved",
			zap.String("token", tokenID),
			zap.Time("from", from),
			zap.Time("to", to),
			zap.String("subIndication", string(state.SubIndication)),
		)
		return
	}
	v.log.Printf("%s: %s at %s, control time moved to %s", tokenID, state.SubIndication, stamp(from), stamp(to))
}
