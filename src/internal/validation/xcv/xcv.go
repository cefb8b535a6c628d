// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package xcv validates a certificate chain at a control time.
//
// A chain passes when a trust anchor covers the control time and every certificate
// below it is in its validity range, uses accepted cryptography, is not revoked at
// the control time according to the latest acceptable revocation data, and is
// governed by an accepted trust service. Failures that could be overcome with a proof
// of existence at an earlier time carry a [rules.Boundary] for past validation.
package xcv

import (
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rac"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/trustservice"
)

// CertificateResult is the sub-validation of one certificate of the chain.
type CertificateResult struct {
	CertificateID  string                   `json:"certificateId"`
	TrustAnchor    bool                     `json:"trustAnchor"`
	Conclusion     *rules.Conclusion        `json:"conclusion"`
	Revocations    []*rac.Result            `json:"revocations,omitempty"`
	UsedRevocation string                   `json:"usedRevocation,omitempty"`
	TrustService   *trustservice.Evaluation `json:"trustService,omitempty"`
}

// Result is the outcome of validating one chain at one control time.
type Result struct {
	CertificateID string               `json:"certificateId"`
	Context       rules.Context        `json:"context"`
	ControlTime   time.Time            `json:"controlTime"`
	Conclusion    *rules.Conclusion    `json:"conclusion"`
	Certificates  []*CertificateResult `json:"certificates"`
	// UsedRevocations lists the revocation data the verdict relied on.
	UsedRevocations []string `json:"usedRevocations,omitempty"`
}

// Boundary returns the blocking boundary of a non-passing result, if any.
func (r *Result) Boundary() *rules.Boundary { return r.Conclusion.Boundary }

// Validator validates chains of one diagnostic data set under one policy.
//
// Thread Safety: Validator memoizes revocation acceptance per certificate and is
// not safe for concurrent use. Create one per validation run.
type Validator struct {
	index  *diagnostic.Index
	policy *policy.Policy
	rac    *rac.Checker
	racs   map[string][]*rac.Result
}

// New creates a Validator.
func New(index *diagnostic.Index, p *policy.Policy) *Validator {
	return &Validator{
		index:  index,
		policy: p,
		rac:    rac.New(index, p),
		racs:   make(map[string][]*rac.Result),
	}
}

// Policy returns the policy the validator applies.
func (v *Validator) Policy() *policy.Policy { return v.policy }

// Index returns the diagnostic data the validator reads.
func (v *Validator) Index() *diagnostic.Index { return v.index }

// revocations returns the memoized acceptance results about cert.
func (v *Validator) revocations(cert *diagnostic.CertificateRecord) []*rac.Result {
	if res, ok := v.racs[cert.ID]; ok {
		return res
	}
	res := v.rac.CheckAll(cert)
	v.racs[cert.ID] = res
	return res
}

// Validate runs the chain checks for certID at controlTime, with the levels and
// messages of ctx.
//
// Parameters:
//   - certID: Identifier of the certificate whose chain is validated
//   - controlTime: The time the chain must be trusted at
//   - ctx: The validation context (signature, timestamp or certificate)
//
// Returns:
//   - *Result: The conclusion with one CertificateResult per consulted certificate
//   - error: diagnostic.ErrUnknownCertificate if certID is not in the data
func (v *Validator) Validate(certID string, controlTime time.Time, ctx rules.Context) (*Result, error) {
	chain, ok := v.index.Chain(certID)
	if !ok {
		return nil, fmt.Errorf("xcv: %w: %q", diagnostic.ErrUnknownCertificate, certID)
	}

	levels := v.policy.Levels(ctx)
	messages := rules.MessagesFor(ctx)

	res := &Result{
		CertificateID: certID,
		Context:       ctx,
		ControlTime:   controlTime,
	}
	own := rules.Execute(&chainInput{chain: chain, t: controlTime}, levels, chainRules.All(), messages)
	if !own.Passed() {
		res.Conclusion = own
		return res, nil
	}

	nested := make([]*rules.Conclusion, 0, len(chain))
	for pos, cert := range chain {
		cr := v.validateCertificate(chain, pos, controlTime, levels, messages)
		res.Certificates = append(res.Certificates, cr)
		nested = append(nested, cr.Conclusion)
		if cr.UsedRevocation != "" {
			res.UsedRevocations = append(res.UsedRevocations, cr.UsedRevocation)
		}
		if !cr.Conclusion.Passed() || cert.TrustAnchor {
			break
		}
	}
	res.Conclusion = rules.Nest(own, nested...)
	return res, nil
}

func (v *Validator) validateCertificate(chain []*diagnostic.CertificateRecord, pos int, t time.Time,
	levels rules.Levels, messages *rules.Messages) *CertificateResult {
	cert := chain[pos]
	cr := &CertificateResult{CertificateID: cert.ID, TrustAnchor: cert.TrustAnchor}

	if cert.TrustAnchor {
		cr.Conclusion = rules.Execute(&certInput{cert: cert, t: t}, levels, anchorRules.All(), messages)
		return cr
	}

	in := &certInput{
		chain:   chain,
		pos:     pos,
		cert:    cert,
		t:       t,
		policy:  v.policy,
		binding: trustservice.Resolve(chain, pos),
	}
	if !cert.RevocationCheckExempt {
		in.revocations = v.revocations(cert)
		in.latest = rac.LatestAcceptable(in.revocations)
	}
	if !in.binding.TrustedStore && len(in.binding.Records) > 0 {
		ev := trustservice.Evaluate(t, cert.NotBefore, in.binding.Records, v.policy.AcceptsTrustService)
		cr.TrustService = &ev
	}

	cr.Revocations = in.revocations
	if in.latest != nil {
		cr.UsedRevocation = in.latest.RevocationID
	}
	cr.Conclusion = rules.Execute(in, levels, certificateRules.All(), messages)
	return cr
}

// Floor returns the latest notBefore across the chain of certID: no control time
// before it can validate the whole chain.
func (v *Validator) Floor(certID string) (time.Time, bool) {
	chain, ok := v.index.Chain(certID)
	if !ok {
		return time.Time{}, false
	}
	var floor time.Time
	for _, c := range chain {
		if c.NotBefore.After(floor) {
			floor = c.NotBefore
		}
		if c.TrustAnchor {
			break
		}
	}
	return floor, true
}

// RevokedCA returns the earliest revocation date, at or before t, of a non-leaf
// certificate in the chain of certID according to its latest acceptable revocation.
func (v *Validator) RevokedCA(certID string, t time.Time) (time.Time, bool) {
	chain, ok := v.index.Chain(certID)
	if !ok {
		return time.Time{}, false
	}
	var (
		earliest time.Time
		found    bool
	)
	for _, c := range chain[1:] {
		if c.TrustAnchor {
			break
		}
		latest := rac.LatestAcceptable(v.revocations(c))
		if latest == nil {
			continue
		}
		if at, revoked := revokedAt(latest.Revocation); revoked && !at.After(t) && (!found || at.Before(earliest)) {
			earliest, found = at, true
		}
	}
	return earliest, found
}

// revokedAt returns the effective revocation time of a non-suspension revocation.
func revokedAt(rev *diagnostic.RevocationRecord) (time.Time, bool) {
	if !rev.Revoked() || rev.OnHold() {
		return time.Time{}, false
	}
	if rev.RevocationDate != nil {
		return *rev.RevocationDate, true
	}
	return rev.ProductionDate, true
}
