// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	x509certs "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs"
)

var (
	// ErrParseRevocation is returned for CRLs and OCSP responses that cannot be decoded.
	ErrParseRevocation = errors.New("x509chain: failed to parse revocation data")
	// ErrRevocationSignature is returned when revocation data is not signed by the
	// expected issuer or responder.
	ErrRevocationSignature = errors.New("x509chain: revocation data signature invalid")
	// ErrRevocationTarget is returned when revocation data does not concern any
	// certificate of the chain.
	ErrRevocationTarget = errors.New("x509chain: revocation data does not match the chain")
)

var (
	// oidExpiredCertsOnCRL is id-ce-expiredCertsOnCRL (X.509, 2.5.29.60).
	oidExpiredCertsOnCRL = asn1.ObjectIdentifier{2, 5, 29, 60}
	// oidArchiveCutoff is id-pkix-ocsp-archive-cutoff (RFC 6960, section 4.4.4).
	oidArchiveCutoff = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 6}
	// oidCertHash is the Common PKI certHash OCSP extension.
	oidCertHash = asn1.ObjectIdentifier{1, 3, 36, 8, 3, 13}
)

var hashAlgorithms = map[string]crypto.Hash{
	"1.3.14.3.2.26":          crypto.SHA1,
	"2.16.840.1.101.3.4.2.1": crypto.SHA256,
	"2.16.840.1.101.3.4.2.2": crypto.SHA384,
	"2.16.840.1.101.3.4.2.3": crypto.SHA512,
}

// reasons maps RFC 5280 CRLReason codes to their names.
var reasons = map[int]string{
	0:  "unspecified",
	1:  "keyCompromise",
	2:  "cACompromise",
	3:  "affiliationChanged",
	4:  "superseded",
	5:  "cessationOfOperation",
	6:  diagnostic.ReasonCertificateHold,
	8:  "removeFromCRL",
	9:  "privilegeWithdrawn",
	10: "aACompromise",
}

const reasonRemoveFromCRL = 8

type certHash struct {
	Algorithm pkix.AlgorithmIdentifier
	Hash      []byte
}

type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

func revocationID(prefix string, der []byte, target *x509.Certificate) string {
	h := sha256.New()
	h.Write(der)
	h.Write(target.Raw)
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(h.Sum(nil)[:12]))
}

func ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func generalizedTime(exts []pkix.Extension, oid asn1.ObjectIdentifier) *time.Time {
	for _, ext := range exts {
		if !ext.Id.Equal(oid) {
			continue
		}
		var t time.Time
		if _, err := asn1.UnmarshalWithParams(ext.Value, &t, "generalized"); err != nil {
			return nil
		}
		return ptr(t)
	}
	return nil
}

// FromCRL converts a DER CRL into the revocation record it holds about target.
// The CRL must be signed by issuer; a target absent from the CRL yields a good
// status. An entry with reason removeFromCRL also counts as good.
//
// Parameters:
//   - der: DER-encoded CRL
//   - issuer: Certificate of the CRL issuer
//   - target: Certificate the record is about
//
// Returns:
//   - diagnostic.RevocationRecord: Normalized CRL record
//   - error: [ErrParseRevocation], [ErrRevocationSignature] or [ErrRevocationTarget]
func FromCRL(der []byte, issuer, target *x509.Certificate) (diagnostic.RevocationRecord, error) {
	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		return diagnostic.RevocationRecord{}, fmt.Errorf("%w: %w", ErrParseRevocation, err)
	}
	if !bytes.Equal(crl.RawIssuer, target.RawIssuer) {
		return diagnostic.RevocationRecord{}, fmt.Errorf("%w: CRL of %s does not cover %s", ErrRevocationTarget, crl.Issuer, target.Subject)
	}
	if err := crl.CheckSignatureFrom(issuer); err != nil {
		return diagnostic.RevocationRecord{}, fmt.Errorf("%w: %w", ErrRevocationSignature, err)
	}

	signer := x509certs.ID(issuer)
	ref := crl.Issuer.String()
	if bytes.Equal(crl.RawIssuer, issuer.RawSubject) {
		ref = signer
	}

	rec := diagnostic.RevocationRecord{
		ID:                   revocationID("CRL", der, target),
		Type:                 diagnostic.RevocationCRL,
		CertificateID:        x509certs.ID(target),
		Status:               diagnostic.StatusGood,
		SigningCertificateID: signer,
		SignerReference:      ref,
		SignerChain:          []string{signer},
		ThisUpdate:           ptr(crl.ThisUpdate),
		NextUpdate:           ptr(crl.NextUpdate),
		ExpiredCertsOnCRL:    generalizedTime(crl.Extensions, oidExpiredCertsOnCRL),
		ProductionDate:       crl.ThisUpdate.UTC(),
	}

	for _, entry := range crl.RevokedCertificateEntries {
		if entry.SerialNumber.Cmp(target.SerialNumber) != 0 || entry.ReasonCode == reasonRemoveFromCRL {
			continue
		}
		rec.Status = diagnostic.StatusRevoked
		rec.RevocationDate = ptr(entry.RevocationTime)
		rec.Reason = reasons[entry.ReasonCode]
		break
	}
	return rec, nil
}

// responderMatches reports whether the responder identity claimed by resp names cert.
func responderMatches(resp *ocsp.Response, cert *x509.Certificate) bool {
	if len(resp.RawResponderName) > 0 {
		return bytes.Equal(resp.RawResponderName, cert.RawSubject)
	}
	var spki subjectPublicKeyInfo
	if _, err := asn1.Unmarshal(cert.RawSubjectPublicKeyInfo, &spki); err != nil {
		return false
	}
	sum := sha1.Sum(spki.PublicKey.RightAlign())
	return bytes.Equal(resp.ResponderKeyHash, sum[:])
}

func responderReference(resp *ocsp.Response) string {
	if len(resp.RawResponderName) > 0 {
		var rdn pkix.RDNSequence
		if _, err := asn1.Unmarshal(resp.RawResponderName, &rdn); err == nil {
			var name pkix.Name
			name.FillFromRDNSequence(&rdn)
			return name.String()
		}
	}
	return "KeyHash:" + strings.ToUpper(hex.EncodeToString(resp.ResponderKeyHash))
}

// checkCertHash reports whether a certHash extension is present and whether it
// matches target.
func checkCertHash(exts []pkix.Extension, target *x509.Certificate) (present, match bool) {
	for _, ext := range exts {
		if !ext.Id.Equal(oidCertHash) {
			continue
		}
		var ch certHash
		if _, err := asn1.Unmarshal(ext.Value, &ch); err != nil {
			return true, false
		}
		h, ok := hashAlgorithms[ch.Algorithm.Algorithm.String()]
		if !ok || !h.Available() {
			return true, false
		}
		d := h.New()
		d.Write(target.Raw)
		return true, bytes.Equal(d.Sum(nil), ch.Hash)
	}
	return false, false
}

// FromOCSP converts a DER OCSP response about target into a revocation record.
// The response is verified against issuer, either directly or through the
// delegated responder certificate it embeds.
//
// Parameters:
//   - der: DER-encoded OCSP response
//   - issuer: Certificate of target's issuer
//   - target: Certificate the response is about
//
// Returns:
//   - diagnostic.RevocationRecord: Normalized OCSP record
//   - error: [ErrParseRevocation], [ErrRevocationSignature] or [ErrRevocationTarget]
func FromOCSP(der []byte, issuer, target *x509.Certificate) (diagnostic.RevocationRecord, error) {
	peek, err := ocsp.ParseResponse(der, nil)
	if err != nil {
		return diagnostic.RevocationRecord{}, fmt.Errorf("%w: %w", ErrParseRevocation, err)
	}
	if peek.SerialNumber == nil || peek.SerialNumber.Cmp(target.SerialNumber) != 0 {
		return diagnostic.RevocationRecord{}, fmt.Errorf("%w: OCSP response is not about %s", ErrRevocationTarget, target.Subject)
	}
	resp, err := ocsp.ParseResponseForCert(der, target, issuer)
	if err != nil {
		return diagnostic.RevocationRecord{}, fmt.Errorf("%w: %w", ErrRevocationSignature, err)
	}

	responder := issuer
	chain := []string{x509certs.ID(issuer)}
	if resp.Certificate != nil {
		responder = resp.Certificate
		chain = append([]string{x509certs.ID(responder)}, chain...)
	}

	signer := x509certs.ID(responder)
	ref := responderReference(resp)
	if responderMatches(resp, responder) {
		ref = signer
	}

	rec := diagnostic.RevocationRecord{
		ID:                   revocationID("OCSP", der, target),
		Type:                 diagnostic.RevocationOCSP,
		CertificateID:        x509certs.ID(target),
		Status:               diagnostic.StatusUnknown,
		SigningCertificateID: signer,
		SignerReference:      ref,
		SignerChain:          chain,
		ThisUpdate:           ptr(resp.ThisUpdate),
		NextUpdate:           ptr(resp.NextUpdate),
		ArchiveCutoff:        generalizedTime(resp.Extensions, oidArchiveCutoff),
		ProductionDate:       resp.ProducedAt.UTC(),
	}
	rec.CertHashPresent, rec.CertHashMatch = checkCertHash(resp.Extensions, target)

	switch resp.Status {
	case ocsp.Good:
		rec.Status = diagnostic.StatusGood
	case ocsp.Revoked:
		rec.Status = diagnostic.StatusRevoked
		rec.RevocationDate = ptr(resp.RevokedAt)
		rec.Reason = reasons[resp.RevocationReason]
	}
	return rec, nil
}

// Revocations converts CRLs and OCSP responses into records about the members of
// the chain. Each piece of data is paired with the chain member it concerns and
// verified against that member's issuer; the signer chain of each record is
// extended with the certificates above the issuer. Delegated OCSP responders are
// returned as certificate records placed under the CA that delegated to them, so
// that the revocation records referencing them can be checked.
//
// Parameters:
//   - crls: DER-encoded CRLs
//   - responses: DER-encoded OCSP responses
//
// Returns:
//   - []diagnostic.RevocationRecord: One record per (data, certificate) pair
//   - []diagnostic.CertificateRecord: The delegated responders outside the chain, once each
//   - error: The first data that could not be paired, decoded or verified
func (ch *Chain) Revocations(crls, responses [][]byte) ([]diagnostic.RevocationRecord, []diagnostic.CertificateRecord, error) {
	ch.mu.RLock()
	certs := append([]*x509.Certificate(nil), ch.Certs...)
	ch.mu.RUnlock()

	var (
		records    []diagnostic.RevocationRecord
		responders []diagnostic.CertificateRecord
		seen       = make(map[string]bool)
	)
	for n, der := range crls {
		matched := false
		for _, target := range certs {
			issuer := ch.issuerOf(target)
			if issuer == nil || issuer.Equal(target) {
				continue
			}
			rec, err := FromCRL(der, issuer, target)
			if errors.Is(err, ErrRevocationTarget) {
				continue
			}
			if err != nil {
				return nil, nil, fmt.Errorf("crl %d: %w", n+1, err)
			}
			records = append(records, ch.extendSignerChain(rec, issuer))
			matched = true
		}
		if !matched {
			return nil, nil, fmt.Errorf("crl %d: %w", n+1, ErrRevocationTarget)
		}
	}

	for n, der := range responses {
		peek, err := ocsp.ParseResponse(der, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("ocsp %d: %w: %w", n+1, ErrParseRevocation, err)
		}
		matched := false
		for _, target := range certs {
			issuer := ch.issuerOf(target)
			if issuer == nil || issuer.Equal(target) || peek.SerialNumber.Cmp(target.SerialNumber) != 0 {
				continue
			}
			rec, err := FromOCSP(der, issuer, target)
			if err != nil {
				return nil, nil, fmt.Errorf("ocsp %d: %w", n+1, err)
			}
			records = append(records, ch.extendSignerChain(rec, issuer))
			if r := peek.Certificate; r != nil && !inChain(certs, r) && !seen[x509certs.ID(r)] {
				seen[x509certs.ID(r)] = true
				responders = append(responders, ch.responderRecord(r, issuer))
			}
			matched = true
			break
		}
		if !matched {
			return nil, nil, fmt.Errorf("ocsp %d: %w", n+1, ErrRevocationTarget)
		}
	}
	return records, responders, nil
}

func (ch *Chain) extendSignerChain(rec diagnostic.RevocationRecord, issuer *x509.Certificate) diagnostic.RevocationRecord {
	for up := ch.issuerOf(issuer); up != nil && !up.Equal(issuer); up = ch.issuerOf(issuer) {
		rec.SignerChain = append(rec.SignerChain, x509certs.ID(up))
		issuer = up
	}
	return rec
}

// responderRecord describes a delegated OCSP responder issued by issuer.
func (ch *Chain) responderRecord(responder, issuer *x509.Certificate) diagnostic.CertificateRecord {
	rec := x509certs.ToRecord(responder)
	rec.Chain = []string{x509certs.ID(issuer)}
	for up := ch.issuerOf(issuer); up != nil && !up.Equal(issuer); up = ch.issuerOf(issuer) {
		rec.Chain = append(rec.Chain, x509certs.ID(up))
		issuer = up
	}
	return rec
}

func inChain(certs []*x509.Certificate, cert *x509.Certificate) bool {
	for _, c := range certs {
		if c.Equal(cert) {
			return true
		}
	}
	return false
}
