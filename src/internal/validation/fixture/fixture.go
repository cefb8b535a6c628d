// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package fixture builds diagnostic data sets for tests of the validation packages.
//
// [QualifiedPKI] models a small qualified PKI: a trusted-list root with a granted
// "CA/QC" service, a signer certificate, a time-stamping unit, and an OCSP responder
// that answers for both. Tests start from it and mutate what they need.
package fixture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
)

// Identifiers used by QualifiedPKI.
const (
	RootID      = "root-ca"
	SignerID    = "signer"
	TSAID       = "tsa"
	ResponderID = "ocsp-responder"
	SignerOCSP  = "ocsp-signer"
	TSAOCSP     = "ocsp-tsa"
	SignatureID = "sig-1"
)

// Now is the default validation time.
var Now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// Ptr returns a pointer to t.
func Ptr(t time.Time) *time.Time { return &t }

// Builder accumulates records.
type Builder struct {
	data *diagnostic.DiagnosticData
}

// New starts an empty data set validated at now.
func New(now time.Time) *Builder {
	return &Builder{data: &diagnostic.DiagnosticData{ValidationTime: now}}
}

// Certificate appends a certificate.
func (b *Builder) Certificate(c diagnostic.CertificateRecord) *Builder {
	b.data.Certificates = append(b.data.Certificates, c)
	return b
}

// Revocation appends a revocation record.
func (b *Builder) Revocation(r diagnostic.RevocationRecord) *Builder {
	b.data.Revocations = append(b.data.Revocations, r)
	return b
}

// Timestamp appends a timestamp.
func (b *Builder) Timestamp(ts diagnostic.TimestampRecord) *Builder {
	b.data.Timestamps = append(b.data.Timestamps, ts)
	return b
}

// Signature appends a signature.
func (b *Builder) Signature(s diagnostic.SignatureRecord) *Builder {
	b.data.Signatures = append(b.data.Signatures, s)
	return b
}

// Mutate applies fn to the data being built.
func (b *Builder) Mutate(fn func(d *diagnostic.DiagnosticData)) *Builder {
	fn(b.data)
	return b
}

// CertificateByID returns a pointer to a certificate being built, or nil.
func (b *Builder) CertificateByID(id string) *diagnostic.CertificateRecord {
	for i := range b.data.Certificates {
		if b.data.Certificates[i].ID == id {
			return &b.data.Certificates[i]
		}
	}
	return nil
}

// RevocationByID returns a pointer to a revocation record being built, or nil.
func (b *Builder) RevocationByID(id string) *diagnostic.RevocationRecord {
	for i := range b.data.Revocations {
		if b.data.Revocations[i].ID == id {
			return &b.data.Revocations[i]
		}
	}
	return nil
}

// Data returns the built data set.
func (b *Builder) Data() *diagnostic.DiagnosticData { return b.data }

// Index indexes the built data set, failing the test on error.
func (b *Builder) Index(tb testing.TB) *diagnostic.Index {
	tb.Helper()
	idx, err := diagnostic.NewIndex(b.data)
	require.NoError(tb, err)
	return idx
}

// Policy returns the default policy, failing the test on error.
func Policy(tb testing.TB) *policy.Policy {
	tb.Helper()
	p, err := policy.Default()
	require.NoError(tb, err)
	return p
}

// OCSP returns a good OCSP response about certID produced at thisUpdate by the
// PKI's responder, bound to the certificate by a matching cert hash.
func OCSP(id, certID string, thisUpdate time.Time) diagnostic.RevocationRecord {
	return diagnostic.RevocationRecord{
		ID:                   id,
		Type:                 diagnostic.RevocationOCSP,
		CertificateID:        certID,
		Status:               diagnostic.StatusGood,
		SigningCertificateID: ResponderID,
		SignerReference:      ResponderID,
		SignerChain:          []string{ResponderID, RootID},
		ThisUpdate:           Ptr(thisUpdate),
		NextUpdate:           Ptr(thisUpdate.AddDate(0, 0, 7)),
		ProductionDate:       thisUpdate,
		CertHashPresent:      true,
		CertHashMatch:        true,
	}
}

// QualifiedPKI builds the reference PKI validated at now. The signer certificate
// was issued two years before now and expires one year after.
func QualifiedPKI(now time.Time) *Builder {
	rsa := func(c diagnostic.CertificateRecord) diagnostic.CertificateRecord {
		c.PublicKeyAlgorithm, c.KeySize = "RSA", 3072
		c.DigestAlgorithm, c.EncryptionAlgorithm = "SHA256", "RSA"
		return c
	}

	return New(now).
		Certificate(rsa(diagnostic.CertificateRecord{
			ID: RootID, Subject: "CN=Qualified Root CA", Issuer: "CN=Qualified Root CA",
			NotBefore: now.AddDate(-10, 0, 0), NotAfter: now.AddDate(10, 0, 0),
			TrustAnchor: true,
			TrustServices: []diagnostic.TrustServiceRecord{{
				ServiceName: "Qualified CA", Status: "granted", Type: "CA/QC",
				Qualifiers: []string{"QCForESig"}, Start: now.AddDate(-10, 0, 0),
			}},
		})).
		Certificate(rsa(diagnostic.CertificateRecord{
			ID: SignerID, Subject: "CN=Alice Signer", Issuer: "CN=Qualified Root CA",
			NotBefore: now.AddDate(-2, 0, 0), NotAfter: now.AddDate(1, 0, 0),
			Chain: []string{RootID},
		})).
		Certificate(rsa(diagnostic.CertificateRecord{
			ID: TSAID, Subject: "CN=Time-Stamping Unit", Issuer: "CN=Qualified Root CA",
			NotBefore: now.AddDate(-5, 0, 0), NotAfter: now.AddDate(5, 0, 0),
			Chain: []string{RootID},
		})).
		Certificate(rsa(diagnostic.CertificateRecord{
			ID: ResponderID, Subject: "CN=OCSP Responder", Issuer: "CN=Qualified Root CA",
			NotBefore: now.AddDate(-5, 0, 0), NotAfter: now.AddDate(5, 0, 0),
			Chain: []string{RootID}, RevocationCheckExempt: true,
		})).
		Revocation(OCSP(SignerOCSP, SignerID, now.Add(-time.Hour))).
		Revocation(OCSP(TSAOCSP, TSAID, now.Add(-time.Hour)))
}

// WithSignature adds an intact signature by the signer certificate.
func (b *Builder) WithSignature() *Builder {
	return b.Signature(diagnostic.SignatureRecord{
		ID:                   SignatureID,
		SigningCertificateID: SignerID,
		SignatureIntact:      true,
		DigestAlgorithm:      "SHA256",
		EncryptionAlgorithm:  "RSA",
	})
}

// WithTimestamp adds an intact timestamp produced at at by the TSA, covering ids.
func (b *Builder) WithTimestamp(id string, typ diagnostic.TimestampType, at time.Time, ids ...string) *Builder {
	return b.Timestamp(diagnostic.TimestampRecord{
		ID:                   id,
		Type:                 typ,
		ProductionTime:       at,
		SigningCertificateID: TSAID,
		CoveredIDs:           ids,
		MessageImprintIntact: true,
		SignatureIntact:      true,
		DigestAlgorithm:      "SHA256",
		EncryptionAlgorithm:  "RSA",
	})
}

// RevokeSigner marks the signer's OCSP response as revoked at at.
func (b *Builder) RevokeSigner(at time.Time) *Builder {
	r := b.RevocationByID(SignerOCSP)
	r.Status = diagnostic.StatusRevoked
	r.RevocationDate = Ptr(at)
	r.Reason = "keyCompromise"
	return b
}
