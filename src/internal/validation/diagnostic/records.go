// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package diagnostic

import "time"

// RevocationType distinguishes CRL entries from OCSP responses.
type RevocationType string

const (
	// RevocationCRL is a certificate revocation list entry.
	RevocationCRL RevocationType = "CRL"
	// RevocationOCSP is an OCSP response.
	RevocationOCSP RevocationType = "OCSP"
)

// RevocationStatus is the status a revocation record reports for its target.
type RevocationStatus string

const (
	// StatusGood means the target certificate is not revoked.
	StatusGood RevocationStatus = "good"
	// StatusRevoked means the target certificate is revoked (or on hold).
	StatusRevoked RevocationStatus = "revoked"
	// StatusUnknown means the responder could not tell; the data is not usable.
	StatusUnknown RevocationStatus = "unknown"
)

// ReasonCertificateHold is the revocation reason of a suspended certificate.
const ReasonCertificateHold = "certificateHold"

// TimestampType classifies a timestamp by what it covers.
type TimestampType string

const (
	TimestampSignature TimestampType = "SIGNATURE_TIMESTAMP"
	TimestampContent   TimestampType = "CONTENT_TIMESTAMP"
	TimestampArchive   TimestampType = "ARCHIVE_TIMESTAMP"
)

// TrustServiceRecord is one trusted-list entry bound to a certificate, valid over
// the half-open interval [Start, End).
type TrustServiceRecord struct {
	// ServiceName is informational only.
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	Status      string `json:"status" yaml:"status"`
	Type        string `json:"type" yaml:"type"`
	// Qualifiers lists additional service information such as "QCForESig".
	Qualifiers []string   `json:"qualifiers,omitempty" yaml:"qualifiers,omitempty"`
	Start      time.Time  `json:"start" yaml:"start"`
	End        *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
	// ExpiredCertsRevocationInfo is the service-configured default for how long
	// revocation data keeps covering expired certificates.
	ExpiredCertsRevocationInfo *time.Time `json:"expiredCertsRevocationInfo,omitempty" yaml:"expiredCertsRevocationInfo,omitempty"`
}

// Covers reports whether u lies in [Start, End). A nil End is unbounded.
func (r TrustServiceRecord) Covers(u time.Time) bool {
	if u.Before(r.Start) {
		return false
	}
	return r.End == nil || u.Before(*r.End)
}

// CertificateRecord is a normalized X.509 certificate.
type CertificateRecord struct {
	ID           string    `json:"id" yaml:"id"`
	Subject      string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer       string    `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	SerialNumber string    `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty"`
	NotBefore    time.Time `json:"notBefore" yaml:"notBefore"`
	NotAfter     time.Time `json:"notAfter" yaml:"notAfter"`

	// TrustAnchor marks the certificate as a trust anchor (trusted list or store).
	TrustAnchor bool `json:"trustAnchor,omitempty" yaml:"trustAnchor,omitempty"`
	// TrustedStore marks anchors that come from a local trusted store rather than a
	// trusted list; they are not subject to trust-service checks.
	TrustedStore bool `json:"trustedStore,omitempty" yaml:"trustedStore,omitempty"`
	// Chain holds issuer identifiers ordered from the direct issuer upward.
	Chain []string `json:"chain,omitempty" yaml:"chain,omitempty"`

	TrustServices []TrustServiceRecord `json:"trustServices,omitempty" yaml:"trustServices,omitempty"`
	// TrustServicesStale is set when the trust-service snapshot exceeded its max age.
	TrustServicesStale bool       `json:"trustServicesStale,omitempty" yaml:"trustServicesStale,omitempty"`
	SunsetDate         *time.Time `json:"sunsetDate,omitempty" yaml:"sunsetDate,omitempty"`

	PublicKeyAlgorithm  string `json:"publicKeyAlgorithm,omitempty" yaml:"publicKeyAlgorithm,omitempty"`
	KeySize             int    `json:"keySize,omitempty" yaml:"keySize,omitempty"`
	DigestAlgorithm     string `json:"digestAlgorithm,omitempty" yaml:"digestAlgorithm,omitempty"`
	EncryptionAlgorithm string `json:"encryptionAlgorithm,omitempty" yaml:"encryptionAlgorithm,omitempty"`

	// RevocationCheckExempt is set for certificates carrying id-pkix-ocsp-nocheck.
	RevocationCheckExempt bool `json:"revocationCheckExempt,omitempty" yaml:"revocationCheckExempt,omitempty"`
}

// ValidAt reports whether t lies in [NotBefore, NotAfter].
func (c *CertificateRecord) ValidAt(t time.Time) bool {
	return !t.Before(c.NotBefore) && !t.After(c.NotAfter)
}

// RevocationRecord is a normalized CRL entry or OCSP response about one certificate.
type RevocationRecord struct {
	ID            string           `json:"id" yaml:"id"`
	Type          RevocationType   `json:"type" yaml:"type"`
	CertificateID string           `json:"certificateId" yaml:"certificateId"`
	Status        RevocationStatus `json:"status" yaml:"status"`

	RevocationDate *time.Time `json:"revocationDate,omitempty" yaml:"revocationDate,omitempty"`
	Reason         string     `json:"reason,omitempty" yaml:"reason,omitempty"`

	// SigningCertificateID is the certificate that actually signed the data.
	SigningCertificateID string `json:"signingCertificateId,omitempty" yaml:"signingCertificateId,omitempty"`
	// SignerReference is the signer identity the data itself claims.
	SignerReference string `json:"signerReference,omitempty" yaml:"signerReference,omitempty"`
	// SignerChain is the signer's own certificate chain, signer first.
	SignerChain []string `json:"signerChain,omitempty" yaml:"signerChain,omitempty"`

	ThisUpdate        *time.Time `json:"thisUpdate,omitempty" yaml:"thisUpdate,omitempty"`
	NextUpdate        *time.Time `json:"nextUpdate,omitempty" yaml:"nextUpdate,omitempty"`
	ExpiredCertsOnCRL *time.Time `json:"expiredCertsOnCRL,omitempty" yaml:"expiredCertsOnCRL,omitempty"`
	ArchiveCutoff     *time.Time `json:"archiveCutoff,omitempty" yaml:"archiveCutoff,omitempty"`
	ProductionDate    time.Time  `json:"productionDate" yaml:"productionDate"`

	CertHashPresent bool `json:"certHashPresent,omitempty" yaml:"certHashPresent,omitempty"`
	CertHashMatch   bool `json:"certHashMatch,omitempty" yaml:"certHashMatch,omitempty"`
}

// Known reports whether the record carries a usable status.
func (r *RevocationRecord) Known() bool {
	return r.Status == StatusGood || r.Status == StatusRevoked
}

// Revoked reports whether the record declares its target revoked.
func (r *RevocationRecord) Revoked() bool {
	return r.Status == StatusRevoked
}

// OnHold reports whether the revocation is a suspension.
func (r *RevocationRecord) OnHold() bool {
	return r.Revoked() && r.Reason == ReasonCertificateHold
}

// CertHashOK reports whether a cert-hash extension binds the data to its target.
func (r *RevocationRecord) CertHashOK() bool {
	return r.CertHashPresent && r.CertHashMatch
}

// TimestampRecord is a validated-elsewhere timestamp token with its coverage.
type TimestampRecord struct {
	ID                   string        `json:"id" yaml:"id"`
	Type                 TimestampType `json:"type" yaml:"type"`
	ProductionTime       time.Time     `json:"productionTime" yaml:"productionTime"`
	SigningCertificateID string        `json:"signingCertificateId" yaml:"signingCertificateId"`
	// CoveredIDs lists every token whose existence this timestamp proves.
	CoveredIDs []string `json:"coveredIds,omitempty" yaml:"coveredIds,omitempty"`

	MessageImprintIntact bool   `json:"messageImprintIntact" yaml:"messageImprintIntact"`
	SignatureIntact      bool   `json:"signatureIntact" yaml:"signatureIntact"`
	DigestAlgorithm      string `json:"digestAlgorithm,omitempty" yaml:"digestAlgorithm,omitempty"`
	EncryptionAlgorithm  string `json:"encryptionAlgorithm,omitempty" yaml:"encryptionAlgorithm,omitempty"`
}

// SignatureRecord is a signature whose cryptographic verification was performed upstream.
type SignatureRecord struct {
	ID                   string     `json:"id" yaml:"id"`
	SigningCertificateID string     `json:"signingCertificateId" yaml:"signingCertificateId"`
	ClaimedSigningTime   *time.Time `json:"claimedSigningTime,omitempty" yaml:"claimedSigningTime,omitempty"`
	SignatureIntact      bool       `json:"signatureIntact" yaml:"signatureIntact"`
	DigestAlgorithm      string     `json:"digestAlgorithm,omitempty" yaml:"digestAlgorithm,omitempty"`
	EncryptionAlgorithm  string     `json:"encryptionAlgorithm,omitempty" yaml:"encryptionAlgorithm,omitempty"`
}

// DiagnosticData is the complete, immutable input of one validation run.
type DiagnosticData struct {
	// ValidationTime is "now" for the run; a zero value is replaced by the caller's clock.
	ValidationTime time.Time           `json:"validationTime" yaml:"validationTime"`
	Certificates   []CertificateRecord `json:"certificates" yaml:"certificates"`
	Revocations    []RevocationRecord  `json:"revocations,omitempty" yaml:"revocations,omitempty"`
	Timestamps     []TimestampRecord   `json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
	Signatures     []SignatureRecord   `json:"signatures,omitempty" yaml:"signatures,omitempty"`
}

// TokenIDs returns every identifier the run may need POE for, in input order.
func (d *DiagnosticData) TokenIDs() []string {
	ids := make([]string, 0, len(d.Certificates)+len(d.Revocations)+len(d.Timestamps)+len(d.Signatures))
	for i := range d.Certificates {
		ids = append(ids, d.Certificates[i].ID)
	}
	for i := range d.Revocations {
		ids = append(ids, d.Revocations[i].ID)
	}
	for i := range d.Timestamps {
		ids = append(ids, d.Timestamps[i].ID)
	}
	for i := range d.Signatures {
		ids = append(ids, d.Signatures[i].ID)
	}
	return ids
}
