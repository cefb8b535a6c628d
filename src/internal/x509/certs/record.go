// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"strings"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
)

// oidOCSPNoCheck is id-pkix-ocsp-nocheck (RFC 6960, section 4.2.2.2.1).
var oidOCSPNoCheck = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 5}

// signatureAlgorithms maps x509 signature algorithms to the digest and encryption
// algorithm names used by validation policies.
var signatureAlgorithms = map[x509.SignatureAlgorithm][2]string{
	x509.MD5WithRSA:       {"MD5", "RSA"},
	x509.SHA1WithRSA:      {"SHA1", "RSA"},
	x509.SHA256WithRSA:    {"SHA256", "RSA"},
	x509.SHA384WithRSA:    {"SHA384", "RSA"},
	x509.SHA512WithRSA:    {"SHA512", "RSA"},
	x509.SHA256WithRSAPSS: {"SHA256", "RSASSA-PSS"},
	x509.SHA384WithRSAPSS: {"SHA384", "RSASSA-PSS"},
	x509.SHA512WithRSAPSS: {"SHA512", "RSASSA-PSS"},
	x509.DSAWithSHA1:      {"SHA1", "DSA"},
	x509.DSAWithSHA256:    {"SHA256", "DSA"},
	x509.ECDSAWithSHA1:    {"SHA1", "ECDSA"},
	x509.ECDSAWithSHA256:  {"SHA256", "ECDSA"},
	x509.ECDSAWithSHA384:  {"SHA384", "ECDSA"},
	x509.ECDSAWithSHA512:  {"SHA512", "ECDSA"},
	x509.PureEd25519:      {"SHA512", "Ed25519"},
}

// SignatureAlgorithmNames returns the digest and encryption algorithm names of alg,
// or empty strings when alg is unknown.
func SignatureAlgorithmNames(alg x509.SignatureAlgorithm) (digest, encryption string) {
	names := signatureAlgorithms[alg]
	return names[0], names[1]
}

// ID returns the stable identifier of cert: "C-" followed by the uppercase SHA-256
// fingerprint of its DER encoding.
func ID(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return "C-" + strings.ToUpper(hex.EncodeToString(sum[:]))
}

// PublicKey returns the public key algorithm name and key size in bits.
func PublicKey(cert *x509.Certificate) (string, int) {
	switch key := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return "RSA", key.N.BitLen()
	case *ecdsa.PublicKey:
		return "ECDSA", key.Curve.Params().BitSize
	case ed25519.PublicKey:
		return "Ed25519", 256
	default:
		return cert.PublicKeyAlgorithm.String(), 0
	}
}

// ToRecord converts cert into a diagnostic certificate record identified by [ID].
// Chain placement and trust anchoring are left to the caller.
func ToRecord(cert *x509.Certificate) diagnostic.CertificateRecord {
	keyAlg, keySize := PublicKey(cert)
	digest, encryption := SignatureAlgorithmNames(cert.SignatureAlgorithm)

	rec := diagnostic.CertificateRecord{
		ID:                  ID(cert),
		Subject:             cert.Subject.String(),
		Issuer:              cert.Issuer.String(),
		SerialNumber:        cert.SerialNumber.String(),
		NotBefore:           cert.NotBefore.UTC(),
		NotAfter:            cert.NotAfter.UTC(),
		PublicKeyAlgorithm:  keyAlg,
		KeySize:             keySize,
		DigestAlgorithm:     digest,
		EncryptionAlgorithm: encryption,
	}
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oidOCSPNoCheck) {
			rec.RevocationCheckExempt = true
			break
		}
	}
	return rec
}
