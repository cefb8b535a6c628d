// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package certtest generates small ECDSA PKIs, CRLs and OCSP responses for tests.
package certtest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"
)

var serial atomic.Int64

// Issued is a generated certificate with its private key.
type Issued struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// Option adjusts a certificate template before signing.
type Option func(*x509.Certificate)

// WithOCSPNoCheck adds the id-pkix-ocsp-nocheck extension.
func WithOCSPNoCheck() Option {
	return func(c *x509.Certificate) {
		c.ExtraExtensions = append(c.ExtraExtensions, pkix.Extension{
			Id:    []int{1, 3, 6, 1, 5, 5, 7, 48, 1, 5},
			Value: []byte{0x05, 0x00},
		})
		c.ExtKeyUsage = append(c.ExtKeyUsage, x509.ExtKeyUsageOCSPSigning)
	}
}

func issue(tb testing.TB, tmpl *x509.Certificate, parent *Issued, opts ...Option) *Issued {
	tb.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(tb, err)

	tmpl.SerialNumber = big.NewInt(serial.Add(1))
	for _, opt := range opts {
		opt(tmpl)
	}

	signer, parentCert := crypto.Signer(key), tmpl
	if parent != nil {
		signer, parentCert = parent.Key, parent.Cert
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parentCert, key.Public(), signer)
	require.NoError(tb, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(tb, err)
	return &Issued{Cert: cert, Key: key}
}

// Root generates a self-signed CA.
func Root(tb testing.TB, cn string, notBefore, notAfter time.Time) *Issued {
	tb.Helper()
	return issue(tb, &x509.Certificate{
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
	}, nil)
}

// Intermediate generates a CA issued by parent.
func Intermediate(tb testing.TB, parent *Issued, cn string, notBefore, notAfter time.Time) *Issued {
	tb.Helper()
	return issue(tb, &x509.Certificate{
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}, parent)
}

// Leaf generates an end-entity certificate issued by parent.
func Leaf(tb testing.TB, parent *Issued, cn string, notBefore, notAfter time.Time, opts ...Option) *Issued {
	tb.Helper()
	return issue(tb, &x509.Certificate{
		Subject:   pkix.Name{CommonName: cn},
		NotBefore: notBefore,
		NotAfter:  notAfter,
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}, parent, opts...)
}

// CRL generates a DER CRL signed by issuer listing revoked.
func CRL(tb testing.TB, issuer *Issued, thisUpdate, nextUpdate time.Time, revoked ...x509.RevocationListEntry) []byte {
	tb.Helper()
	der, err := x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
		Number:                    big.NewInt(serial.Add(1)),
		ThisUpdate:                thisUpdate,
		NextUpdate:                nextUpdate,
		RevokedCertificateEntries: revoked,
	}, issuer.Cert, issuer.Key)
	require.NoError(tb, err)
	return der
}

// OCSP generates a DER OCSP response about cert, signed by responder on behalf of
// issuer. A responder equal to issuer signs directly with the CA key.
func OCSP(tb testing.TB, issuer, responder, cert *Issued, tmpl ocsp.Response) []byte {
	tb.Helper()
	tmpl.SerialNumber = cert.Cert.SerialNumber
	if responder != issuer {
		tmpl.Certificate = responder.Cert
	}
	der, err := ocsp.CreateResponse(issuer.Cert, responder.Cert, tmpl, responder.Key)
	require.NoError(tb, err)
	return der
}
