// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
)

var (
	// ErrInvalidBlockType indicates that the PEM block type is not the expected certificate type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePKCS7 indicates a failure to parse PKCS7 formatted data.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificates indicates empty input.
	ErrNoCertificates = errors.New("x509certs: no certificates found")

	// ErrNoCertificatesInPKCS indicates that no certificates were found in the PKCS7 data.
	ErrNoCertificatesInPKCS = errors.New("x509certs: no certificates found in PKCS7 data")
)

// Certificate decodes and encodes [X.509] certificates for the diagnostic data
// builders. Inputs may be PEM, DER, or PKCS7 certificate bundles.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct {
	certBlockType string
	pkcs7Types    []string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType: "CERTIFICATE",
		pkcs7Types:    []string{"PKCS7", "CMS"},
	}
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

func (c *Certificate) isPKCS7Block(blockType string) bool {
	for _, t := range c.pkcs7Types {
		if blockType == t {
			return true
		}
	}
	return false
}

// parsePKCS7 extracts every certificate of a PKCS7 bundle.
func parsePKCS7(der []byte) ([]*x509.Certificate, error) {
	p, err := pkcs7.ParsePKCS7(der)
	if err != nil {
		return nil, ErrParsePKCS7
	}
	if len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificatesInPKCS
	}
	return p.Content.SignedData.Certificates, nil
}

// DecodeMultiple decodes every certificate of data: concatenated PEM blocks
// (certificate or PKCS7), concatenated DER certificates, or a DER PKCS7 bundle.
// A successful decode always yields at least one certificate.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoCertificates
	}
	if c.IsPEM(data) {
		var certs []*x509.Certificate

		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}

			switch {
			case block.Type == c.certBlockType:
				cert, err := x509.ParseCertificate(block.Bytes)
				if err != nil {
					return nil, ErrParseCertificate
				}
				certs = append(certs, cert)
			case c.isPKCS7Block(block.Type):
				bundle, err := parsePKCS7(block.Bytes)
				if err != nil {
					return nil, err
				}
				certs = append(certs, bundle...)
			default:
				return nil, ErrInvalidBlockType
			}
			data = rest
		}

		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err == nil && len(certs) > 0 {
		return certs, nil
	}
	if bundle, perr := parsePKCS7(data); perr == nil {
		return bundle, nil
	}
	return nil, ErrParseCertificate
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	block := pem.Block{
		Type:  c.certBlockType,
		Bytes: cert.Raw,
	}
	return pem.EncodeToMemory(&block)
}

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}

	return data
}
