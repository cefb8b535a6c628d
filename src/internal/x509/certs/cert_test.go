// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs/certtest"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIEmTCCBD+gAwIBAgIRANFjRCmF+Y2bUYHbhxwkEpowCgYIKoZIzj0EAwIwgY8x
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`

	invalidPKCS7 = `
-----BEGIN PKCS7-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END PKCS7-----
`
)

func pki(t *testing.T) (root, leaf *certtest.Issued) {
	t.Helper()
	root = certtest.Root(t, "Test Root CA", now.AddDate(-10, 0, 0), now.AddDate(10, 0, 0))
	leaf = certtest.Leaf(t, root, "Test Signer", now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0))
	return root, leaf
}

func TestDecodeMultiple(t *testing.T) {
	decoder := x509certs.New()
	root, leaf := pki(t)

	tests := []struct {
		name      string
		input     []byte
		wantCount int
		wantErr   error
	}{
		{name: "Single PEM Certificate", input: decoder.EncodePEM(leaf.Cert), wantCount: 1},
		{name: "Single DER Certificate", input: leaf.Cert.Raw, wantCount: 1},
		{name: "PEM Bundle", input: decoder.EncodeMultiplePEM([]*x509.Certificate{leaf.Cert, root.Cert}), wantCount: 2},
		{name: "Concatenated DER", input: append(append([]byte{}, leaf.Cert.Raw...), root.Cert.Raw...), wantCount: 2},
		{name: "Invalid PEM Type", input: []byte(invalidPEM), wantErr: x509certs.ErrInvalidBlockType},
		{name: "Invalid Certificate Data", input: []byte(invalidCERT), wantErr: x509certs.ErrParseCertificate},
		{name: "Invalid PKCS7 Block", input: []byte(invalidPKCS7), wantErr: x509certs.ErrParsePKCS7},
		{name: "Invalid DER Data", input: []byte("not a certificate"), wantErr: x509certs.ErrParseCertificate},
		{name: "Empty Input", input: []byte{}, wantErr: x509certs.ErrNoCertificates},
		{name: "Whitespace Only", input: []byte(" \n\t\n"), wantErr: x509certs.ErrNoCertificates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := decoder.DecodeMultiple(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, certs, tt.wantCount)
			assert.True(t, leaf.Cert.Equal(certs[0]), "bundle order is preserved")
		})
	}
}

func TestIsPEM(t *testing.T) {
	_, leaf := pki(t)
	decoder := x509certs.New()

	tests := []struct {
		name  string
		input []byte
		want  bool
	}{
		{name: "Valid PEM", input: decoder.EncodePEM(leaf.Cert), want: true},
		{name: "Invalid PEM", input: []byte("not a pem block")},
		{name: "Empty Input", input: []byte("")},
		{name: "PEM-like but invalid base64", input: []byte("-----BEGIN CERTIFICATE-----\ninvalid-base64\n-----END CERTIFICATE-----")},
		{name: "DER format (binary)", input: leaf.Cert.Raw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decoder.IsPEM(tt.input))
		})
	}
}

func TestEncodeMultiplePEM(t *testing.T) {
	decoder := x509certs.New()
	root, leaf := pki(t)

	tests := []struct {
		name       string
		certs      []*x509.Certificate
		wantBlocks int
	}{
		{name: "Single Certificate", certs: []*x509.Certificate{leaf.Cert}, wantBlocks: 1},
		{name: "Chain", certs: []*x509.Certificate{leaf.Cert, root.Cert}, wantBlocks: 2},
		{name: "Empty List", certs: []*x509.Certificate{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := decoder.EncodeMultiplePEM(tt.certs)
			if tt.wantBlocks == 0 {
				assert.Empty(t, encoded)
				return
			}

			blocks := 0
			for rest := encoded; len(rest) > 0; {
				block, remainder := pem.Decode(rest)
				if block == nil {
					break
				}
				assert.Equal(t, "CERTIFICATE", block.Type)
				blocks++
				rest = remainder
			}
			assert.Equal(t, tt.wantBlocks, blocks)
		})
	}
}
