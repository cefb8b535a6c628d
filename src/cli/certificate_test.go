// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli_test

import (
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/fixture"
	x509certs "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs/certtest"
	x509chain "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/chain"
)

// material writes a leaf, intermediate and root bundle, one CRL per CA and an
// OCSP response about the leaf.
type material struct {
	dir               string
	bundle            string
	leafCRL, interCRL string
	leafOCSP          string
	delegatedOCSP     string
	leaf, inter, root *certtest.Issued
}

func newMaterial(t *testing.T, revokeLeaf bool) material {
	t.Helper()
	now := fixture.Now
	m := material{dir: t.TempDir()}
	m.root = certtest.Root(t, "Test Root CA", now.AddDate(-10, 0, 0), now.AddDate(10, 0, 0))
	m.inter = certtest.Intermediate(t, m.root, "Test Issuing CA", now.AddDate(-5, 0, 0), now.AddDate(5, 0, 0))
	m.leaf = certtest.Leaf(t, m.inter, "Test Signer", now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0))

	// Issuers out of order so Resolve has to search the bundle.
	bundle := x509certs.New().EncodeMultiplePEM([]*x509.Certificate{m.leaf.Cert, m.root.Cert, m.inter.Cert})
	m.bundle = m.write(t, "bundle.pem", bundle)

	var revoked []x509.RevocationListEntry
	if revokeLeaf {
		revoked = append(revoked, x509.RevocationListEntry{
			SerialNumber: m.leaf.Cert.SerialNumber, RevocationTime: now.AddDate(0, -1, 0), ReasonCode: 1,
		})
	}
	// nextUpdate past each certificate's expiry so the CRLs cover them.
	leafCRL := certtest.CRL(t, m.inter, now.Add(-time.Hour), now.AddDate(2, 0, 0), revoked...)
	m.leafCRL = m.write(t, "leaf.crl", pem.EncodeToMemory(&pem.Block{Type: "X509 CRL", Bytes: leafCRL}))
	m.interCRL = m.write(t, "inter.crl", certtest.CRL(t, m.root, now.Add(-time.Hour), now.AddDate(6, 0, 0)))
	m.leafOCSP = m.write(t, "leaf.ocsp", certtest.OCSP(t, m.inter, m.inter, m.leaf, ocsp.Response{
		Status: ocsp.Good, ThisUpdate: now.Add(-time.Hour), NextUpdate: now.AddDate(0, 0, 1),
		ExtraExtensions: []pkix.Extension{certHash(t, m.leaf.Cert)},
	}))
	responder := certtest.Leaf(t, m.inter, "Test OCSP Responder", now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0), certtest.WithOCSPNoCheck())
	m.delegatedOCSP = m.write(t, "delegated.ocsp", certtest.OCSP(t, m.inter, responder, m.leaf, ocsp.Response{
		Status: ocsp.Good, ThisUpdate: now.Add(-time.Hour), NextUpdate: now.AddDate(0, 0, 1),
		ExtraExtensions: []pkix.Extension{certHash(t, m.leaf.Cert)},
	}))
	return m
}

// certHash binds an OCSP response to cert through the certHash extension.
func certHash(t *testing.T, cert *x509.Certificate) pkix.Extension {
	t.Helper()
	sum := sha256.Sum256(cert.Raw)
	value, err := asn1.Marshal(struct {
		Algorithm pkix.AlgorithmIdentifier
		Hash      []byte
	}{
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}},
		Hash:      sum[:],
	})
	require.NoError(t, err)
	return pkix.Extension{Id: asn1.ObjectIdentifier{1, 3, 36, 8, 3, 13}, Value: value}
}

func (m material) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(m.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestCertificate(t *testing.T) {
	good := newMaterial(t, false)
	revoked := newMaterial(t, true)
	diag := writeDiagnostic(t, fixture.QualifiedPKI(fixture.Now).WithSignature())
	at := "2026-06-01T12:00:00Z"

	tests := []struct {
		name        string
		args        []string
		wantErr     error
		anyErr      bool
		contains    []string
		notContains []string
	}{
		{name: "No input", args: []string{"certificate"}, wantErr: cli.ErrCertificateInput},
		{name: "Diagnostic without id", args: []string{"certificate", "-f", diag}, wantErr: cli.ErrCertificateInput},
		{name: "Both inputs", args: []string{"certificate", "-f", diag, "--id", fixture.SignerID, "-c", good.bundle}, anyErr: true},
		{name: "Unknown certificate id", args: []string{"certificate", "-f", diag, "--id", "nobody"}, anyErr: true},
		{
			name:     "From diagnostic data",
			args:     []string{"certificate", "-f", diag, "--id", fixture.SignerID},
			contains: []string{"CERTIFICATE", "signer", "PASSED"},
		},
		{
			name:        "From certificates with CRLs",
			args:        []string{"certificate", "-c", good.bundle, "--crl", good.leafCRL, "--crl", good.interCRL, "--trusted-store", "--time", at},
			contains:    []string{x509certs.ID(good.leaf.Cert), "PASSED"},
			notContains: []string{"INDETERMINATE"},
		},
		{
			name:     "From certificates with OCSP",
			args:     []string{"certificate", "-c", good.bundle, "--ocsp", good.leafOCSP, "--crl", good.interCRL, "--trusted-store", "--time", at},
			contains: []string{x509certs.ID(good.leaf.Cert), "PASSED"},
		},
		{
			name:     "Revoked leaf without proof of existence",
			args:     []string{"certificate", "-c", revoked.bundle, "--crl", revoked.leafCRL, "--crl", revoked.interCRL, "--trusted-store", "--time", at},
			contains: []string{"INDETERMINATE", "REVOKED_NO_POE"},
		},
		{
			name:     "Without revocation data",
			args:     []string{"certificate", "-c", good.bundle, "--trusted-store", "--time", at},
			contains: []string{"INDETERMINATE", "TRY_LATER"},
		},
		{
			name:        "From certificates with a delegated OCSP responder",
			args:        []string{"certificate", "-c", good.bundle, "--ocsp", good.delegatedOCSP, "--crl", good.interCRL, "--trusted-store", "--time", at},
			contains:    []string{x509certs.ID(good.leaf.Cert), "PASSED"},
			notContains: []string{"INDETERMINATE"},
		},
		{
			name:     "Show chain as tree",
			args:     []string{"certificate", "-c", revoked.bundle, "--crl", revoked.leafCRL, "--crl", revoked.interCRL, "--trusted-store", "--show-chain", "-o", "tree", "--time", at},
			contains: []string{"[✗] Test Signer (End-Entity Certificate): revoked", "[✓] Test Root CA (Root CA Certificate): trust anchor"},
		},
		{
			name:     "Show chain as table",
			args:     []string{"certificate", "-c", revoked.bundle, "--crl", revoked.leafCRL, "--crl", revoked.interCRL, "--trusted-store", "--show-chain", "--time", at},
			contains: []string{"End-Entity Certificate", "Root CA Certificate", "Test Issuing CA", "revoked"},
		},
		{
			name:     "Show chain as JSON",
			args:     []string{"certificate", "-c", revoked.bundle, "--crl", revoked.leafCRL, "--crl", revoked.interCRL, "--trusted-store", "--show-chain", "-o", "json", "--time", at},
			contains: []string{`"chainLength": 3`, `"revocationStatus": "revoked"`},
		},
		{
			name:    "Empty certificate file",
			args:    []string{"certificate", "-c", good.write(t, "empty.pem", nil), "--time", at},
			wantErr: x509certs.ErrNoCertificates,
		},
		{
			name:    "CRL of another PKI",
			args:    []string{"certificate", "-c", good.bundle, "--crl", revoked.leafCRL, "--time", at},
			wantErr: x509chain.ErrRevocationSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			case tt.anyErr:
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestCertificatePartialChain(t *testing.T) {
	m := newMaterial(t, false)
	bundle := m.write(t, "leaf-only.pem", x509certs.New().EncodePEM(m.leaf.Cert))

	out, logs, err := execute(t, "certificate", "-c", bundle, "--time", "2026-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, logs, "issuer not found")
	assert.Contains(t, out, "NO_CERTIFICATE_CHAIN_FOUND")
}

func TestCertificateVerifyWarning(t *testing.T) {
	m := newMaterial(t, false)

	_, logs, err := execute(t, "certificate", "-c", m.bundle, "--crl", m.leafCRL, "--crl", m.interCRL, "--trusted-store", "--time", "2028-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, logs, "expired or is not yet valid")
}

func TestCertificateSaveChain(t *testing.T) {
	m := newMaterial(t, false)
	saved := filepath.Join(m.dir, "chain.pem")

	_, _, err := execute(t, "certificate", "-c", m.bundle, "--trusted-store", "--save-chain", saved, "--time", "2026-06-01T12:00:00Z")
	require.NoError(t, err)

	raw, err := os.ReadFile(saved)
	require.NoError(t, err)
	certs, err := x509certs.New().DecodeMultiple(raw)
	require.NoError(t, err)
	require.Len(t, certs, 3)
	assert.True(t, certs[0].Equal(m.leaf.Cert))
	assert.True(t, certs[1].Equal(m.inter.Cert))
	assert.True(t, certs[2].Equal(m.root.Cert))
}
