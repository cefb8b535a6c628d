// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	x509certs "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs"
)

// ErrIssuerNotFound is returned when a chain cannot be completed up to a
// self-signed certificate from the supplied candidates.
var ErrIssuerNotFound = errors.New("x509chain: issuer not found")

// Chain manages an ordered [X.509] certificate chain, leaf first.
//
// [X.509]: https://grokipedia.com/page/X.509
type Chain struct {
	mu    sync.RWMutex
	Certs []*x509.Certificate
	*x509certs.Certificate
}

// New creates a new Chain starting at cert.
//
// Parameters:
//   - cert: Starting certificate (leaf)
//
// Returns:
//   - *Chain: New Chain instance
func New(cert *x509.Certificate) *Chain {
	return &Chain{
		Certs:       []*x509.Certificate{cert},
		Certificate: x509certs.New(),
	}
}

// Resolve completes the chain from candidates, the way a validator does offline:
// each step appends the candidate whose key verifies the signature of the current
// last certificate, until a self-signed certificate is reached.
//
// Parameters:
//   - candidates: Certificates that may issue members of the chain, in any order
//
// Returns:
//   - error: [ErrIssuerNotFound] if the chain stops below a self-signed certificate.
//     The certificates resolved so far are kept.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Resolve(candidates []*x509.Certificate) error {
	for {
		ch.mu.RLock()
		last := ch.Certs[len(ch.Certs)-1]
		ch.mu.RUnlock()

		if ch.IsRootNode(last) {
			return nil
		}

		issuer := ch.findIssuerForCertificate(last, candidates)
		if issuer == nil {
			return fmt.Errorf("%w: %s", ErrIssuerNotFound, last.Subject)
		}

		ch.mu.Lock()
		ch.Certs = append(ch.Certs, issuer)
		ch.mu.Unlock()
	}
}

// IsSelfSigned checks if a certificate is self-signed.
//
// It verifies the certificate's signature against itself.
func (ch *Chain) IsSelfSigned(cert *x509.Certificate) bool {
	return cert.CheckSignatureFrom(cert) == nil
}

// IsRootNode determines if a certificate is a root node in the chain.
func (ch *Chain) IsRootNode(cert *x509.Certificate) bool {
	return ch.IsSelfSigned(cert)
}

// FilterIntermediates filters out the root and leaf certificates, returning only intermediates.
//
// Returns:
//   - []*x509.Certificate: Slice of intermediate certificates, or nil if none
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) FilterIntermediates() []*x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) <= 2 {
		return nil // No intermediates if 2 or fewer certs
	}
	return ch.Certs[1 : len(ch.Certs)-1] // Skip the first (leaf) and last (root)
}

// VerifyChain checks the chain as a present-time validator would at the given
// instant: the last certificate is the only root and the certificates between
// the leaf and the root are the only intermediates.
//
// Parameters:
//   - at: Verification time; a zero value means now
//
// Returns:
//   - error: The original verification error, preserving its diagnostic detail
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) VerifyChain(at time.Time) error {
	intermediates := x509.NewCertPool()
	for _, cert := range ch.FilterIntermediates() {
		intermediates.AddCert(cert)
	}

	ch.mu.RLock()
	leaf, last := ch.Certs[0], ch.Certs[len(ch.Certs)-1]
	ch.mu.RUnlock()

	roots := x509.NewCertPool()
	roots.AddCert(last)

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   at,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if _, err := leaf.Verify(opts); err != nil {
		return err
	}
	return nil
}

// PEM encodes the chain, leaf first, as concatenated PEM certificates.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) PEM() []byte {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.EncodeMultiplePEM(ch.Certs)
}

// Records converts the chain into diagnostic certificate records. Each record
// lists the identifiers of its issuers from the direct issuer upward. A
// self-signed last certificate becomes the trust anchor; trustedStore marks it as
// coming from a local store instead of a trusted list.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Records(trustedStore bool) []diagnostic.CertificateRecord {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	ids := make([]string, len(ch.Certs))
	for i, cert := range ch.Certs {
		ids[i] = x509certs.ID(cert)
	}

	records := make([]diagnostic.CertificateRecord, len(ch.Certs))
	for i, cert := range ch.Certs {
		rec := x509certs.ToRecord(cert)
		if i+1 < len(ids) {
			rec.Chain = append([]string(nil), ids[i+1:]...)
		}
		if i == len(ch.Certs)-1 && ch.IsRootNode(cert) {
			rec.TrustAnchor = true
			rec.TrustedStore = trustedStore
		}
		records[i] = rec
	}
	return records
}

// issuerOf returns the chain member directly above cert, or nil.
func (ch *Chain) issuerOf(cert *x509.Certificate) *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	for i, c := range ch.Certs {
		if c.Equal(cert) {
			if i+1 < len(ch.Certs) {
				return ch.Certs[i+1]
			}
			if ch.IsSelfSigned(c) {
				return c
			}
			return nil
		}
	}
	return nil
}

// findIssuerForCertificate finds the candidate that issued cert. Candidates
// already in the chain are skipped so that cross-signed loops terminate.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) findIssuerForCertificate(cert *x509.Certificate, candidates []*x509.Certificate) *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	for _, potentialIssuer := range candidates {
		if potentialIssuer.Equal(cert) || ch.contains(potentialIssuer) {
			continue
		}
		if err := cert.CheckSignatureFrom(potentialIssuer); err == nil {
			return potentialIssuer
		}
	}
	return nil
}

func (ch *Chain) contains(cert *x509.Certificate) bool { return inChain(ch.Certs, cert) }
