// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package diagnostic

import (
	"errors"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/helper/codec"
)

var (
	// ErrNoDiagnosticData indicates that a run was started without any input.
	ErrNoDiagnosticData = errors.New("diagnostic: no diagnostic data")

	// ErrNoCertificates indicates that the input contains no certificates at all.
	ErrNoCertificates = errors.New("diagnostic: no certificates in diagnostic data")

	// ErrDuplicateID indicates that two records share an identifier.
	ErrDuplicateID = errors.New("diagnostic: duplicate identifier")

	// ErrMissingID indicates a record without an identifier.
	ErrMissingID = errors.New("diagnostic: record without identifier")

	// ErrUnknownCertificate indicates a reference to a certificate absent from the input.
	ErrUnknownCertificate = errors.New("diagnostic: unknown certificate")
)

// Index is a read-only lookup view over DiagnosticData.
//
// Thread Safety: Index is immutable after construction and safe for concurrent reads.
type Index struct {
	data         *DiagnosticData
	certificates map[string]*CertificateRecord
	revocations  map[string][]*RevocationRecord
	revocationBy map[string]*RevocationRecord
	timestamps   map[string]*TimestampRecord
	signatures   map[string]*SignatureRecord
}

// NewIndex validates data and builds lookup tables over it.
//
// Returns:
//   - *Index: The lookup view
//   - error: ErrNoDiagnosticData, ErrNoCertificates, ErrMissingID, ErrDuplicateID or
//     ErrUnknownCertificate, wrapped with the offending identifier
func NewIndex(data *DiagnosticData) (*Index, error) {
	if data == nil {
		return nil, ErrNoDiagnosticData
	}
	if len(data.Certificates) == 0 {
		return nil, ErrNoCertificates
	}

	idx := &Index{
		data:         data,
		certificates: make(map[string]*CertificateRecord, len(data.Certificates)),
		revocations:  make(map[string][]*RevocationRecord),
		revocationBy: make(map[string]*RevocationRecord, len(data.Revocations)),
		timestamps:   make(map[string]*TimestampRecord, len(data.Timestamps)),
		signatures:   make(map[string]*SignatureRecord, len(data.Signatures)),
	}

	seen := make(map[string]struct{})
	claim := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s", ErrMissingID, kind)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s %q", ErrDuplicateID, kind, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for i := range data.Certificates {
		c := &data.Certificates[i]
		if err := claim("certificate", c.ID); err != nil {
			return nil, err
		}
		idx.certificates[c.ID] = c
	}
	for i := range data.Certificates {
		for _, issuer := range data.Certificates[i].Chain {
			if _, ok := idx.certificates[issuer]; !ok {
				return nil, fmt.Errorf("%w: %q in chain of %q", ErrUnknownCertificate, issuer, data.Certificates[i].ID)
			}
		}
	}

	for i := range data.Revocations {
		r := &data.Revocations[i]
		if err := claim("revocation", r.ID); err != nil {
			return nil, err
		}
		if _, ok := idx.certificates[r.CertificateID]; !ok {
			return nil, fmt.Errorf("%w: %q targeted by revocation %q", ErrUnknownCertificate, r.CertificateID, r.ID)
		}
		idx.revocations[r.CertificateID] = append(idx.revocations[r.CertificateID], r)
		idx.revocationBy[r.ID] = r
	}

	for i := range data.Timestamps {
		ts := &data.Timestamps[i]
		if err := claim("timestamp", ts.ID); err != nil {
			return nil, err
		}
		if _, ok := idx.certificates[ts.SigningCertificateID]; !ok {
			return nil, fmt.Errorf("%w: %q signing timestamp %q", ErrUnknownCertificate, ts.SigningCertificateID, ts.ID)
		}
		idx.timestamps[ts.ID] = ts
	}

	for i := range data.Signatures {
		s := &data.Signatures[i]
		if err := claim("signature", s.ID); err != nil {
			return nil, err
		}
		if _, ok := idx.certificates[s.SigningCertificateID]; !ok {
			return nil, fmt.Errorf("%w: %q signing signature %q", ErrUnknownCertificate, s.SigningCertificateID, s.ID)
		}
		idx.signatures[s.ID] = s
	}

	return idx, nil
}

// Data returns the indexed input.
func (i *Index) Data() *DiagnosticData { return i.data }

// ValidationTime returns the run's "now".
func (i *Index) ValidationTime() time.Time { return i.data.ValidationTime }

// Certificate looks up a certificate by identifier.
func (i *Index) Certificate(id string) (*CertificateRecord, bool) {
	c, ok := i.certificates[id]
	return c, ok
}

// Revocation looks up a revocation record by identifier.
func (i *Index) Revocation(id string) (*RevocationRecord, bool) {
	r, ok := i.revocationBy[id]
	return r, ok
}

// Revocations returns the revocation candidates about certID, in input order.
func (i *Index) Revocations(certID string) []*RevocationRecord {
	return i.revocations[certID]
}

// Timestamp looks up a timestamp by identifier.
func (i *Index) Timestamp(id string) (*TimestampRecord, bool) {
	ts, ok := i.timestamps[id]
	return ts, ok
}

// Signature looks up a signature by identifier.
func (i *Index) Signature(id string) (*SignatureRecord, bool) {
	s, ok := i.signatures[id]
	return s, ok
}

// Chain returns the certificate followed by its issuers, leaf first.
// It returns false if certID is unknown.
func (i *Index) Chain(certID string) ([]*CertificateRecord, bool) {
	leaf, ok := i.certificates[certID]
	if !ok {
		return nil, false
	}
	chain := make([]*CertificateRecord, 0, len(leaf.Chain)+1)
	chain = append(chain, leaf)
	for _, id := range leaf.Chain {
		chain = append(chain, i.certificates[id])
	}
	return chain, true
}

// Load reads diagnostic data from a JSON or YAML file and validates it.
func Load(path string) (*DiagnosticData, error) {
	data := &DiagnosticData{}
	if err := codec.LoadFile(path, data); err != nil {
		return nil, fmt.Errorf("diagnostic: %w", err)
	}
	if _, err := NewIndex(data); err != nil {
		return nil, err
	}
	return data, nil
}
