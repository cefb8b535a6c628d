// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trustlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/helper/codec"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
)

var (
	// ErrInvalidList is returned for a trusted list without issue date or entries.
	ErrInvalidList = errors.New("trustlist: invalid trusted list")
	// ErrNoSources is returned when a refresh has nothing to fetch.
	ErrNoSources = errors.New("trustlist: no sources configured")
)

// Entry binds trust services to one certificate, identified by its identifier in
// the diagnostic data or by its subject distinguished name.
type Entry struct {
	CertificateID string                          `json:"certificateId,omitempty" yaml:"certificateId,omitempty"`
	Subject       string                          `json:"subject,omitempty" yaml:"subject,omitempty"`
	Services      []diagnostic.TrustServiceRecord `json:"services" yaml:"services"`
}

// matches reports whether e designates cert. Subjects compare case-insensitively
// with insignificant whitespace removed.
func (e *Entry) matches(cert *diagnostic.CertificateRecord) bool {
	if e.CertificateID != "" {
		return e.CertificateID == cert.ID
	}
	return e.Subject != "" && normalizeDN(e.Subject) == normalizeDN(cert.Subject)
}

func normalizeDN(dn string) string {
	parts := strings.Split(dn, ",")
	for i, p := range parts {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			parts[i] = strings.ToLower(strings.TrimSpace(p))
			continue
		}
		parts[i] = strings.ToLower(strings.TrimSpace(k)) + "=" + strings.ToLower(strings.TrimSpace(v))
	}
	return strings.Join(parts, ",")
}

// List is one trusted list as published by a scheme operator.
type List struct {
	Territory  string     `json:"territory" yaml:"territory"`
	IssuedAt   time.Time  `json:"issuedAt" yaml:"issuedAt"`
	NextUpdate *time.Time `json:"nextUpdate,omitempty" yaml:"nextUpdate,omitempty"`
	Entries    []Entry    `json:"entries" yaml:"entries"`
}

func (l *List) validate() error {
	if l.IssuedAt.IsZero() {
		return fmt.Errorf("%w: %s: missing issuedAt", ErrInvalidList, l.Territory)
	}
	for i, e := range l.Entries {
		if e.CertificateID == "" && e.Subject == "" {
			return fmt.Errorf("%w: %s: entry %d designates no certificate", ErrInvalidList, l.Territory, i)
		}
	}
	return nil
}

// Source provides trusted lists.
type Source interface {
	// Name identifies the source in errors and logs.
	Name() string
	// Fetch returns the current list. Implementations must honor ctx cancellation.
	Fetch(ctx context.Context) (*List, error)
}

// FileSource reads a trusted list from a JSON or YAML file.
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s FileSource) Name() string { return s.Path }

// Fetch loads and validates the file.
func (s FileSource) Fetch(ctx context.Context) (*List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var l List
	if err := codec.LoadFile(s.Path, &l); err != nil {
		return nil, err
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}
