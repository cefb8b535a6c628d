// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trustlist

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
)

// CacheMetrics tracks lookup cache usage.
type CacheMetrics struct {
	Size      int64 // Current number of memoized lookups
	Hits      int64 // Lookups answered from the cache
	Misses    int64 // Lookups that scanned the entries
	Evictions int64 // LRU evictions
}

// Snapshot is an immutable merge of trusted lists taken at one refresh.
//
// Thread Safety: Safe for concurrent use.
type Snapshot struct {
	lists    []*List
	entries  []Entry
	issuedAt time.Time
	// nextUpdate is the earliest announced next update, if any list announces one.
	nextUpdate *time.Time
	maxAge     time.Duration

	cache     *lru.Cache[string, []diagnostic.TrustServiceRecord]
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewSnapshot merges lists. Entries of earlier lists win when several lists
// designate the same certificate.
func NewSnapshot(lists []*List, maxAge time.Duration, cacheSize int) (*Snapshot, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	s := &Snapshot{lists: lists, maxAge: maxAge}
	cache, err := lru.NewWithEvict(cacheSize, func(string, []diagnostic.TrustServiceRecord) {
		s.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("trustlist: lookup cache: %w", err)
	}
	s.cache = cache

	for _, l := range lists {
		if err := l.validate(); err != nil {
			return nil, err
		}
		if s.issuedAt.IsZero() || l.IssuedAt.Before(s.issuedAt) {
			s.issuedAt = l.IssuedAt
		}
		if l.NextUpdate != nil && (s.nextUpdate == nil || l.NextUpdate.Before(*s.nextUpdate)) {
			next := *l.NextUpdate
			s.nextUpdate = &next
		}
		s.entries = append(s.entries, l.Entries...)
	}
	return s, nil
}

// IssuedAt returns the issue date of the oldest merged list.
func (s *Snapshot) IssuedAt() time.Time { return s.issuedAt }

// Territories lists the territories of the merged lists in source order.
func (s *Snapshot) Territories() []string {
	out := make([]string, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, l.Territory)
	}
	return out
}

// Stale reports whether the snapshot can no longer be trusted to be complete at
// now: it is older than the max age, or a list passed its announced next update.
func (s *Snapshot) Stale(now time.Time) bool {
	if s.maxAge > 0 && now.Sub(s.issuedAt) > s.maxAge {
		return true
	}
	return s.nextUpdate != nil && now.After(*s.nextUpdate)
}

// Lookup returns the trust services designating cert. The answer, including the
// absence of services, is memoized per certificate identifier.
func (s *Snapshot) Lookup(cert *diagnostic.CertificateRecord) ([]diagnostic.TrustServiceRecord, bool) {
	if records, ok := s.cache.Get(cert.ID); ok {
		s.hits.Add(1)
		return records, len(records) > 0
	}
	s.misses.Add(1)

	var records []diagnostic.TrustServiceRecord
	for i := range s.entries {
		if s.entries[i].matches(cert) {
			records = s.entries[i].Services
			break
		}
	}
	s.cache.Add(cert.ID, records)
	return records, len(records) > 0
}

// Metrics returns the lookup cache counters.
func (s *Snapshot) Metrics() CacheMetrics {
	return CacheMetrics{
		Size:      int64(s.cache.Len()),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
}

// Attach returns a copy of data whose certificates carry the snapshot's trust
// services. Certificates that already carry services keep them. When the snapshot
// is stale at now, every certificate that received services from it is flagged
// stale, as is every anchor outside the trusted store, so that chain validation
// answers TRY_LATER instead of rejecting a chain the list may not yet know about.
//
// Returns:
//   - *diagnostic.DiagnosticData: The enriched copy; data itself is never modified
//   - int: The number of certificates that received services
func (s *Snapshot) Attach(data *diagnostic.DiagnosticData, now time.Time) (*diagnostic.DiagnosticData, int) {
	out := *data
	out.Certificates = slices.Clone(data.Certificates)
	stale := s.Stale(now)

	attached := 0
	for i := range out.Certificates {
		c := &out.Certificates[i]
		fromList := false
		if len(c.TrustServices) == 0 {
			if records, ok := s.Lookup(c); ok {
				c.TrustServices = slices.Clone(records)
				fromList = true
				attached++
			}
		}
		if stale && (fromList || c.TrustAnchor && !c.TrustedStore) {
			c.TrustServicesStale = true
		}
	}
	return &out, attached
}
