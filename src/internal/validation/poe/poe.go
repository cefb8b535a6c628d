// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package poe keeps proof-of-existence facts: for each token identifier, the set of
// times at which the token is proven to have existed.
//
// A Registry is created once per validation run, seeded with the validation time for
// every token, and only ever grows as timestamps are confirmed.
package poe

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// Bounds selects which ends of a range are included by [Registry.ExistsInRange].
type Bounds int

const (
	// Closed includes both ends: [a, b].
	Closed Bounds = iota
	// OpenLower excludes a: (a, b].
	OpenLower
	// OpenUpper excludes b: [a, b).
	OpenUpper
	// Open excludes both ends: (a, b).
	Open
)

func (b Bounds) String() string {
	switch b {
	case OpenLower:
		return "(a,b]"
	case OpenUpper:
		return "[a,b)"
	case Open:
		return "(a,b)"
	default:
		return "[a,b]"
	}
}

// Registry maps token identifiers to their ascending, duplicate-free proof times.
//
// Thread Safety: Registry is owned by a single validation run and is not safe for
// concurrent mutation.
type Registry struct {
	proofs map[string][]time.Time
}

// NewRegistry creates a registry where each of ids is proven to exist at validationTime.
func NewRegistry(validationTime time.Time, ids ...string) *Registry {
	r := &Registry{proofs: make(map[string][]time.Time, len(ids))}
	for _, id := range ids {
		r.Add(id, validationTime)
	}
	return r
}

// Add records that id existed at t. Adding a known time is a no-op.
func (r *Registry) Add(id string, t time.Time) {
	times := r.proofs[id]
	i := sort.Search(len(times), func(i int) bool { return !times[i].Before(t) })
	if i < len(times) && times[i].Equal(t) {
		return
	}
	r.proofs[id] = slices.Insert(times, i, t)
}

// Exists reports whether some proof time of id is at or before t.
func (r *Registry) Exists(id string, t time.Time) bool {
	lowest, ok := r.Lowest(id)
	return ok && !lowest.After(t)
}

// ExistsInRange reports whether some proof time of id lies between a and b, with
// the ends included or excluded according to bounds.
func (r *Registry) ExistsInRange(id string, a, b time.Time, bounds Bounds) bool {
	for _, p := range r.proofs[id] {
		lowerOK := p.After(a) || (p.Equal(a) && (bounds == Closed || bounds == OpenUpper))
		upperOK := p.Before(b) || (p.Equal(b) && (bounds == Closed || bounds == OpenLower))
		if lowerOK && upperOK {
			return true
		}
	}
	return false
}

// Lowest returns the earliest proof time of id.
func (r *Registry) Lowest(id string) (time.Time, bool) {
	times := r.proofs[id]
	if len(times) == 0 {
		return time.Time{}, false
	}
	return times[0], true
}

// LatestAtOrBefore returns the latest proof time of id that is not after t.
func (r *Registry) LatestAtOrBefore(id string, t time.Time) (time.Time, bool) {
	times := r.proofs[id]
	i := sort.Search(len(times), func(i int) bool { return times[i].After(t) })
	if i == 0 {
		return time.Time{}, false
	}
	return times[i-1], true
}

// LatestBefore returns the latest proof time of id strictly before t.
func (r *Registry) LatestBefore(id string, t time.Time) (time.Time, bool) {
	times := r.proofs[id]
	i := sort.Search(len(times), func(i int) bool { return !times[i].Before(t) })
	if i == 0 {
		return time.Time{}, false
	}
	return times[i-1], true
}

// Times returns a copy of the proof times of id in ascending order.
func (r *Registry) Times(id string) []time.Time {
	return slices.Clone(r.proofs[id])
}

// IDs returns the known token identifiers in lexical order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.proofs))
}

// Len returns the number of tokens with at least one proof time.
func (r *Registry) Len() int { return len(r.proofs) }
