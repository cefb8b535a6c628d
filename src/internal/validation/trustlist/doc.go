// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trustlist maintains the trust-service snapshot used to bind trusted-list
// services to the certificates of a diagnostic data set.
//
// A [Refresher] fetches every configured [Source] concurrently and merges the
// lists into a [Snapshot]. The snapshot answers per-certificate lookups through an
// LRU cache and knows when it went stale: past its maximum age or past the next
// update a list announced. [Snapshot.Attach] copies the services onto the
// certificates and flags trusted-list anchors of a stale snapshot, which chain
// validation turns into INDETERMINATE/TRY_LATER rather than a rejection.
//
// Example:
//
//	r := trustlist.NewRefresher(
//		[]trustlist.Source{trustlist.FileSource{Path: "tl-eu.yaml"}},
//		trustlist.WithMaxAge(p.TrustedListMaxAge()),
//	)
//	snap, err := r.Refresh(ctx)
//	if err != nil {
//		return err
//	}
//	data, _ = snap.Attach(data, data.ValidationTime)
package trustlist
