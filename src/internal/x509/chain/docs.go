// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain builds diagnostic data from raw [X.509] material without any
// network access. It provides capabilities to:
//   - Resolve a chain from a leaf and a set of candidate issuers.
//   - Convert the chain into certificate records with issuer chains and a trust anchor.
//   - Convert [CRL] and [OCSP] data into revocation records, verifying signatures,
//     responder identity, certHash, expiredCertsOnCRL and archive cutoff.
//   - Render the chain with its revocation status as a tree, table or JSON.
//
// [X.509]: https://grokipedia.com/page/X.509
// [OCSP]: https://grokipedia.com/page/Online_Certificate_Status_Protocol
// [CRL]: https://grokipedia.com/page/Certificate_revocation_list
package x509chain
