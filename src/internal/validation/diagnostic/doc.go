// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package diagnostic holds the normalized input of a validation run: certificates,
// revocation data, trust-service entries, timestamps and signatures, all addressed
// by stable identifiers.
//
// Records are produced by collaborators that parse certificates, CRLs, OCSP
// responses and signature containers (see the x509 packages of this module), or
// loaded from a JSON/YAML file with [Load]. Once a run starts they are never modified.
package diagnostic
