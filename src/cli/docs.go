// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface of the trust validator.
// It implements a Cobra-based CLI with three commands:
//   - validate: run the full validation process over a diagnostic data file.
//   - certificate: validate one certificate, from diagnostic data or from raw
//     certificates, CRLs and OCSP responses.
//   - runs: list and show validation runs kept in a report store.
//
// Reports render as a table, a tree or JSON. Trusted lists, the report store and
// Prometheus metrics are opt-in through flags.
package cli
