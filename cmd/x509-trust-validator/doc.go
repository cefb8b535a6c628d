// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-trust-validator decides whether signatures, timestamps and certificates
// were trustworthy at a given time, recovering validity in the past through
// proofs of existence when present-time validation is inconclusive.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/x509-trust-validator/cmd/x509-trust-validator@latest
//
// # Usage
//
//	x509-trust-validator validate --diagnostic FILE [FLAGS]
//	x509-trust-validator certificate (--diagnostic FILE --id ID | --certs FILE) [FLAGS]
//	x509-trust-validator runs list|show --store DB
//
// # Report Flags
//
//	-p, --policy        Validation policy file, JSON or YAML
//	    --time          Validation time in RFC 3339
//	-o, --format        Report format: table, tree or json
//	    --trusted-list  Trusted list file to attach trust services from (repeatable)
//	    --store         SQLite database to store the run in
//	    --metrics       Write Prometheus metrics of the run to this file
//	-v, --verbose       Log every token verdict
//	    --log-format    Verdict log format: text or json
//
// # Environment Variables
//
//	X509_TRUST_POLICY_FILE  Path to the validation policy (alternative to --policy)
//
// # Examples
//
// Validate a diagnostic data file and print the simple report:
//
//	x509-trust-validator validate -f diagnostic.yaml
//
// Validate a certificate bundle against its CRLs, trusting the bundle's root:
//
//	x509-trust-validator certificate -c chain.pem --crl leaf.crl --crl ca.crl --trusted-store --show-chain
//
// Keep runs and list them later:
//
//	x509-trust-validator validate -f diagnostic.json -o json --store runs.db
//	x509-trust-validator runs list --store runs.db
package main
