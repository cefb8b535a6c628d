// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package policy loads validation policies.
//
// A policy is a JSON or YAML document validated against an embedded JSON schema and
// merged over the embedded default policy. It configures the level of every
// constraint per validation context, the cryptographic acceptance tables, the
// accepted trust-service statuses and types, and when past validation applies.
package policy
