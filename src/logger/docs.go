// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger provides abstraction and implementation for logging operations.
// It defines the Logger interface and provides two implementations: CLILogger for
// human-readable command-line output and StructuredLogger, backed by zap, for JSON
// lines carrying structured validation fields. Both implementations are thread-safe.
//
// Validation components accept a Logger and treat nil as [Discard]. When the
// supplied logger also implements [FieldLogger], verdicts and control-time slides
// are logged with structured fields instead of formatted text.
package logger
