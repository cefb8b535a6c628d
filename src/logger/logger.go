// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging operations.
// It provides methods for formatted output and for redirecting it.
//
// This interface supports both human-readable CLI output and structured JSON
// logging, allowing the validation engine to stay agnostic of where its trace goes.
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// FieldLogger is a [Logger] that also accepts structured fields.
// Components check for it with a type assertion and fall back to Printf.
type FieldLogger interface {
	Logger
	// Info logs msg with the given fields at info level.
	Info(msg string, fields ...zap.Field)
	// Warn logs msg with the given fields at warn level.
	Warn(msg string, fields ...zap.Field)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// StructuredLogger implements [FieldLogger] on top of [zap].
// Each entry is one JSON object per line with "level" and "message" keys and
// any structured fields. Timestamps are omitted so output is reproducible.
//
// StructuredLogger is safe for concurrent use by multiple goroutines.
type StructuredLogger struct {
	mu     sync.RWMutex
	zl     *zap.Logger
	silent bool
}

// NewStructuredLogger creates a structured logger writing to writer.
// A nil writer discards output. When silent is true nothing is written at all,
// which keeps stdout clean for machine-readable reports.
func NewStructuredLogger(writer io.Writer, silent bool) *StructuredLogger {
	s := &StructuredLogger{silent: silent}
	s.zl = newZap(writer)
	return s
}

// Discard returns a Logger that drops every message.
func Discard() Logger { return NewStructuredLogger(nil, true) }

// OrDiscard returns l, or a discarding Logger when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func newZap(w io.Writer) *zap.Logger {
	if w == nil {
		w = io.Discard
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
	return zap.New(core)
}

func (s *StructuredLogger) logger() *zap.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zl
}

// Printf formats and logs an info-level entry. Output is suppressed in silent mode.
func (s *StructuredLogger) Printf(format string, v ...any) {
	if s.silent {
		return
	}
	s.logger().Info(fmt.Sprintf(format, v...))
}

// Println logs an info-level entry. Output is suppressed in silent mode.
func (s *StructuredLogger) Println(v ...any) {
	if s.silent {
		return
	}
	s.logger().Info(fmt.Sprint(v...))
}

// Info logs msg with fields at info level.
func (s *StructuredLogger) Info(msg string, fields ...zap.Field) {
	if s.silent {
		return
	}
	s.logger().Info(msg, fields...)
}

// Warn logs msg with fields at warn level.
func (s *StructuredLogger) Warn(msg string, fields ...zap.Field) {
	if s.silent {
		return
	}
	s.logger().Warn(msg, fields...)
}

// SetOutput replaces the output destination. A nil writer discards output.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (s *StructuredLogger) SetOutput(w io.Writer) {
	zl := newZap(w)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zl = zl
}
