// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCLILogger(t *testing.T) {
	tests := []struct {
		name string
		emit func(l *logger.CLILogger)
		want []string
	}{
		{
			name: "Printf",
			emit: func(l *logger.CLILogger) { l.Printf("Stored run %s in %s", "run-1", "runs.db") },
			want: []string{"Stored run run-1 in runs.db"},
		},
		{
			name: "Println",
			emit: func(l *logger.CLILogger) { l.Println("Warning:", "issuer not found") },
			want: []string{"Warning: issuer not found"},
		},
		{
			name: "NoTimestampPrefix",
			emit: func(l *logger.CLILogger) { l.Printf("Attached trust services to %d certificate(s)", 3) },
			want: []string{"Attached trust services to 3 certificate(s)\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewCLILogger()
			require.NotNil(t, log)
			log.SetOutput(&buf)

			tt.emit(log)

			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			assert.True(t, strings.HasPrefix(buf.String(), strings.Fields(tt.want[0])[0]))
		})
	}

	t.Run("SetOutput", func(t *testing.T) {
		var first, second bytes.Buffer
		log := logger.NewCLILogger()

		log.SetOutput(&first)
		log.Println("policy loaded")
		log.SetOutput(&second)
		log.Println("report written")

		assert.Contains(t, first.String(), "policy loaded")
		assert.NotContains(t, first.String(), "report written")
		assert.Contains(t, second.String(), "report written")
	})

	t.Run("Concurrent", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.NewCLILogger()
		log.SetOutput(&buf)

		const workers, perWorker = 20, 10

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := range workers {
			go func(id int) {
				defer wg.Done()
				for j := range perWorker {
					log.Printf("worker %d token %d validated", id, j)
				}
			}(i)
		}
		wg.Wait()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, workers*perWorker)
	})
}

func decodeLines(t *testing.T, output string) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(output), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line %d: failed to parse JSON", i+1)
		entries = append(entries, entry)
	}
	return entries
}

func TestStructuredLogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Silent",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewStructuredLogger(&buf, true)

				log.Printf("test message: %s", "hello")
				log.Println("another message")
				log.Info("structured", zap.String("token", "sig-1"))
				log.Warn("structured")

				assert.Equal(t, 0, buf.Len(), "expected no output in silent mode")
			},
		},
		{
			name: "Printf_JSON",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewStructuredLogger(&buf, false)

				log.Printf("test message: %s", "hello")

				entries := decodeLines(t, buf.String())
				require.Len(t, entries, 1)
				assert.Equal(t, "info", entries[0]["level"])
				assert.Equal(t, "test message: hello", entries[0]["message"])
				assert.NotContains(t, entries[0], "ts", "timestamps are omitted")
			},
		},
		{
			name: "Println_JSON",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewStructuredLogger(&buf, false)

				log.Println("test message")

				entries := decodeLines(t, buf.String())
				require.Len(t, entries, 1)
				assert.Equal(t, "test message", entries[0]["message"])
			},
		},
		{
			name: "Fields",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewStructuredLogger(&buf, false)

				log.Info("token validated", zap.String("token", "sig-1"), zap.Int("iterations", 2))
				log.Warn("trusted list stale", zap.Duration("age", 0))

				entries := decodeLines(t, buf.String())
				require.Len(t, entries, 2)
				assert.Equal(t, "sig-1", entries[0]["token"])
				assert.EqualValues(t, 2, entries[0]["iterations"])
				assert.Equal(t, "warn", entries[1]["level"])
			},
		},
		{
			name: "SetOutput",
			testFunc: func(t *testing.T) {
				var buf1, buf2 bytes.Buffer
				log := logger.NewStructuredLogger(&buf1, false)

				log.Println("first")
				log.SetOutput(&buf2)
				log.Println("second")

				assert.Contains(t, buf1.String(), "first")
				assert.NotContains(t, buf1.String(), "second")
				assert.Contains(t, buf2.String(), "second")
			},
		},
		{
			name: "SetOutput_Nil",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewStructuredLogger(&buf, false)

				log.Println("before")
				log.SetOutput(nil)
				log.Println("after")

				assert.Contains(t, buf.String(), "before")
				assert.NotContains(t, buf.String(), "after")
			},
		},
		{
			name: "NilWriter",
			testFunc: func(t *testing.T) {
				log := logger.NewStructuredLogger(nil, false)
				assert.NotPanics(t, func() {
					log.Printf("test")
					log.Println("test")
				})
			},
		},
		{
			name: "JSONEscaping",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewStructuredLogger(&buf, false)

				inputs := []string{
					`test"quote`,
					`test\backslash`,
					"test\nnewline",
					"test\ttab",
					"test\x01control",
				}
				for _, in := range inputs {
					buf.Reset()
					log.Printf("%s", in)
					entries := decodeLines(t, buf.String())
					require.Len(t, entries, 1, "input %q", in)
					assert.Equal(t, in, entries[0]["message"], "input %q", in)
				}
			},
		},
		{
			name: "Concurrent",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewStructuredLogger(&buf, false)

				const numGoroutines = 50
				const messagesPerGoroutine = 10

				var wg sync.WaitGroup
				wg.Add(numGoroutines)
				for i := range numGoroutines {
					go func(id int) {
						defer wg.Done()
						for j := range messagesPerGoroutine {
							log.Printf("goroutine %d message %d", id, j)
						}
					}(i)
				}
				wg.Wait()

				entries := decodeLines(t, buf.String())
				assert.Len(t, entries, numGoroutines*messagesPerGoroutine)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestStructuredLogger_WriteToFile(t *testing.T) {
	tmpFile := t.TempDir() + "/validation.log"

	file, err := os.Create(tmpFile)
	require.NoError(t, err, "failed to create temp file")
	t.Cleanup(func() { file.Close() })

	log := logger.NewStructuredLogger(file, false)
	log.Printf("test message 1: %s", "hello")
	log.Println("test message 2")
	require.NoError(t, file.Sync())

	content, err := os.ReadFile(tmpFile)
	require.NoError(t, err)

	entries := decodeLines(t, string(content))
	require.Len(t, entries, 2)
	assert.Equal(t, "test message 1: hello", entries[0]["message"])
	assert.Equal(t, "test message 2", entries[1]["message"])
}

func TestOrDiscard(t *testing.T) {
	cli := logger.NewCLILogger()
	assert.Same(t, cli, logger.OrDiscard(cli))

	l := logger.OrDiscard(nil)
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Printf("dropped %d", 1) })
	_, ok := l.(logger.FieldLogger)
	assert.True(t, ok, "discard logger accepts structured fields")
}
