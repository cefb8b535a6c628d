// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/cli"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/fixture"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/store"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

const version = "1.3.3.7-testing"

// execute runs the command line args and returns what it printed on stdout and
// through the progress logger.
func execute(t *testing.T, args ...string) (stdout, logs string, err error) {
	t.Helper()
	var out, errOut, logBuf bytes.Buffer

	log := logger.NewCLILogger()
	log.SetOutput(&logBuf)

	root := cli.NewRootCommand(version, log)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), logBuf.String(), err
}

func writeDiagnostic(t *testing.T, b *fixture.Builder) string {
	t.Helper()
	raw, err := json.Marshal(b.Data())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "diagnostic.json")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestValidate(t *testing.T) {
	diag := writeDiagnostic(t, fixture.QualifiedPKI(fixture.Now).WithSignature())

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		anyErr   bool
		contains []string
	}{
		{name: "No diagnostic file", args: []string{"validate"}, wantErr: cli.ErrDiagnosticRequired},
		{name: "Unknown format", args: []string{"validate", "-f", diag, "-o", "xml"}, wantErr: cli.ErrUnknownFormat},
		{name: "Unknown log format", args: []string{"validate", "-f", diag, "--log-format", "xml"}, wantErr: cli.ErrUnknownFormat},
		{name: "Invalid time", args: []string{"validate", "-f", diag, "--time", "yesterday"}, wantErr: cli.ErrInvalidTime},
		{name: "Non-existent file", args: []string{"validate", "-f", "/tmp/nonexistent-diagnostic-12345.json"}, anyErr: true},
		{name: "Unexpected argument", args: []string{"validate", "-f", diag, "extra"}, anyErr: true},
		{
			name:     "Table",
			args:     []string{"validate", "-f", diag},
			contains: []string{"sig-1", "TOTAL_PASSED", "1 of 1 token(s) valid at 2026-06-01T12:00:00Z (policy default)"},
		},
		{
			name:     "Tree",
			args:     []string{"validate", "-f", diag, "-o", "tree"},
			contains: []string{"Validation at 2026-06-01T12:00:00Z (policy default)", "SIGNATURE sig-1 (signer) PASSED"},
		},
		{
			name:     "Explicit validation time",
			args:     []string{"validate", "-f", diag, "--time", "2026-05-01T00:00:00Z"},
			contains: []string{"valid at 2026-05-01T00:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			case tt.anyErr:
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestValidateJSON(t *testing.T) {
	diag := writeDiagnostic(t, fixture.QualifiedPKI(fixture.Now).WithSignature())

	out, _, err := execute(t, "validate", "-f", diag, "-o", "json")
	require.NoError(t, err)
	assert.True(t, cli.OperationPerformed)

	var decoded struct {
		Simple struct {
			ValidCount int `json:"validCount"`
			TotalCount int `json:"totalCount"`
		} `json:"simple"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Simple.ValidCount)
	assert.Equal(t, 1, decoded.Simple.TotalCount)
}

func TestValidateVerboseJSONLogs(t *testing.T) {
	diag := writeDiagnostic(t, fixture.QualifiedPKI(fixture.Now).WithSignature())

	var out, errOut bytes.Buffer
	root := cli.NewRootCommand(version, nil)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"validate", "-f", diag, "-o", "json", "-v", "--log-format", "json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, errOut.String(), `"message":"token validated"`)
	assert.True(t, json.Valid(out.Bytes()), "stdout must stay a clean JSON report")
}

func TestValidatePolicyFromEnvironment(t *testing.T) {
	diag := writeDiagnostic(t, fixture.QualifiedPKI(fixture.Now).WithSignature())

	t.Setenv(policy.EnvPolicyFile, filepath.Join(t.TempDir(), "missing-policy.yaml"))
	_, _, err := execute(t, "validate", "-f", diag)
	assert.Error(t, err)

	custom := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("name: strict\n"), 0644))
	t.Setenv(policy.EnvPolicyFile, custom)
	out, _, err := execute(t, "validate", "-f", diag)
	require.NoError(t, err)
	assert.Contains(t, out, "(policy strict)")
}

func TestValidateTrustedList(t *testing.T) {
	diag := writeDiagnostic(t, fixture.QualifiedPKI(fixture.Now).WithSignature())
	tl := filepath.Join("..", "internal", "validation", "trustlist", "testdata", "tl-eu.yaml")

	out, logs, err := execute(t, "validate", "-f", diag, "--trusted-list", tl)
	require.NoError(t, err)
	assert.Contains(t, logs, "Fetched trusted list")
	assert.Contains(t, logs, "Attached trust services to")
	assert.Contains(t, out, "TOTAL_PASSED")

	_, _, err = execute(t, "validate", "-f", diag, "--trusted-list", "/tmp/nonexistent-tl-12345.yaml")
	assert.Error(t, err)
}

func TestValidateStoreAndRuns(t *testing.T) {
	diag := writeDiagnostic(t, fixture.QualifiedPKI(fixture.Now).WithSignature())
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	metricsFile := filepath.Join(dir, "metrics.prom")

	_, logs, err := execute(t, "validate", "-f", diag, "--store", db, "--metrics", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, logs, "Stored run ")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "x509_trust_validator_tokens_total")

	s, err := store.Open(db)
	require.NoError(t, err)
	runs, err := s.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.Len(t, runs, 1)

	out, _, err := execute(t, "runs", "list", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID)
	assert.Contains(t, out, "1/1")

	out, _, err = execute(t, "runs", "list", "--store", db, "--policy-name", "other")
	require.NoError(t, err)
	assert.Equal(t, "No stored runs\n", out)

	out, _, err = execute(t, "runs", "show", runs[0].ID, "--store", db)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, runs[0].ID)

	_, _, err = execute(t, "runs", "show", "no-such-run", "--store", db)
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestRunsRequireStore(t *testing.T) {
	_, _, err := execute(t, "runs", "list")
	assert.ErrorIs(t, err, cli.ErrStoreRequired)
}

func TestExecute_Version(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}
