// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package process_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/fixture"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/metrics"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/process"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/report"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

var now = fixture.Now

func simpleToken(t *testing.T, s *report.Simple, id string) report.SimpleToken {
	t.Helper()
	for _, tok := range s.Tokens {
		if tok.ID == id {
			return tok
		}
	}
	require.Failf(t, "token not reported", "%s", id)
	return report.SimpleToken{}
}

func TestExecute(t *testing.T) {
	revokedAt := now.AddDate(0, -1, 0)
	archivedAt := now.AddDate(0, -2, 0)

	tests := []struct {
		name           string
		build          func() *fixture.Builder
		wantInd        indication.Indication
		wantSub        indication.SubIndication
		wantPast       bool
		wantBST        time.Time
		wantLevel      string
		wantErrors     bool
		wantValidCount int
		wantTotalCount int
	}{
		{
			name:           "intact signature by a qualified signer",
			build:          func() *fixture.Builder { return fixture.QualifiedPKI(now).WithSignature() },
			wantInd:        indication.TotalPassed,
			wantBST:        now,
			wantLevel:      report.LevelQESig,
			wantValidCount: 1,
			wantTotalCount: 1,
		},
		{
			name: "revoked signer recovered by an archive timestamp",
			build: func() *fixture.Builder {
				return fixture.QualifiedPKI(now).WithSignature().RevokeSigner(revokedAt).
					WithTimestamp("ts-archive", diagnostic.TimestampArchive, archivedAt, fixture.SignatureID)
			},
			wantInd:        indication.TotalPassed,
			wantPast:       true,
			wantBST:        archivedAt,
			wantLevel:      report.LevelQESig,
			wantValidCount: 2,
			wantTotalCount: 2,
		},
		{
			name: "revoked signer without proof of existence",
			build: func() *fixture.Builder {
				return fixture.QualifiedPKI(now).WithSignature().RevokeSigner(revokedAt)
			},
			wantInd:        indication.Indeterminate,
			wantSub:        indication.RevokedNoPOE,
			wantBST:        now,
			wantLevel:      report.LevelNotQualified,
			wantErrors:     true,
			wantTotalCount: 1,
		},
		{
			name: "archive timestamp produced after the revocation does not help",
			build: func() *fixture.Builder {
				return fixture.QualifiedPKI(now).WithSignature().RevokeSigner(revokedAt).
					WithTimestamp("ts-archive", diagnostic.TimestampArchive, revokedAt.AddDate(0, 0, 1), fixture.SignatureID)
			},
			wantInd:        indication.Indeterminate,
			wantSub:        indication.RevokedNoPOE,
			wantBST:        revokedAt.AddDate(0, 0, 1),
			wantLevel:      report.LevelNotQualified,
			wantErrors:     true,
			wantValidCount: 1,
			wantTotalCount: 2,
		},
		{
			name: "broken signature value",
			build: func() *fixture.Builder {
				return fixture.QualifiedPKI(now).WithSignature().Mutate(func(d *diagnostic.DiagnosticData) {
					d.Signatures[0].SignatureIntact = false
				})
			},
			wantInd:        indication.TotalFailed,
			wantSub:        indication.SigCryptoFailure,
			wantBST:        now,
			wantLevel:      report.LevelNotQualified,
			wantErrors:     true,
			wantTotalCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := process.New(fixture.Policy(t)).Execute(tt.build().Data())
			require.NoError(t, err)

			s := reports.Simple
			assert.Equal(t, tt.wantValidCount, s.ValidCount)
			assert.Equal(t, tt.wantTotalCount, s.TotalCount)

			sig := simpleToken(t, s, fixture.SignatureID)
			assert.Equal(t, report.KindSignature, sig.Kind)
			assert.Equal(t, tt.wantInd, sig.Indication)
			assert.Equal(t, tt.wantSub, sig.SubIndication)
			assert.Equal(t, tt.wantPast, sig.PastValidation)
			assert.Equal(t, tt.wantLevel, sig.Qualification)
			assert.Equal(t, tt.wantErrors, len(sig.Errors) > 0, "errors: %v", sig.Errors)
			require.NotNil(t, sig.BestSignatureTime)
			assert.True(t, tt.wantBST.Equal(*sig.BestSignatureTime), "best signature time %s, want %s", sig.BestSignatureTime, tt.wantBST)
		})
	}
}

func TestExecuteTimestampCoverage(t *testing.T) {
	older := now.AddDate(0, -2, 0)
	newer := now.AddDate(0, 0, -1)

	data := fixture.QualifiedPKI(now).WithSignature().
		WithTimestamp("ts-older", diagnostic.TimestampSignature, older, fixture.SignatureID).
		WithTimestamp("ts-newer", diagnostic.TimestampArchive, newer, "ts-older", fixture.SignatureID).
		Data()

	reports, err := process.New(fixture.Policy(t)).Execute(data)
	require.NoError(t, err)

	d := reports.Detailed
	require.Len(t, d.Timestamps, 2)
	assert.Equal(t, "ts-newer", d.Timestamps[0].ID, "most recent timestamp first")
	assert.Equal(t, "ts-older", d.Timestamps[1].ID)
	assert.Equal(t, []string{"ts-older", fixture.SignatureID}, d.Timestamps[0].CoveredIDs)

	proofs := d.ProofsOfExistence
	assert.Equal(t, []time.Time{newer, now}, proofs["ts-older"])
	assert.Equal(t, []time.Time{older, newer, now}, proofs[fixture.SignatureID])
	assert.Equal(t, []time.Time{now}, proofs["ts-newer"])

	sig := d.Signatures[0]
	require.NotNil(t, sig.BestSignatureTime)
	assert.True(t, older.Equal(*sig.BestSignatureTime))

	ts := simpleToken(t, reports.Simple, "ts-older")
	assert.Equal(t, indication.Passed, ts.Indication, "timestamps keep building-block indications")
	assert.Equal(t, report.LevelQTSA, ts.Qualification)
}

func TestExecuteBrokenImprintAddsNoProof(t *testing.T) {
	revokedAt := now.AddDate(0, -1, 0)
	data := fixture.QualifiedPKI(now).WithSignature().RevokeSigner(revokedAt).
		WithTimestamp("ts-archive", diagnostic.TimestampArchive, now.AddDate(0, -2, 0), fixture.SignatureID).
		Mutate(func(d *diagnostic.DiagnosticData) {
			d.Timestamps[0].MessageImprintIntact = false
		}).
		Data()

	reports, err := process.New(fixture.Policy(t)).Execute(data)
	require.NoError(t, err)

	ts := reports.Detailed.Timestamps[0]
	assert.Equal(t, indication.Failed, ts.Conclusion.Indication)
	assert.Equal(t, indication.HashFailure, ts.Conclusion.SubIndication)
	assert.Empty(t, ts.CoveredIDs)
	assert.Equal(t, []time.Time{now}, reports.Detailed.ProofsOfExistence[fixture.SignatureID])

	sig := simpleToken(t, reports.Simple, fixture.SignatureID)
	assert.Equal(t, indication.Indeterminate, sig.Indication)
	assert.Equal(t, indication.RevokedNoPOE, sig.SubIndication)
}

func TestExecuteIsDeterministic(t *testing.T) {
	data := fixture.QualifiedPKI(now).WithSignature().RevokeSigner(now.AddDate(0, -1, 0)).
		WithTimestamp("ts-archive", diagnostic.TimestampArchive, now.AddDate(0, -2, 0), fixture.SignatureID).
		Data()
	e := process.New(fixture.Policy(t))

	first, err := e.Execute(data)
	require.NoError(t, err)
	second, err := e.Execute(data)
	require.NoError(t, err)

	a, err := report.ToJSON(first)
	require.NoError(t, err)
	b, err := report.ToJSON(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestExecuteUsesClockWithoutValidationTime(t *testing.T) {
	data := fixture.QualifiedPKI(now).WithSignature().Data()
	data.ValidationTime = time.Time{}

	reports, err := process.New(fixture.Policy(t), process.WithClock(func() time.Time { return now })).Execute(data)
	require.NoError(t, err)

	assert.True(t, now.Equal(reports.Simple.ValidationTime))
	assert.True(t, data.ValidationTime.IsZero(), "input data must not be modified")
}

func TestExecuteErrors(t *testing.T) {
	duplicated := fixture.QualifiedPKI(now).WithSignature().WithSignature().Data()

	tests := []struct {
		name    string
		noPol   bool
		data    *diagnostic.DiagnosticData
		wantErr error
	}{
		{name: "nil policy", noPol: true, data: fixture.QualifiedPKI(now).Data(), wantErr: process.ErrNilPolicy},
		{name: "nil data", data: nil, wantErr: diagnostic.ErrNoDiagnosticData},
		{name: "duplicate identifier", data: duplicated, wantErr: diagnostic.ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture.Policy(t)
			if tt.noPol {
				p = nil
			}
			reports, err := process.New(p).Execute(tt.data)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, reports)
		})
	}
}

func TestValidateCertificate(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *fixture.Builder
		certID    string
		wantInd   indication.Indication
		wantSub   indication.SubIndication
		wantLevel string
	}{
		{
			name:      "qualified signer certificate",
			build:     func() *fixture.Builder { return fixture.QualifiedPKI(now) },
			certID:    fixture.SignerID,
			wantInd:   indication.Passed,
			wantLevel: report.LevelQC,
		},
		{
			name:      "revoked signer certificate",
			build:     func() *fixture.Builder { return fixture.QualifiedPKI(now).RevokeSigner(now.AddDate(0, -1, 0)) },
			certID:    fixture.SignerID,
			wantInd:   indication.Indeterminate,
			wantSub:   indication.RevokedNoPOE,
			wantLevel: report.LevelNotQualified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := process.New(fixture.Policy(t)).ValidateCertificate(tt.build().Data(), tt.certID)
			require.NoError(t, err)

			require.Len(t, reports.Detailed.Certificates, 1)
			tok := reports.Detailed.Certificates[0]
			assert.Equal(t, report.KindCertificate, tok.Kind)
			assert.Nil(t, tok.BasicValidation)
			assert.Equal(t, tt.wantInd, tok.Conclusion.Indication)
			assert.Equal(t, tt.wantSub, tok.Conclusion.SubIndication)

			s := simpleToken(t, reports.Simple, tt.certID)
			assert.Equal(t, tt.wantLevel, s.Qualification)
		})
	}
}

func TestValidateCertificateUnknown(t *testing.T) {
	_, err := process.New(fixture.Policy(t)).ValidateCertificate(fixture.QualifiedPKI(now).Data(), "missing")
	require.ErrorIs(t, err, diagnostic.ErrUnknownCertificate)
}

func TestExecuteRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	data := fixture.QualifiedPKI(now).WithSignature().RevokeSigner(now.AddDate(0, -1, 0)).
		WithTimestamp("ts-archive", diagnostic.TimestampArchive, now.AddDate(0, -2, 0), fixture.SignatureID).
		Data()

	_, err := process.New(fixture.Policy(t), process.WithMetrics(metrics.NewRecorder(reg))).Execute(data)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				counts[f.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				counts[f.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, counts["x509_trust_validator_tokens_total"])
	assert.Equal(t, 1.0, counts["x509_trust_validator_past_validations_total"])
	assert.Equal(t, 1.0, counts["x509_trust_validator_past_validation_iterations"])
	assert.Equal(t, 1.0, counts["x509_trust_validator_run_duration_seconds"])
}

func TestExecuteLogsVerdicts(t *testing.T) {
	data := fixture.QualifiedPKI(now).WithSignature().RevokeSigner(now.AddDate(0, -1, 0)).Data()

	t.Run("structured", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := process.New(fixture.Policy(t), process.WithLogger(logger.NewStructuredLogger(&buf, false))).Execute(data)
		require.NoError(t, err)

		var entry map[string]any
		found := false
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			if entry["message"] == "token not validated" {
				found = true
				assert.Equal(t, "warn", entry["level"])
				assert.Equal(t, fixture.SignatureID, entry["token"])
				assert.Equal(t, string(indication.RevokedNoPOE), entry["subIndication"])
				assert.EqualValues(t, 1, entry["pastIterations"])
			}
		}
		assert.True(t, found, "log: %s", buf.String())
	})

	t.Run("cli", func(t *testing.T) {
		var buf bytes.Buffer
		l := logger.NewCLILogger()
		l.SetOutput(&buf)
		_, err := process.New(fixture.Policy(t), process.WithLogger(l)).Execute(data)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "SIGNATURE sig-1: INDETERMINATE REVOKED_NO_POE")
	})
}
