// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package psv_test

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/fixture"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/poe"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/psv"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/xcv"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

var now = fixture.Now

type run struct {
	present *xcv.Result
	result  *psv.Result
}

// pastValidate validates the signature at now and then runs past validation with
// proofs of the signature at the given times.
func pastValidate(t *testing.T, b *fixture.Builder, p *policy.Policy, algorithm string, proofs ...time.Time) run {
	t.Helper()
	x := xcv.New(b.Index(t), p)
	present, err := x.Validate(fixture.SignerID, now, rules.ContextSignature)
	require.NoError(t, err)

	conclusion := present.Conclusion
	if present.Conclusion.Passed() {
		if v := p.CheckCrypto(now, "", 0, algorithm); v.Expired {
			conclusion = rules.NewConclusion(indication.Indeterminate, indication.CryptoConstraintsFailureNoPOE)
		}
	}

	registry := poe.NewRegistry(now, fixture.SignatureID)
	for _, at := range proofs {
		registry.Add(fixture.SignatureID, at)
	}

	res, err := psv.New(x, registry, nil).Validate(psv.Input{
		TokenID:         fixture.SignatureID,
		CertificateID:   fixture.SignerID,
		Context:         rules.ContextSignature,
		Conclusion:      conclusion,
		DigestAlgorithm: algorithm,
	})
	require.NoError(t, err)
	return run{present: present, result: res}
}

func withRevokedIntermediate(b *fixture.Builder, at time.Time) *fixture.Builder {
	rev := fixture.OCSP("ocsp-inter", "inter", now.Add(-time.Hour))
	rev.Status = diagnostic.StatusRevoked
	rev.RevocationDate = fixture.Ptr(at)
	return b.Certificate(diagnostic.CertificateRecord{
		ID: "inter", NotBefore: now.AddDate(-8, 0, 0), NotAfter: now.AddDate(8, 0, 0),
		Chain: []string{fixture.RootID}, PublicKeyAlgorithm: "RSA", KeySize: 4096,
		DigestAlgorithm: "SHA256", EncryptionAlgorithm: "RSA",
	}).
		Revocation(rev).
		Mutate(func(d *diagnostic.DiagnosticData) {
			for i := range d.Certificates {
				if d.Certificates[i].ID == fixture.SignerID {
					d.Certificates[i].Chain = []string{"inter", fixture.RootID}
				}
			}
		})
}

func TestValidate(t *testing.T) {
	revokedAt := now.AddDate(0, -1, 0)
	expiredAt := now.AddDate(0, -1, 0)
	sha512Expiry := now.AddDate(0, -1, 0)

	tests := []struct {
		name            string
		build           func() *fixture.Builder
		policy          func(p *policy.Policy)
		algorithm       string
		proofs          []time.Time
		wantPresentSub  indication.SubIndication
		wantEntered     bool
		wantInd         indication.Indication
		wantSub         indication.SubIndication
		wantControlTime time.Time
		wantIterations  int
	}{
		{
			name:            "revoked signer recovered by an earlier archive timestamp",
			build:           func() *fixture.Builder { return fixture.QualifiedPKI(now).RevokeSigner(revokedAt) },
			proofs:          []time.Time{revokedAt.AddDate(0, -1, 0)},
			wantPresentSub:  indication.RevokedNoPOE,
			wantEntered:     true,
			wantInd:         indication.Passed,
			wantControlTime: revokedAt.AddDate(0, -1, 0),
			wantIterations:  2,
		},
		{
			name:            "latest admissible proof is chosen",
			build:           func() *fixture.Builder { return fixture.QualifiedPKI(now).RevokeSigner(revokedAt) },
			proofs:          []time.Time{revokedAt.AddDate(0, -3, 0), revokedAt.Add(-time.Minute), revokedAt.AddDate(0, 0, 10)},
			wantPresentSub:  indication.RevokedNoPOE,
			wantEntered:     true,
			wantInd:         indication.Passed,
			wantControlTime: revokedAt.Add(-time.Minute),
			wantIterations:  2,
		},
		{
			name:            "proof at the revocation time does not precede it",
			build:           func() *fixture.Builder { return fixture.QualifiedPKI(now).RevokeSigner(revokedAt) },
			proofs:          []time.Time{revokedAt},
			wantPresentSub:  indication.RevokedNoPOE,
			wantEntered:     true,
			wantInd:         indication.Indeterminate,
			wantSub:         indication.RevokedNoPOE,
			wantControlTime: now,
			wantIterations:  1,
		},
		{
			name:            "no proof reverts to the present conclusion",
			build:           func() *fixture.Builder { return fixture.QualifiedPKI(now).RevokeSigner(revokedAt) },
			wantPresentSub:  indication.RevokedNoPOE,
			wantEntered:     true,
			wantInd:         indication.Indeterminate,
			wantSub:         indication.RevokedNoPOE,
			wantControlTime: now,
			wantIterations:  1,
		},
		{
			name:            "proof before the signer was issued is below the floor",
			build:           func() *fixture.Builder { return fixture.QualifiedPKI(now).RevokeSigner(revokedAt) },
			proofs:          []time.Time{now.AddDate(-3, 0, 0)},
			wantPresentSub:  indication.RevokedNoPOE,
			wantEntered:     true,
			wantInd:         indication.Indeterminate,
			wantSub:         indication.RevokedNoPOE,
			wantControlTime: now,
			wantIterations:  1,
		},
		{
			name: "expired signer recovered by a proof at notAfter",
			build: func() *fixture.Builder {
				b := fixture.QualifiedPKI(now)
				b.CertificateByID(fixture.SignerID).NotAfter = expiredAt
				return b
			},
			proofs:          []time.Time{expiredAt},
			wantPresentSub:  indication.OutOfBoundsNoPOE,
			wantEntered:     true,
			wantInd:         indication.Passed,
			wantControlTime: expiredAt,
			wantIterations:  2,
		},
		{
			name: "revoked CA recovered by a proof before the CA revocation",
			build: func() *fixture.Builder {
				return withRevokedIntermediate(fixture.QualifiedPKI(now), revokedAt)
			},
			proofs:          []time.Time{revokedAt.AddDate(0, 0, -1)},
			wantPresentSub:  indication.RevokedCANoPOE,
			wantEntered:     true,
			wantInd:         indication.Passed,
			wantControlTime: revokedAt.AddDate(0, 0, -1),
			wantIterations:  2,
		},
		{
			name:  "signature algorithm expiry recovered by an earlier proof",
			build: func() *fixture.Builder { return fixture.QualifiedPKI(now) },
			policy: func(p *policy.Policy) {
				p.Cryptographic.Algorithms["SHA512"] = fixture.Ptr(sha512Expiry)
			},
			algorithm:       "SHA512",
			proofs:          []time.Time{sha512Expiry.AddDate(0, 0, -7)},
			wantEntered:     true,
			wantInd:         indication.Passed,
			wantControlTime: sha512Expiry.AddDate(0, 0, -7),
			wantIterations:  2,
		},
		{
			name:  "signature algorithm expiry without an earlier proof",
			build: func() *fixture.Builder { return fixture.QualifiedPKI(now) },
			policy: func(p *policy.Policy) {
				p.Cryptographic.Algorithms["SHA512"] = fixture.Ptr(sha512Expiry)
			},
			algorithm:       "SHA512",
			wantEntered:     true,
			wantInd:         indication.Indeterminate,
			wantSub:         indication.CryptoConstraintsFailureNoPOE,
			wantControlTime: now,
			wantIterations:  1,
		},
		{
			name:            "passed signature is not re-validated",
			build:           func() *fixture.Builder { return fixture.QualifiedPKI(now) },
			wantInd:         indication.Passed,
			wantControlTime: now,
		},
		{
			name: "try later is not a past validation entry",
			build: func() *fixture.Builder {
				return fixture.QualifiedPKI(now).Mutate(func(d *diagnostic.DiagnosticData) {
					d.Revocations = d.Revocations[1:]
				})
			},
			proofs:          []time.Time{now.AddDate(0, -1, 0)},
			wantPresentSub:  indication.TryLater,
			wantInd:         indication.Indeterminate,
			wantSub:         indication.TryLater,
			wantControlTime: now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture.Policy(t)
			if tt.policy != nil {
				tt.policy(p)
			}
			got := pastValidate(t, tt.build(), p, tt.algorithm, tt.proofs...)

			if tt.wantPresentSub != "" {
				assert.Equal(t, tt.wantPresentSub, got.present.Conclusion.SubIndication)
			}
			res := got.result
			assert.Equal(t, tt.wantEntered, res.Entered)
			assert.Equal(t, tt.wantInd, res.Conclusion.Indication, "constraints: %+v", res.Conclusion.Results)
			assert.Equal(t, tt.wantSub, res.Conclusion.SubIndication)
			assert.True(t, tt.wantControlTime.Equal(res.ControlTime), "control time %s, want %s", res.ControlTime, tt.wantControlTime)
			assert.Equal(t, tt.wantIterations, res.Iterations)
			if res.Entered && res.Conclusion.Passed() {
				require.NotNil(t, res.BestSignatureTime)
				assert.True(t, res.BestSignatureTime.Equal(res.ControlTime))
				require.NotNil(t, res.PCV)
				assert.True(t, res.PCV.Conclusion.Passed())
			}
		})
	}
}

func TestValidateGatingConstraints(t *testing.T) {
	revokedAt := now.AddDate(0, -1, 0)
	p := fixture.Policy(t)
	got := pastValidate(t, fixture.QualifiedPKI(now).RevokeSigner(revokedAt), p, "SHA256", revokedAt.AddDate(0, 0, -1))
	require.True(t, got.result.Conclusion.Passed())

	var names []string
	for _, r := range got.result.Conclusion.Results {
		names = append(names, r.Name)
		assert.True(t, r.Passed, r.Name)
		assert.NotEmpty(t, r.Message, r.Name)
	}
	assert.Equal(t, []string{
		psv.PastCertificateValidationAcceptable,
		psv.POEExists,
		psv.POENotAfterCARevocationTime,
		psv.BestSignatureTimeNotBeforeIssuance,
		psv.BestSignatureTimeBeforeExpiration,
		psv.TokenCryptographicAtBestSignatureTime,
	}, names)
}

func TestValidateLogsControlTimeMoves(t *testing.T) {
	revokedAt := now.AddDate(0, -1, 0)
	proof := revokedAt.AddDate(0, 0, -1)
	b := fixture.QualifiedPKI(now).RevokeSigner(revokedAt)
	p := fixture.Policy(t)

	tests := []struct {
		name string
		log  func(buf *bytes.Buffer) logger.Logger
		want string
	}{
		{
			name: "structured",
			log: func(buf *bytes.Buffer) logger.Logger {
				return logger.NewStructuredLogger(buf, false)
			},
			want: `"message":"control time moved"`,
		},
		{
			name: "cli",
			log: func(buf *bytes.Buffer) logger.Logger {
				l := logger.NewCLILogger()
				l.SetOutput(buf)
				return l
			},
			want: "control time moved to " + proof.UTC().Format(time.RFC3339),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			x := xcv.New(b.Index(t), p)
			present, err := x.Validate(fixture.SignerID, now, rules.ContextSignature)
			require.NoError(t, err)

			registry := poe.NewRegistry(now, fixture.SignatureID)
			registry.Add(fixture.SignatureID, proof)

			res, err := psv.New(x, registry, tt.log(&buf)).Validate(psv.Input{
				TokenID:       fixture.SignatureID,
				CertificateID: fixture.SignerID,
				Context:       rules.ContextSignature,
				Conclusion:    present.Conclusion,
			})
			require.NoError(t, err)
			assert.True(t, res.Conclusion.Passed())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestValidateUnknownCertificate(t *testing.T) {
	b := fixture.QualifiedPKI(now)
	x := xcv.New(b.Index(t), fixture.Policy(t))
	_, err := psv.New(x, poe.NewRegistry(now, "tok"), nil).Validate(psv.Input{
		TokenID:       "tok",
		CertificateID: "missing",
		Context:       rules.ContextSignature,
		Conclusion:    rules.NewConclusion(indication.Indeterminate, indication.RevokedNoPOE),
	})
	assert.ErrorIs(t, err, diagnostic.ErrUnknownCertificate)
}

// TestControlTimeSearchTerminates checks, over random proof sets and revocation
// times, that the control time never increases, that the search is bounded by the
// number of proof times, and that the verdict matches the existence of a proof in
// [floor, revocation).
func TestControlTimeSearchTerminates(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := fixture.Policy(t)
	floor := now.AddDate(-2, 0, 0)
	span := int64(now.Sub(floor.AddDate(-1, 0, 0)))

	for i := range 200 {
		revokedAt := floor.Add(time.Duration(rng.Int63n(int64(now.Sub(floor)))))
		b := fixture.QualifiedPKI(now).RevokeSigner(revokedAt)

		proofs := make([]time.Time, rng.Intn(6))
		var (
			best    time.Time
			hasBest bool
		)
		for j := range proofs {
			proofs[j] = floor.AddDate(-1, 0, 0).Add(time.Duration(rng.Int63n(span))).Truncate(time.Second)
			if !proofs[j].Before(floor) && proofs[j].Before(revokedAt) && (!hasBest || proofs[j].After(best)) {
				best, hasBest = proofs[j], true
			}
		}

		got := pastValidate(t, b, p, "SHA256", proofs...)
		res := got.result
		require.True(t, res.Entered, "iteration %d", i)

		distinct := map[time.Time]struct{}{now: {}}
		for _, at := range proofs {
			distinct[at] = struct{}{}
		}
		assert.LessOrEqual(t, res.Iterations, len(distinct)+1, "iteration %d", i)
		assert.Len(t, res.ControlTimes, res.Iterations, "iteration %d", i)
		assert.True(t, res.ControlTimes[0].Equal(now), "iteration %d", i)
		for k := 1; k < len(res.ControlTimes); k++ {
			assert.True(t, res.ControlTimes[k].Before(res.ControlTimes[k-1]), "iteration %d: control time increased", i)
		}

		if hasBest {
			assert.Equal(t, indication.Passed, res.Conclusion.Indication, "iteration %d", i)
			assert.True(t, best.Equal(res.ControlTime), "iteration %d: control time %s, want %s", i, res.ControlTime, best)
		} else {
			assert.Equal(t, indication.RevokedNoPOE, res.Conclusion.SubIndication, "iteration %d", i)
		}
	}
}
