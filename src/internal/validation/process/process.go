// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package process

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/metrics"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/poe"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/psv"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/report"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/trustservice"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/xcv"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

// ErrNilPolicy is returned when an Executor has no policy.
var ErrNilPolicy = policy.ErrNilPolicy

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger receiving one entry per token verdict and per
// control-time move. Without it the Executor logs nothing.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) { e.log = logger.OrDiscard(l) }
}

// WithMetrics sets the recorder of validation outcomes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithClock sets the clock used when the diagnostic data carries no validation time.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// Executor validates diagnostic data sets under one policy.
//
// Thread Safety: An Executor holds no per-run state and may run concurrent
// validations; each run owns its POE registry and chain validator.
type Executor struct {
	policy  *policy.Policy
	log     logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// New creates an Executor applying p.
func New(p *policy.Policy, opts ...Option) *Executor {
	e := &Executor{policy: p, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the state of one validation run.
type run struct {
	e        *Executor
	index    *diagnostic.Index
	registry *poe.Registry
	xcv      *xcv.Validator
	psv      *psv.Validator
	now      time.Time
}

func (e *Executor) prepare(data *diagnostic.DiagnosticData) (*run, error) {
	if e.policy == nil {
		return nil, ErrNilPolicy
	}
	if data == nil {
		return nil, fmt.Errorf("process: %w", diagnostic.ErrNoDiagnosticData)
	}
	if data.ValidationTime.IsZero() {
		stamped := *data
		stamped.ValidationTime = e.now().UTC()
		data = &stamped
	}

	index, err := diagnostic.NewIndex(data)
	if err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}

	registry := poe.NewRegistry(index.ValidationTime(), data.TokenIDs()...)
	x := xcv.New(index, e.policy)
	return &run{
		e:        e,
		index:    index,
		registry: registry,
		xcv:      x,
		psv:      psv.New(x, registry, e.log),
		now:      index.ValidationTime(),
	}, nil
}

// Execute validates every timestamp and signature of data.
//
// Timestamps are validated first, most recent production time first; every passed
// timestamp adds a proof of existence at its production time for the tokens it
// covers, which the older timestamps and the signatures may then use in past
// validation.
//
// Parameters:
//   - data: The diagnostic data of the run; a zero ValidationTime is replaced by the clock
//
// Returns:
//   - *report.Reports: The detailed and simple reports
//   - error: ErrNilPolicy, or a wrapped diagnostic error when data is missing or
//     inconsistent. Validation outcomes are never errors.
func (e *Executor) Execute(data *diagnostic.DiagnosticData) (*report.Reports, error) {
	start := time.Now()
	r, err := e.prepare(data)
	if err != nil {
		return nil, err
	}

	d := &report.Detailed{ValidationTime: r.now, Policy: e.policy.Name}

	for _, ts := range r.timestampsByRecency() {
		tok, err := r.validateTimestamp(ts)
		if err != nil {
			return nil, err
		}
		d.Timestamps = append(d.Timestamps, tok)
	}

	sigs := r.index.Data().Signatures
	for i := range sigs {
		tok, err := r.validateSignature(&sigs[i])
		if err != nil {
			return nil, err
		}
		d.Signatures = append(d.Signatures, tok)
	}

	d.ProofsOfExistence = r.proofs()
	e.metrics.ObserveRun(time.Since(start))
	return report.NewReports(d), nil
}

// ValidateCertificate validates the chain of one certificate of data at its
// validation time.
//
// Returns:
//   - *report.Reports: Reports holding a single certificate token
//   - error: As for Execute, or diagnostic.ErrUnknownCertificate when certID is absent
func (e *Executor) ValidateCertificate(data *diagnostic.DiagnosticData, certID string) (*report.Reports, error) {
	r, err := e.prepare(data)
	if err != nil {
		return nil, err
	}
	if _, ok := r.index.Certificate(certID); !ok {
		return nil, fmt.Errorf("process: %w: %q", diagnostic.ErrUnknownCertificate, certID)
	}

	tok, err := r.validate(tokenSpec{
		id:     certID,
		kind:   report.KindCertificate,
		ctx:    rules.ContextCertificate,
		certID: certID,
	})
	if err != nil {
		return nil, err
	}

	d := &report.Detailed{
		ValidationTime:    r.now,
		Policy:            e.policy.Name,
		Certificates:      []*report.Token{tok},
		ProofsOfExistence: r.proofs(),
	}
	return report.NewReports(d), nil
}

// timestampsByRecency returns the timestamps ordered by descending production
// time, ties broken by identifier.
func (r *run) timestampsByRecency() []*diagnostic.TimestampRecord {
	src := r.index.Data().Timestamps
	out := make([]*diagnostic.TimestampRecord, len(src))
	for i := range src {
		out[i] = &src[i]
	}
	slices.SortStableFunc(out, func(a, b *diagnostic.TimestampRecord) int {
		if c := b.ProductionTime.Compare(a.ProductionTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (r *run) validateTimestamp(ts *diagnostic.TimestampRecord) (*report.Token, error) {
	produced := ts.ProductionTime
	tok, err := r.validate(tokenSpec{
		id:         ts.ID,
		kind:       report.KindTimestamp,
		ctx:        rules.ContextTimestamp,
		typ:        string(ts.Type),
		certID:     ts.SigningCertificateID,
		production: &produced,
		basic: &basicInput{
			id:             ts.ID,
			imprintIntact:  ts.MessageImprintIntact,
			signatureValid: ts.SignatureIntact,
			digest:         ts.DigestAlgorithm,
			encryption:     ts.EncryptionAlgorithm,
			t:              r.now,
			policy:         r.e.policy,
		},
	})
	if err != nil {
		return nil, err
	}

	if tok.Conclusion.Passed() {
		for _, id := range ts.CoveredIDs {
			r.registry.Add(id, ts.ProductionTime)
		}
		tok.CoveredIDs = slices.Clone(ts.CoveredIDs)
	}
	return tok, nil
}

func (r *run) validateSignature(sig *diagnostic.SignatureRecord) (*report.Token, error) {
	return r.validate(tokenSpec{
		id:         sig.ID,
		kind:       report.KindSignature,
		ctx:        rules.ContextSignature,
		certID:     sig.SigningCertificateID,
		production: sig.ClaimedSigningTime,
		basic: &basicInput{
			id:             sig.ID,
			imprintIntact:  true,
			signatureValid: sig.SignatureIntact,
			digest:         sig.DigestAlgorithm,
			encryption:     sig.EncryptionAlgorithm,
			t:              r.now,
			policy:         r.e.policy,
		},
	})
}

// tokenSpec describes one token to validate. basic is nil for certificates.
type tokenSpec struct {
	id         string
	kind       report.Kind
	ctx        rules.Context
	typ        string
	certID     string
	production *time.Time
	basic      *basicInput
}

// validate runs the building blocks of one token: basic validation, chain
// validation at the validation time, then past validation.
func (r *run) validate(spec tokenSpec) (*report.Token, error) {
	cert, _ := r.index.Certificate(spec.certID)
	tok := &report.Token{
		ID:             spec.id,
		Kind:           spec.kind,
		Context:        spec.ctx,
		Type:           spec.typ,
		CertificateID:  spec.certID,
		Subject:        cert.Subject,
		ProductionTime: spec.production,
	}

	in := psv.Input{TokenID: spec.id, CertificateID: spec.certID, Context: spec.ctx}
	if spec.basic != nil {
		tok.BasicValidation = rules.Execute(spec.basic, r.e.policy.Levels(spec.ctx), basicRules.All(), rules.MessagesFor(spec.ctx))
		in.DigestAlgorithm, in.EncryptionAlgorithm = spec.basic.digest, spec.basic.encryption
	}

	chain, err := r.xcv.Validate(spec.certID, r.now, spec.ctx)
	if err != nil {
		return nil, fmt.Errorf("process: %s %q: %w", spec.kind, spec.id, err)
	}
	tok.XCV = chain

	in.Conclusion = presentConclusion(tok.BasicValidation, chain.Conclusion)
	past, err := r.psv.Validate(in)
	if err != nil {
		return nil, fmt.Errorf("process: %s %q: %w", spec.kind, spec.id, err)
	}
	tok.PSV = past

	final := past.Conclusion
	tok.Conclusion = &rules.Conclusion{
		Indication:    final.Indication,
		SubIndication: final.SubIndication,
		Boundary:      final.Boundary,
	}
	tok.BestSignatureTime = r.bestSignatureTime(spec.id, past)
	tok.Qualification = r.qualify(tok, cert)

	r.e.metrics.ObserveToken(spec.ctx, tok.Conclusion.Indication, tok.Conclusion.SubIndication)
	if past.Entered {
		r.e.metrics.ObservePastValidation(spec.ctx, past.Iterations, tok.Conclusion.Passed())
	}
	r.logVerdict(tok)
	return tok, nil
}

// presentConclusion combines the token checks with the chain at the validation
// time. A FAILED token check is final; otherwise a chain failure takes precedence.
func presentConclusion(basic, chain *rules.Conclusion) *rules.Conclusion {
	switch {
	case basic != nil && basic.Indication == indication.Failed:
		return basic
	case !chain.Passed():
		return chain
	case basic != nil:
		return basic
	default:
		return chain
	}
}

// bestSignatureTime is the control time of a recovering past validation, otherwise
// the earliest proof of existence of the token.
func (r *run) bestSignatureTime(id string, past *psv.Result) *time.Time {
	if past.Entered && past.Conclusion.Passed() && past.BestSignatureTime != nil {
		return past.BestSignatureTime
	}
	if t, ok := r.registry.Lowest(id); ok {
		return &t
	}
	return nil
}

// qualify matches the qualifying trust services of the signing certificate at
// best-signature-time and at issuance.
func (r *run) qualify(tok *report.Token, cert *diagnostic.CertificateRecord) *report.Qualification {
	passed := tok.Conclusion.Passed()
	q := &report.Qualification{Level: qualificationLevel(tok.Kind, passed, false)}

	chain, _ := r.index.Chain(cert.ID)
	binding := trustservice.Resolve(chain, 0)
	if binding.TrustedStore || len(binding.Records) == 0 {
		return q
	}

	usage := r.now
	if tok.BestSignatureTime != nil {
		usage = *tok.BestSignatureTime
	}
	ev := trustservice.Evaluate(usage, cert.NotBefore, binding.Records, r.e.policy.Qualifies)
	q.Evaluation = &ev
	q.Qualified = passed && ev.AcceptedAtUsage && ev.AcceptedAtIssuance
	q.Level = qualificationLevel(tok.Kind, passed, q.Qualified)
	return q
}

func qualificationLevel(kind report.Kind, passed, qualified bool) string {
	if !passed {
		return report.LevelNotQualified
	}
	switch kind {
	case report.KindSignature:
		if qualified {
			return report.LevelQESig
		}
		return report.LevelAdESig
	case report.KindTimestamp:
		if qualified {
			return report.LevelQTSA
		}
		return report.LevelTSA
	default:
		if qualified {
			return report.LevelQC
		}
		return report.LevelNonQC
	}
}

func (r *run) proofs() map[string][]time.Time {
	out := make(map[string][]time.Time, r.registry.Len())
	for _, id := range r.registry.IDs() {
		out[id] = r.registry.Times(id)
	}
	return out
}

func (r *run) logVerdict(tok *report.Token) {
	c := tok.Conclusion
	if fl, ok := r.e.log.(logger.FieldLogger); ok {
		fields := []zap.Field{
			zap.String("kind", string(tok.Kind)),
			zap.String("token", tok.ID),
			zap.String("certificate", tok.CertificateID),
			zap.String("indication", string(c.Indication)),
			zap.String("subIndication", string(c.SubIndication)),
		}
		if tok.PSV != nil && tok.PSV.Entered {
			fields = append(fields, zap.Int("pastIterations", tok.PSV.Iterations))
		}
		if c.Passed() {
			fl.Info("token validated", fields...)
		} else {
			fl.Warn("token not validated", fields...)
		}
		return
	}
	r.e.log.Printf("%s %s: %s %s", tok.Kind, tok.ID, c.Indication, c.SubIndication)
}
