// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report

import (
	"time"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/psv"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/trustservice"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/xcv"
)

// Kind is the kind of a validated token.
type Kind string

const (
	KindSignature   Kind = "SIGNATURE"
	KindTimestamp   Kind = "TIMESTAMP"
	KindCertificate Kind = "CERTIFICATE"
)

// Qualification levels of the simple report.
const (
	LevelQESig        = "QESig"
	LevelAdESig       = "AdESig"
	LevelQTSA         = "QTSA"
	LevelTSA          = "TSA"
	LevelQC           = "QC"
	LevelNonQC        = "Non-QC"
	LevelNotQualified = "N/A"
)

// Qualification is the trust-service match of a token's signing certificate.
type Qualification struct {
	// Level is the roll-up qualification label.
	Level string `json:"level"`
	// Qualified holds when the token passed and a qualifying service covers both
	// the best-signature-time and the certificate issuance.
	Qualified bool `json:"qualified"`
	// Evaluation details the match at both times. Nil for trusted-store anchors.
	Evaluation *trustservice.Evaluation `json:"evaluation,omitempty"`
}

// Token is the detailed report of one signature, timestamp or certificate.
type Token struct {
	ID             string        `json:"id"`
	Kind           Kind          `json:"kind"`
	Context        rules.Context `json:"context"`
	Type           string        `json:"type,omitempty"`
	CertificateID  string        `json:"certificateId"`
	Subject        string        `json:"subject,omitempty"`
	ProductionTime *time.Time    `json:"productionTime,omitempty"`

	// BasicValidation holds the token's own integrity and algorithm checks.
	BasicValidation *rules.Conclusion `json:"basicValidation,omitempty"`
	// XCV is the chain validation at the validation time.
	XCV *xcv.Result `json:"xcv,omitempty"`
	// PSV is the past validation; Entered is false when it did not apply.
	PSV *psv.Result `json:"psv,omitempty"`

	BestSignatureTime *time.Time     `json:"bestSignatureTime,omitempty"`
	Qualification     *Qualification `json:"qualification,omitempty"`
	// CoveredIDs lists the tokens a passed timestamp proved to exist.
	CoveredIDs []string `json:"coveredIds,omitempty"`

	// Conclusion is the final verdict of the token.
	Conclusion *rules.Conclusion `json:"conclusion"`
}

// Detailed mirrors the rule execution of a run: one Token per validated token,
// each carrying the conclusions of its building blocks.
type Detailed struct {
	ValidationTime time.Time `json:"validationTime"`
	Policy         string    `json:"policy"`
	Timestamps     []*Token  `json:"timestamps,omitempty"`
	Signatures     []*Token  `json:"signatures,omitempty"`
	Certificates   []*Token  `json:"certificates,omitempty"`
	// ProofsOfExistence is the final state of the POE registry, keyed by token.
	ProofsOfExistence map[string][]time.Time `json:"proofsOfExistence,omitempty"`
}

// Tokens returns every token in report order: signatures, timestamps, certificates.
func (d *Detailed) Tokens() []*Token {
	out := make([]*Token, 0, len(d.Signatures)+len(d.Timestamps)+len(d.Certificates))
	out = append(out, d.Signatures...)
	out = append(out, d.Timestamps...)
	return append(out, d.Certificates...)
}

// SimpleToken is the roll-up of one token.
type SimpleToken struct {
	ID                string                   `json:"id"`
	Kind              Kind                     `json:"kind"`
	CertificateID     string                   `json:"certificateId"`
	Subject           string                   `json:"subject,omitempty"`
	Indication        indication.Indication    `json:"indication"`
	SubIndication     indication.SubIndication `json:"subIndication,omitempty"`
	BestSignatureTime *time.Time               `json:"bestSignatureTime,omitempty"`
	Qualification     string                   `json:"qualification"`
	// PastValidation holds when the verdict was recovered at an earlier control time.
	PastValidation bool     `json:"pastValidation,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Simple is the roll-up qualification per signature, timestamp or certificate.
type Simple struct {
	ValidationTime time.Time     `json:"validationTime"`
	Policy         string        `json:"policy"`
	ValidCount     int           `json:"validCount"`
	TotalCount     int           `json:"totalCount"`
	Tokens         []SimpleToken `json:"tokens"`
}

// Reports bundles both reports of one run.
type Reports struct {
	// RunID identifies the run, set when the reports are stored.
	RunID    string    `json:"runId,omitempty"`
	Detailed *Detailed `json:"detailed"`
	Simple   *Simple   `json:"simple"`
}

// NewReports builds the simple report from d.
func NewReports(d *Detailed) *Reports {
	return &Reports{Detailed: d, Simple: Summarize(d)}
}

// Summarize rolls d up into a simple report. Signature indications are reported
// as TOTAL_PASSED or TOTAL_FAILED when conclusive.
func Summarize(d *Detailed) *Simple {
	s := &Simple{ValidationTime: d.ValidationTime, Policy: d.Policy}
	for _, t := range d.Tokens() {
		st := SimpleToken{
			ID:                t.ID,
			Kind:              t.Kind,
			CertificateID:     t.CertificateID,
			Subject:           t.Subject,
			Indication:        t.Conclusion.Indication,
			SubIndication:     t.Conclusion.SubIndication,
			BestSignatureTime: t.BestSignatureTime,
			Qualification:     LevelNotQualified,
			PastValidation:    t.PSV != nil && t.PSV.Entered && t.Conclusion.Passed(),
		}
		if t.Kind == KindSignature {
			st.Indication = indication.Total(st.Indication)
		}
		if t.Qualification != nil {
			st.Qualification = t.Qualification.Level
		}
		st.Errors, st.Warnings = messages(t)

		if t.Conclusion.Passed() {
			s.ValidCount++
		}
		s.Tokens = append(s.Tokens, st)
	}
	s.TotalCount = len(s.Tokens)
	return s
}

// messages collects the failing FAIL-level constraint and every WARN failure across
// the building blocks of t.
func messages(t *Token) (errs, warns []string) {
	blocks := []*rules.Conclusion{t.BasicValidation}
	if t.XCV != nil {
		blocks = append(blocks, t.XCV.Conclusion)
		for _, c := range t.XCV.Certificates {
			blocks = append(blocks, c.Conclusion)
		}
	}
	if t.PSV != nil && t.PSV.Entered {
		blocks = append(blocks, t.PSV.Conclusion)
	}

	for _, b := range blocks {
		if b == nil {
			continue
		}
		for _, w := range b.Warnings() {
			warns = append(warns, describe(w))
		}
	}
	if !t.Conclusion.Passed() {
		for _, b := range blocks {
			if f := b.Failure(); f != nil && f.SubIndication == t.Conclusion.SubIndication {
				errs = append(errs, describe(*f))
				break
			}
		}
		if len(errs) == 0 {
			errs = append(errs, string(t.Conclusion.Indication)+"/"+string(t.Conclusion.SubIndication))
		}
	}
	return errs, warns
}

func describe(r rules.ConstraintResult) string {
	if r.Detail == "" {
		return r.Name
	}
	return r.Name + ": " + r.Detail
}
