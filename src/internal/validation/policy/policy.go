// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	"embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/helper/codec"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/indication"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/rules"
)

// EnvPolicyFile names the environment variable consulted when no policy path is given.
const EnvPolicyFile = "X509_TRUST_POLICY_FILE"

//go:embed default.yaml schema.json
var embeddedFS embed.FS

var (
	// ErrInvalidPolicy indicates a policy document that does not match the schema
	// or carries unusable values.
	ErrInvalidPolicy = errors.New("policy: invalid validation policy")

	// ErrNilPolicy indicates a validation requested without a policy.
	ErrNilPolicy = errors.New("policy: nil policy")
)

// Cryptographic holds the algorithm acceptance tables.
type Cryptographic struct {
	// Algorithms maps digest and encryption algorithm names to the date from which
	// they are no longer reliable; a nil date means no known expiry.
	Algorithms map[string]*time.Time `json:"algorithms" yaml:"algorithms"`
	// MinKeySizes maps public key algorithms to their minimum size in bits.
	MinKeySizes map[string]int `json:"minKeySizes" yaml:"minKeySizes"`
}

// TrustServiceConstraints lists the accepted trusted-list values.
type TrustServiceConstraints struct {
	AcceptedStatuses []string `json:"acceptedStatuses" yaml:"acceptedStatuses"`
	AcceptedTypes    []string `json:"acceptedTypes" yaml:"acceptedTypes"`
	// Qualifications lists the service qualifiers that make a certificate qualified.
	Qualifications []string `json:"qualifications" yaml:"qualifications"`
}

// PastValidation configures when past validation is attempted.
type PastValidation struct {
	EntrySubIndications []indication.SubIndication `json:"entrySubIndications" yaml:"entrySubIndications"`
}

// TrustedList configures the trust-service snapshot.
type TrustedList struct {
	MaxAge string `json:"maxAge" yaml:"maxAge"`
}

// Policy is a validation policy: per-context constraint levels plus the value sets
// the constraints are checked against.
type Policy struct {
	Name           string                         `json:"name" yaml:"name"`
	Description    string                         `json:"description,omitempty" yaml:"description,omitempty"`
	Constraints    map[rules.Context]rules.Levels `json:"constraints" yaml:"constraints"`
	Cryptographic  Cryptographic                  `json:"cryptographic" yaml:"cryptographic"`
	TrustServices  TrustServiceConstraints        `json:"trustServices" yaml:"trustServices"`
	PastValidation PastValidation                 `json:"pastValidation" yaml:"pastValidation"`
	TrustedList    TrustedList                    `json:"trustedList" yaml:"trustedList"`

	maxAge time.Duration
}

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	raw, err := embeddedFS.ReadFile("schema.json")
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
})

// validateDocument checks a raw policy document against the embedded JSON schema.
func validateDocument(data []byte, format codec.Format) error {
	var doc any
	if err := codec.Unmarshal(data, &doc, format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	if doc == nil {
		return nil
	}

	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("policy: failed to compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPolicy, strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates data and merges it over the default policy. Constraint levels and
// cryptographic tables are merged entry by entry; lists replace the default lists.
func Parse(data []byte, format codec.Format) (*Policy, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}
	if err := validateDocument(data, format); err != nil {
		return nil, err
	}
	override := &Policy{}
	if err := codec.Unmarshal(data, override, format); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	p.merge(override)
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) merge(o *Policy) {
	if o.Name != "" {
		p.Name = o.Name
	}
	if o.Description != "" {
		p.Description = o.Description
	}
	for ctx, levels := range o.Constraints {
		if p.Constraints[ctx] == nil {
			p.Constraints[ctx] = make(rules.Levels, len(levels))
		}
		maps.Copy(p.Constraints[ctx], levels)
	}
	maps.Copy(p.Cryptographic.Algorithms, o.Cryptographic.Algorithms)
	maps.Copy(p.Cryptographic.MinKeySizes, o.Cryptographic.MinKeySizes)
	if o.TrustServices.AcceptedStatuses != nil {
		p.TrustServices.AcceptedStatuses = o.TrustServices.AcceptedStatuses
	}
	if o.TrustServices.AcceptedTypes != nil {
		p.TrustServices.AcceptedTypes = o.TrustServices.AcceptedTypes
	}
	if o.TrustServices.Qualifications != nil {
		p.TrustServices.Qualifications = o.TrustServices.Qualifications
	}
	if o.PastValidation.EntrySubIndications != nil {
		p.PastValidation.EntrySubIndications = o.PastValidation.EntrySubIndications
	}
	if o.TrustedList.MaxAge != "" {
		p.TrustedList.MaxAge = o.TrustedList.MaxAge
	}
}

// Default returns a fresh copy of the embedded default policy.
func Default() (*Policy, error) {
	raw, err := embeddedFS.ReadFile("default.yaml")
	if err != nil {
		return nil, fmt.Errorf("policy: failed to read default policy: %w", err)
	}
	if err := validateDocument(raw, codec.FormatYAML); err != nil {
		return nil, err
	}
	p := &Policy{}
	if err := codec.Unmarshal(raw, p, codec.FormatYAML); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load loads a policy file, falling back to the path in EnvPolicyFile and then to
// the default policy.
//
// Configuration Priority:
//  1. Embedded default policy
//  2. path, or the X509_TRUST_POLICY_FILE environment variable if path is empty
func Load(path string) (*Policy, error) {
	if path == "" {
		path = os.Getenv(EnvPolicyFile)
	}
	if path == "" {
		return Default()
	}
	data, err := codec.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return Parse(data, codec.DetectFormat(path))
}

func (p *Policy) finish() error {
	if p.Constraints == nil {
		p.Constraints = make(map[rules.Context]rules.Levels)
	}
	if p.Cryptographic.Algorithms == nil {
		p.Cryptographic.Algorithms = make(map[string]*time.Time)
	}
	if p.Cryptographic.MinKeySizes == nil {
		p.Cryptographic.MinKeySizes = make(map[string]int)
	}
	for ctx, levels := range p.Constraints {
		for name, lvl := range levels {
			parsed, err := rules.ParseLevel(string(lvl))
			if err != nil {
				return fmt.Errorf("%w: %s/%s: %w", ErrInvalidPolicy, ctx, name, err)
			}
			levels[name] = parsed
		}
	}
	p.maxAge = 0
	if p.TrustedList.MaxAge != "" {
		d, err := time.ParseDuration(p.TrustedList.MaxAge)
		if err != nil {
			return fmt.Errorf("%w: trustedList.maxAge: %w", ErrInvalidPolicy, err)
		}
		p.maxAge = d
	}
	return nil
}

// Levels returns the constraint levels configured for ctx.
func (p *Policy) Levels(ctx rules.Context) rules.Levels {
	return p.Constraints[ctx]
}

// TrustedListMaxAge returns the maximum age of a trust-service snapshot; zero means
// snapshots never go stale.
func (p *Policy) TrustedListMaxAge() time.Duration { return p.maxAge }

// AcceptsTrustService reports whether a trust-service record carries an accepted
// status and type.
func (p *Policy) AcceptsTrustService(rec diagnostic.TrustServiceRecord) bool {
	return containsFold(p.TrustServices.AcceptedStatuses, rec.Status) &&
		containsFold(p.TrustServices.AcceptedTypes, rec.Type)
}

// Qualifies reports whether an accepted record also carries a qualification qualifier.
func (p *Policy) Qualifies(rec diagnostic.TrustServiceRecord) bool {
	if !p.AcceptsTrustService(rec) {
		return false
	}
	for _, q := range rec.Qualifiers {
		if containsFold(p.TrustServices.Qualifications, q) {
			return true
		}
	}
	return false
}

// PastValidationEntry reports whether sub opens past validation.
func (p *Policy) PastValidationEntry(sub indication.SubIndication) bool {
	if len(p.PastValidation.EntrySubIndications) == 0 {
		return indication.IsNoPOE(sub)
	}
	return slices.Contains(p.PastValidation.EntrySubIndications, sub)
}

func containsFold(list []string, v string) bool {
	return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, v) })
}
