package risk

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	dErrors "vetting/pkg/domain-errors"
)

// Signal names produced by the review service for the default policy.
const (
	SignalLicenseValid         = "license_valid"
	SignalPoliceClearanceValid = "police_clearance_valid"
	SignalMedicalValid         = "medical_valid"
	SignalSltdaLicensed        = "sltda_licensed"
	SignalDocumentsApproved    = "documents_approved"
	SignalPhotosApproved       = "photos_approved"
	SignalExperienced          = "experienced"
)

// PolicyFactor names a signal and its weight within a policy version.
type PolicyFactor struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Policy is an immutable weighting table. Scores carry the version they were
// computed under so they can be reproduced later.
type Policy struct {
	Version       string         `yaml:"version" json:"version"`
	EffectiveFrom time.Time      `yaml:"effective_from" json:"effective_from"`
	Factors       []PolicyFactor `yaml:"factors" json:"factors"`
}

// Evaluate binds signals to the policy's factors and scores them. Every factor
// must have a signal; a missing one is a caller bug, not an implicit false.
func (p Policy) Evaluate(signals map[string]bool) (Assessment, error) {
	factors := make([]Factor, 0, len(p.Factors))
	for _, pf := range p.Factors {
		v, ok := signals[pf.Name]
		if !ok {
			return Assessment{}, dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("policy %s: signal %q not provided", p.Version, pf.Name))
		}
		factors = append(factors, Factor{Name: pf.Name, Weight: pf.Weight, Value: v})
	}
	a, err := Assess(factors)
	if err != nil {
		return Assessment{}, err
	}
	a.PolicyVersion = p.Version
	return a, nil
}

func (p Policy) validate() error {
	if p.Version == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "policy version is required")
	}
	if len(p.Factors) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "policy "+p.Version+" has no factors")
	}
	seen := make(map[string]struct{}, len(p.Factors))
	for _, f := range p.Factors {
		if f.Name == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "policy "+p.Version+" has an unnamed factor")
		}
		if f.Weight <= 0 {
			return dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("policy %s: factor %q must have a positive weight", p.Version, f.Name))
		}
		if _, dup := seen[f.Name]; dup {
			return dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("policy %s: duplicate factor %q", p.Version, f.Name))
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// PolicyBook holds every policy version that was ever active plus the one in
// force now.
type PolicyBook struct {
	Active   string   `yaml:"active" json:"active"`
	Policies []Policy `yaml:"policies" json:"policies"`

	byVersion map[string]Policy
}

// NewPolicyBook validates the policies and indexes them by version.
func NewPolicyBook(active string, policies ...Policy) (*PolicyBook, error) {
	b := &PolicyBook{Active: active, Policies: policies}
	if err := b.index(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *PolicyBook) index() error {
	b.byVersion = make(map[string]Policy, len(b.Policies))
	for _, p := range b.Policies {
		if err := p.validate(); err != nil {
			return err
		}
		if _, dup := b.byVersion[p.Version]; dup {
			return dErrors.New(dErrors.CodeInvalidInput, "duplicate policy version "+p.Version)
		}
		b.byVersion[p.Version] = p
	}
	if _, ok := b.byVersion[b.Active]; !ok {
		return dErrors.New(dErrors.CodeInvalidInput, "active policy "+b.Active+" is not defined")
	}
	return nil
}

// Current returns the policy in force.
func (b *PolicyBook) Current() Policy {
	return b.byVersion[b.Active]
}

// Version returns a historical policy by version.
func (b *PolicyBook) Version(v string) (Policy, error) {
	p, ok := b.byVersion[v]
	if !ok {
		return Policy{}, dErrors.New(dErrors.CodeNotFound, "unknown policy version "+v)
	}
	return p, nil
}

// LoadPolicyBook reads a YAML policy book from path.
func LoadPolicyBook(path string) (*PolicyBook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy book: %w", err)
	}
	return ParsePolicyBook(raw)
}

// ParsePolicyBook decodes and validates a YAML policy book.
func ParsePolicyBook(raw []byte) (*PolicyBook, error) {
	var b PolicyBook
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed policy book")
	}
	if err := b.index(); err != nil {
		return nil, err
	}
	return &b, nil
}

// DefaultPolicyBook is used when no policy file is configured.
func DefaultPolicyBook() *PolicyBook {
	b, err := NewPolicyBook("2024-01", Policy{
		Version:       "2024-01",
		EffectiveFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Factors: []PolicyFactor{
			{Name: SignalLicenseValid, Weight: 5},
			{Name: SignalPoliceClearanceValid, Weight: 4},
			{Name: SignalMedicalValid, Weight: 2},
			{Name: SignalSltdaLicensed, Weight: 3},
			{Name: SignalDocumentsApproved, Weight: 4},
			{Name: SignalPhotosApproved, Weight: 2},
			{Name: SignalExperienced, Weight: 2},
		},
	})
	if err != nil {
		panic(err)
	}
	return b
}
