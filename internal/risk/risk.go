// Package risk computes the advisory risk score shown next to each driver in
// the review queue. The score never gates a status transition.
package risk

import (
	"cmp"
	"math"
	"slices"

	dErrors "vetting/pkg/domain-errors"
)

// Level buckets a score for display and sorting.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

const (
	lowCeiling    = 25
	mediumCeiling = 60
)

// Factor is one weighted boolean signal. A true value lowers the risk.
type Factor struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
	Value  bool    `json:"value" yaml:"value"`
}

// Assessment is derived on demand and never persisted as a source of truth.
type Assessment struct {
	Score         int    `json:"risk_score"`
	Level         Level  `json:"level"`
	PolicyVersion string `json:"policy_version,omitempty"`
}

// Assess scores a factor set:
//
//	score = round(100 × (1 − achieved/total))
//
// Factors are summed in a canonical order so any permutation of the input
// yields a bit-identical score.
func Assess(factors []Factor) (Assessment, error) {
	if len(factors) == 0 {
		return Assessment{}, dErrors.New(dErrors.CodeInvalidInput, "risk factor set is empty")
	}
	for _, f := range factors {
		if math.IsNaN(f.Weight) || math.IsInf(f.Weight, 0) || f.Weight <= 0 {
			return Assessment{}, dErrors.New(dErrors.CodeInvalidInput, "risk factor "+f.Name+" must have a positive weight")
		}
	}

	sorted := slices.Clone(factors)
	slices.SortFunc(sorted, compareFactors)

	var total, achieved float64
	for _, f := range sorted {
		total += f.Weight
		if f.Value {
			achieved += f.Weight
		}
	}
	if total == 0 {
		return Assessment{}, dErrors.New(dErrors.CodeInvalidInput, "total risk weight is zero")
	}

	score := int(math.Round(100 * (total - achieved) / total))
	score = min(max(score, 0), 100)
	return Assessment{Score: score, Level: LevelFor(score)}, nil
}

// LevelFor maps a score to its level. It is monotonic non-decreasing.
func LevelFor(score int) Level {
	switch {
	case score <= lowCeiling:
		return LevelLow
	case score <= mediumCeiling:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Rank orders levels for comparisons.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	default:
		return -1
	}
}

func compareFactors(a, b Factor) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Weight, b.Weight); c != 0 {
		return c
	}
	switch {
	case a.Value == b.Value:
		return 0
	case !a.Value:
		return -1
	default:
		return 1
	}
}
