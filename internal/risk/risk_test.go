package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "vetting/pkg/domain-errors"
)

// RiskSuite pins the scoring formula and level buckets.
//
// Justification: the score orders the review queue; an off-by-one in the
// buckets silently reorders every admin's work.
type RiskSuite struct {
	suite.Suite
}

func TestRiskSuite(t *testing.T) {
	suite.Run(t, new(RiskSuite))
}

func (s *RiskSuite) TestAssess() {
	s.Run("mostly achieved factors score low", func() {
		a, err := Assess([]Factor{
			{Name: "license", Weight: 5, Value: true},
			{Name: "history", Weight: 3, Value: true},
			{Name: "experience", Weight: 2, Value: false},
		})
		s.Require().NoError(err)
		s.Equal(20, a.Score)
		s.Equal(LevelLow, a.Level)
	})

	s.Run("no achieved factors score 100", func() {
		a, err := Assess([]Factor{
			{Name: "license", Weight: 5, Value: false},
			{Name: "history", Weight: 3, Value: false},
			{Name: "experience", Weight: 2, Value: false},
		})
		s.Require().NoError(err)
		s.Equal(100, a.Score)
		s.Equal(LevelHigh, a.Level)
	})

	s.Run("all achieved factors score 0", func() {
		a, err := Assess([]Factor{{Name: "license", Weight: 1, Value: true}})
		s.Require().NoError(err)
		s.Equal(0, a.Score)
		s.Equal(LevelLow, a.Level)
	})

	s.Run("half rounds away from zero", func() {
		// 1 - 7/8 = 0.125 -> 12.5 -> 13
		a, err := Assess([]Factor{
			{Name: "a", Weight: 7, Value: true},
			{Name: "b", Weight: 1, Value: false},
		})
		s.Require().NoError(err)
		s.Equal(13, a.Score)
	})
}

func (s *RiskSuite) TestAssessRejectsDegenerateInput() {
	cases := map[string][]Factor{
		"empty set":       nil,
		"zero weight":     {{Name: "a", Weight: 0, Value: true}},
		"negative weight": {{Name: "a", Weight: 3, Value: true}, {Name: "b", Weight: -3, Value: false}},
		"NaN weight":      {{Name: "a", Weight: math.NaN(), Value: true}},
		"infinite weight": {{Name: "a", Weight: math.Inf(1), Value: true}},
	}
	for name, factors := range cases {
		s.Run(name, func() {
			_, err := Assess(factors)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func (s *RiskSuite) TestLevelBoundaries() {
	s.Equal(LevelLow, LevelFor(0))
	s.Equal(LevelLow, LevelFor(25))
	s.Equal(LevelMedium, LevelFor(26))
	s.Equal(LevelMedium, LevelFor(60))
	s.Equal(LevelHigh, LevelFor(61))
	s.Equal(LevelHigh, LevelFor(100))
}
