package similarity

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ScorerSuite struct {
	suite.Suite
	scorer *Scorer
}

func (s *ScorerSuite) SetupTest() {
	s.scorer = NewScorer()
}

func TestScorerSuite(t *testing.T) {
	suite.Run(t, new(ScorerSuite))
}

func (s *ScorerSuite) TestScore() {
	s.Run("identical names score 1.0", func() {
		s.InDelta(1.0, s.scorer.Score("Vladimir Putin", "Vladimir Putin"), 1e-9)
	})

	s.Run("case and diacritics are ignored", func() {
		s.InDelta(1.0, s.scorer.Score("MÜLLER", "muller"), 1e-9)
	})

	s.Run("single edit over five runes scores 0.8", func() {
		s.InDelta(0.8, s.scorer.Score("Smith", "Smyth"), 1e-9)
	})

	s.Run("empty input scores 0.0", func() {
		s.Zero(s.scorer.Score("", "Smith"))
		s.Zero(s.scorer.Score("Smith", ""))
		s.Zero(s.scorer.Score("***", "Smith"))
	})

	s.Run("dissimilar names score low", func() {
		s.Less(s.scorer.Score("John Smith", "Vladimir Putin"), 0.5)
	})

	s.Run("score is symmetric", func() {
		s.InDelta(
			s.scorer.Score("Katherine", "Catherine"),
			s.scorer.Score("Catherine", "Katherine"),
			1e-9,
		)
	})

	s.Run("score stays within bounds", func() {
		for _, pair := range [][2]string{
			{"a", "zzzzzzzzzz"},
			{"Vladimir Putin", "Vladimir Putinov"},
			{"Acme Corp", "Acme Corporation"},
		} {
			score := s.scorer.Score(pair[0], pair[1])
			s.GreaterOrEqual(score, 0.0)
			s.LessOrEqual(score, 1.0)
		}
	})
}
