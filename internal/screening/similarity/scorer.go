// Package similarity scores how close a query name is to a watchlist
// candidate. Phonetic codes are deliberately coarse, so every candidate the
// index surfaces gets a precise edit-distance score before it may appear on a
// screening result.
package similarity

import (
	"github.com/agnivade/levenshtein"

	"screenguard/internal/screening/phonetic"
)

// Scorer computes normalized Levenshtein similarity over normalized names.
type Scorer struct{}

// NewScorer constructs a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns a similarity in [0,1]: 1.0 for names that normalize to the
// same string, 0.0 for entirely dissimilar or empty input. The measure is
// 1 - distance/maxLen, matching the filter-threshold semantics of the engine.
func (s *Scorer) Score(queryName, candidateName string) float64 {
	a := phonetic.Normalize(queryName)
	b := phonetic.Normalize(candidateName)

	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}
