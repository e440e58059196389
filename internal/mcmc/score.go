// Package mcmc searches for substitution keys with a Metropolis sampler
// guided by bigram statistics.
package mcmc

import (
	"github.com/verte-zerg/subcrack/internal/alphabet"
	"github.com/verte-zerg/subcrack/internal/bigram"
	"github.com/verte-zerg/subcrack/internal/cipher"
)

// Scorer rates candidate keys against a fixed ciphertext and trained table.
// A Scorer is not safe for concurrent use; Clone it per goroutine.
type Scorer struct {
	symbols []byte
	table   *bigram.Table
	buf     []byte
}

// NewScorer normalizes ciphertext once for repeated scoring.
func NewScorer(ciphertext string, table *bigram.Table) *Scorer {
	return &Scorer{
		symbols: alphabet.TrimSpace(alphabet.Normalize(ciphertext)),
		table:   table,
	}
}

// Clone returns a scorer sharing the read-only inputs with its own buffer.
func (s *Scorer) Clone() *Scorer {
	return &Scorer{symbols: s.symbols, table: s.table}
}

// Score decrypts with k and sums count*ln(trained count) over every pair
// of the decryption that also occurs in the trained table.
func (s *Scorer) Score(k cipher.Key) float64 {
	if len(s.symbols) < 2 || s.table == nil {
		return 0
	}
	s.buf = k.ApplySymbols(s.buf, s.symbols)
	var counts bigram.Counts
	counts.Tally(s.buf)

	score := 0.0
	for a := range counts {
		for b, c := range counts[a] {
			if c == 0 {
				continue
			}
			logF, ok := s.table.LogCount(a, b)
			if !ok {
				continue
			}
			score += float64(c) * logF
		}
	}
	return score
}

// Score rates a single key. Use a Scorer when scoring repeatedly.
func Score(k cipher.Key, ciphertext string, table *bigram.Table) float64 {
	return NewScorer(ciphertext, table).Score(k)
}
