// Package bigram builds letter-pair frequency tables from reference text.
package bigram

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/subcrack/internal/alphabet"
)

// ErrMalformedPair reports a pair key that is not two alphabet symbols.
var ErrMalformedPair = errors.New("malformed bigram")

// Counts tallies ordered symbol pairs. The zero value is ready to use.
type Counts [alphabet.Size][alphabet.Size]int

// Tally counts every adjacent pair in symbols.
func (c *Counts) Tally(symbols []byte) {
	for i := 0; i+1 < len(symbols); i++ {
		c[symbols[i]][symbols[i+1]]++
	}
}

// Table is an immutable bigram frequency table.
type Table struct {
	counts Counts
	logs   [alphabet.Size][alphabet.Size]float64
	total  int
	pairs  int
}

// PairCount is a single table entry.
type PairCount struct {
	Pair  string
	Count int
}

// Build reads r line by line and counts the pairs inside each line.
// Pairs never span a line break. Lines may be of any length.
func Build(r io.Reader) (*Table, error) {
	var counts Counts
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			counts.Tally(normalizeLine(line))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus: %w", err)
		}
	}
	return newTable(counts), nil
}

// BuildLines counts the pairs inside each of the given lines.
func BuildLines(lines []string) *Table {
	var counts Counts
	for _, line := range lines {
		counts.Tally(normalizeLine(line))
	}
	return newTable(counts)
}

// FromCounts rebuilds a table from pair keys such as "TH" or "E ".
func FromCounts(entries map[string]int) (*Table, error) {
	var counts Counts
	for pair, n := range entries {
		a, b, err := parsePair(pair)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative count %d for %q", n, pair)
		}
		counts[a][b] += n
	}
	return newTable(counts), nil
}

func normalizeLine(line string) []byte {
	return alphabet.Normalize(strings.TrimSpace(line))
}

func newTable(counts Counts) *Table {
	t := &Table{counts: counts}
	for a := range counts {
		for b, n := range counts[a] {
			if n <= 0 {
				continue
			}
			t.logs[a][b] = math.Log(float64(n))
			t.total += n
			t.pairs++
		}
	}
	return t
}

func parsePair(pair string) (int, int, error) {
	if len(pair) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedPair, pair)
	}
	a, ok := symbolOf(pair[0])
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedPair, pair)
	}
	b, ok := symbolOf(pair[1])
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedPair, pair)
	}
	return a, b, nil
}

func symbolOf(c byte) (int, bool) {
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	case c == ' ':
		return alphabet.Space, true
	default:
		return 0, false
	}
}

// Count returns the count for a two-character pair. Unknown or malformed
// pairs count as zero.
func (t *Table) Count(pair string) int {
	a, b, err := parsePair(strings.ToUpper(pair))
	if err != nil {
		return 0
	}
	return t.counts[a][b]
}

// CountSymbols returns the count for a pair of symbol indices.
func (t *Table) CountSymbols(a, b int) int {
	if a < 0 || a >= alphabet.Size || b < 0 || b >= alphabet.Size {
		return 0
	}
	return t.counts[a][b]
}

// Has reports whether the pair was observed.
func (t *Table) Has(a, b int) bool {
	return t.CountSymbols(a, b) > 0
}

// LogCount returns ln(count) for an observed pair.
func (t *Table) LogCount(a, b int) (float64, bool) {
	if !t.Has(a, b) {
		return 0, false
	}
	return t.logs[a][b], true
}

// Total returns the number of pairs counted.
func (t *Table) Total() int {
	return t.total
}

// Len returns the number of distinct observed pairs.
func (t *Table) Len() int {
	return t.pairs
}

// Pairs returns observed pairs, most frequent first.
func (t *Table) Pairs() []PairCount {
	out := make([]PairCount, 0, t.pairs)
	for a := range t.counts {
		for b, n := range t.counts[a] {
			if n == 0 {
				continue
			}
			out = append(out, PairCount{
				Pair:  string([]byte{alphabet.Symbol(a), alphabet.Symbol(b)}),
				Count: n,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Pair < out[j].Pair
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Counts returns a copy of the observed pairs keyed by pair string.
func (t *Table) Counts() map[string]int {
	out := make(map[string]int, t.pairs)
	for _, pc := range t.Pairs() {
		out[pc.Pair] = pc.Count
	}
	return out
}
