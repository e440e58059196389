package bigram

import (
	"errors"
	"math"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDoesNotCrossLineBoundary(t *testing.T) {
	table, err := Build(strings.NewReader("AB\nCD\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, table.Count("AB"))
	assert.Equal(t, 1, table.Count("CD"))
	assert.Equal(t, 0, table.Count("BC"))
	assert.Equal(t, 2, table.Total())
	assert.Equal(t, 2, table.Len())
}

func TestBuildNormalizesCaseAndPunctuation(t *testing.T) {
	table := BuildLines([]string{"  he, said  "})

	assert.Equal(t, 1, table.Count("HE"))
	assert.Equal(t, 1, table.Count("E "))
	assert.Equal(t, 1, table.Count("  "))
	assert.Equal(t, 1, table.Count(" S"))
	assert.Equal(t, 1, table.Count("ai"))
	assert.Equal(t, 0, table.Count("D "), "trailing whitespace is trimmed before pairing")
}

func TestBuildLinesMatchesBuild(t *testing.T) {
	lines := []string{"The quick brown fox", "jumps over", "", "the lazy dog."}
	fromReader, err := Build(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	fromLines := BuildLines(lines)

	assert.Equal(t, fromLines.Counts(), fromReader.Counts())
}

func TestBuildAcceptsVeryLongLines(t *testing.T) {
	long := strings.Repeat("ab", 3<<20)
	table, err := Build(strings.NewReader(long + "\ncd"))
	require.NoError(t, err)

	assert.Equal(t, 3<<20, table.Count("AB"))
	assert.Equal(t, 3<<20-1, table.Count("BA"))
	assert.Equal(t, 1, table.Count("CD"))
	assert.Equal(t, 0, table.Count("BC"))
}

func TestBuildPropagatesReadErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(iotest.ErrReader(boom))
	require.ErrorIs(t, err, boom)
}

func TestMissingPairsReadAsZero(t *testing.T) {
	table := BuildLines([]string{"AB"})

	assert.Equal(t, 0, table.Count("ZZ"))
	assert.Equal(t, 0, table.Count("not a pair"))
	assert.Equal(t, 0, table.CountSymbols(-1, 3))
	_, ok := table.LogCount(25, 25)
	assert.False(t, ok)
	assert.Equal(t, 1, table.Len(), "reads never insert entries")
}

func TestLogCount(t *testing.T) {
	table := BuildLines([]string{"ABABAB"})

	logAB, ok := table.LogCount(0, 1)
	require.True(t, ok)
	assert.InDelta(t, math.Log(3), logAB, 1e-12)
	logBA, ok := table.LogCount(1, 0)
	require.True(t, ok)
	assert.InDelta(t, math.Log(2), logBA, 1e-12)
}

func TestPairsOrder(t *testing.T) {
	table := BuildLines([]string{"AAAB", "CD", "CD"})

	pairs := table.Pairs()
	require.Len(t, pairs, 3)
	assert.Equal(t, PairCount{Pair: "AA", Count: 2}, pairs[0])
	assert.Equal(t, PairCount{Pair: "CD", Count: 2}, pairs[1])
	assert.Equal(t, PairCount{Pair: "AB", Count: 1}, pairs[2])
}

func TestFromCountsRoundTrip(t *testing.T) {
	original := BuildLines([]string{"the cat sat on the mat"})
	rebuilt, err := FromCounts(original.Counts())
	require.NoError(t, err)

	assert.Equal(t, original.Counts(), rebuilt.Counts())
	assert.Equal(t, original.Total(), rebuilt.Total())
}

func TestFromCountsRejectsMalformed(t *testing.T) {
	_, err := FromCounts(map[string]int{"A1": 3})
	require.ErrorIs(t, err, ErrMalformedPair)

	_, err = FromCounts(map[string]int{"ABC": 3})
	require.ErrorIs(t, err, ErrMalformedPair)

	_, err = FromCounts(map[string]int{"AB": -1})
	require.Error(t, err)
}

func TestTally(t *testing.T) {
	var c Counts
	c.Tally([]byte{0})
	c.Tally(nil)
	assert.Equal(t, Counts{}, c)

	c.Tally([]byte{0, 1, 0})
	assert.Equal(t, 1, c[0][1])
	assert.Equal(t, 1, c[1][0])
}
