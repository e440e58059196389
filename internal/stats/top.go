package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/subcrack/internal/bigram"
)

// TopPairs returns the n most frequent pairs of a table.
func TopPairs(table *bigram.Table, n int) []bigram.PairCount {
	if n <= 0 || table == nil {
		return nil
	}
	pairs := table.Pairs()
	if n > len(pairs) {
		n = len(pairs)
	}
	return pairs[:n]
}

// RenderTopPairs prints the most frequent pairs with their share of all
// counted pairs.
func RenderTopPairs(w io.Writer, table *bigram.Table, n int) error {
	top := TopPairs(table, n)
	if len(top) == 0 {
		_, err := fmt.Fprintln(w, "No pairs found.")
		return err
	}
	rows := make([][]string, 0, len(top))
	for _, pc := range top {
		rows = append(rows, []string{
			pairLabel(pc.Pair),
			fmt.Sprintf("%d", pc.Count),
			fmt.Sprintf("%.2f%%", float64(pc.Count)/float64(table.Total())*100),
		})
	}
	for _, line := range formatTable([]string{"Pair", "Count", "Share"}, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func pairLabel(pair string) string {
	out := make([]byte, 0, len(pair))
	for i := 0; i < len(pair); i++ {
		if pair[i] == ' ' {
			out = append(out, '_')
			continue
		}
		out = append(out, pair[i])
	}
	return string(out)
}
