package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/subcrack/internal/bigram"
)

func TestTopPairs(t *testing.T) {
	table := bigram.BuildLines([]string{"the then", "th"})
	top := TopPairs(table, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(top))
	}
	if top[0].Pair != "TH" || top[0].Count != 3 {
		t.Fatalf("unexpected top pair: %+v", top[0])
	}
	if top[1].Pair != "HE" {
		t.Fatalf("unexpected second pair: %+v", top[1])
	}
	if got := TopPairs(table, 100); len(got) != table.Len() {
		t.Fatalf("expected all %d pairs, got %d", table.Len(), len(got))
	}
}

func TestRenderTopPairsLabelsSpace(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTopPairs(&buf, bigram.BuildLines([]string{"a b"}), 5); err != nil {
		t.Fatalf("RenderTopPairs failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "A_") || !strings.Contains(out, "_B") {
		t.Fatalf("expected space rendered as underscore: %s", out)
	}
	if !strings.Contains(out, "50.00%") {
		t.Fatalf("expected share column: %s", out)
	}
}
