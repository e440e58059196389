package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/subcrack/internal/mcmc"
)

func TestRenderFooterFormats(t *testing.T) {
	m := NewModel("ABC", nil, mcmc.RunnerConfig{Iterations: 5000, Trials: 3}, nil, nil)
	m.done = true
	m.applyProgress(mcmc.Progress{Trial: 1, Iteration: 2000, CurrentScore: 12.25, BestScore: 40.5})
	m.applyTrialDone(mcmc.TrialResult{Trial: 0, Iterations: 5000, BestScore: 38})

	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Trial 2/3", "Iter 2000/5000", "Score 12.25", "Best 40.50", "Done 1/3"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
	if strings.Contains(out, "Match") {
		t.Fatalf("expected no match segment without expected key: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
