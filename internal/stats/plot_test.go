package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/verte-zerg/subcrack/internal/model"
)

func TestPlotTraces(t *testing.T) {
	var buf bytes.Buffer
	err := PlotTraces(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
	}, 5, 4, false)
	if err != nil {
		t.Fatalf("PlotTraces failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") {
		t.Fatalf("expected legend in output")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 1+4+1 {
		t.Fatalf("expected at least %d lines of output, got %d", 6, len(lines))
	}
	if !strings.Contains(lines[1], "4.0") {
		t.Fatalf("expected shared max on top axis label: %q", lines[1])
	}
	if !strings.Contains(lines[4], "1.0") {
		t.Fatalf("expected shared min on bottom axis label: %q", lines[4])
	}
}

func TestPlotTracesPlacesMarkers(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotTraces(&buf, "", []Series{{Name: "rise", Values: []float64{1, 9}}}, 10, 3, false); err != nil {
		t.Fatalf("PlotTraces failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasSuffix(lines[0], axisSeparator+"     *****") {
		t.Fatalf("expected late points on the top row: %q", lines[0])
	}
	if !strings.HasSuffix(lines[2], axisSeparator+"*****     ") {
		t.Fatalf("expected early points on the bottom row: %q", lines[2])
	}
	if lines[3] != "Legend: * rise" {
		t.Fatalf("unexpected legend %q", lines[3])
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("expected bucket averages [2 6], got %v", got)
	}
	got = resample([]float64{4, 8}, 4)
	if len(got) != 4 || got[0] != 4 || got[1] != 4 || got[2] != 8 || got[3] != 8 {
		t.Fatalf("expected stretched [4 4 8 8], got %v", got)
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestRenderTracesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTraces(&buf, []model.TrialRecord{{Trial: 0}}, 60, 5, false); err != nil {
		t.Fatalf("RenderTraces failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty traces, got %q", buf.String())
	}
	if err := RenderTraces(&buf, []model.TrialRecord{{Trial: 0, Trace: []float64{1, 5, 9}}}, 60, 5, false); err != nil {
		t.Fatalf("RenderTraces failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Trial 1") {
		t.Fatalf("expected trial legend: %s", buf.String())
	}
}
