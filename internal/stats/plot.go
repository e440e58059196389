// Package stats contains score statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is one named score trace.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	axisLabelWidth    = 10
	axisSeparator     = " │ "
	colorReset        = "\x1b[0m"
	fallbackTermWidth = 80
)

var (
	traceMarkers = []rune("*o+x#@%&")
	tracePalette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m", "\x1b[34m"}
)

// PlotTraces draws every series as a row of markers on one shared
// vertical scale. Where two series land on the same cell the later one
// is shown.
func PlotTraces(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmptySeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	lo, hi := math.Inf(1), math.Inf(-1)
	columns := make([][]float64, len(series))
	for i, s := range series {
		columns[i] = resample(s.Values, width)
		for _, v := range columns[i] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo < 1e-9 {
		lo--
		hi++
	}

	grid := make([][]int, height)
	for y := range grid {
		grid[y] = make([]int, width)
		for x := range grid[y] {
			grid[y][x] = -1
		}
	}
	for si, col := range columns {
		for x, v := range col {
			grid[rowFor(v, lo, hi, height)][x] = si
		}
	}

	useColor := shouldUseColor(w, forceColor)
	labels := axisLabels(height, lo, hi)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y, cells := range grid {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", axisLabelWidth, labels[y], axisSeparator)
		for _, si := range cells {
			if si < 0 {
				row.WriteByte(' ')
				continue
			}
			row.WriteString(paintTrace(string(traceMarker(si)), si, useColor))
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, traceLegend(series, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := axisLabelWidth + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axisWidth, minPlotWidth)
}

func nonEmptySeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// resample averages values into width buckets, or stretches them by
// repeating points when there are fewer values than columns.
func resample(values []float64, width int) []float64 {
	n := len(values)
	out := make([]float64, width)
	if n < width {
		for i := range out {
			out[i] = values[i*n/width]
		}
		return out
	}
	for i := range out {
		start, end := i*n/width, (i+1)*n/width
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func rowFor(v, lo, hi float64, height int) int {
	if height <= 1 {
		return 0
	}
	row := int(math.Round((hi - v) / (hi - lo) * float64(height-1)))
	return min(max(row, 0), height-1)
}

func axisLabels(height int, lo, hi float64) []string {
	labels := make([]string, height)
	labels[0] = axisLabel(hi)
	if height > 2 {
		labels[height/2] = axisLabel((lo + hi) / 2)
	}
	if height > 1 {
		labels[height-1] = axisLabel(lo)
	}
	return labels
}

func axisLabel(v float64) string {
	label := fmt.Sprintf("%.1f", v)
	if len(label) > axisLabelWidth {
		label = fmt.Sprintf("%.3g", v)
	}
	return label
}

func traceMarker(i int) rune {
	return traceMarkers[i%len(traceMarkers)]
}

func paintTrace(s string, i int, useColor bool) string {
	if !useColor {
		return s
	}
	return tracePalette[i%len(tracePalette)] + s + colorReset
}

func traceLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		parts = append(parts, paintTrace(fmt.Sprintf("%c %s", traceMarker(i), s.Name), i, useColor))
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
