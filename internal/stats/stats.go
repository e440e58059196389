// Package stats contains score statistics and reporting.
package stats

import (
	"math"
	"strings"

	mstats "github.com/montanaflynn/stats"
)

const sparkChars = " .:-=+*#%@"

// Spread summarizes a set of scores.
type Spread struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes the spread of the given scores.
func Summarize(values []float64) (Spread, error) {
	if len(values) == 0 {
		return Spread{}, mstats.ErrEmptyInput
	}
	data := mstats.Float64Data(values)
	mean, err := data.Mean()
	if err != nil {
		return Spread{}, err
	}
	median, err := data.Median()
	if err != nil {
		return Spread{}, err
	}
	stdDev, err := data.StandardDeviation()
	if err != nil {
		return Spread{}, err
	}
	minVal, err := data.Min()
	if err != nil {
		return Spread{}, err
	}
	maxVal, err := data.Max()
	if err != nil {
		return Spread{}, err
	}
	return Spread{
		Count:  len(values),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    minVal,
		Max:    maxVal,
	}, nil
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if maxVal-minVal < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
