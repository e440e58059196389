package stats

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/mcmc"
	"github.com/verte-zerg/subcrack/internal/model"
	"github.com/verte-zerg/subcrack/internal/store"
)

// Report contains the data rendered after a search.
type Report struct {
	Run    model.RunRecord
	Trials []model.TrialRecord
}

// FromOutcome converts a finished search into a report.
func FromOutcome(outcome mcmc.Outcome, source, ciphertext string, cfg mcmc.RunnerConfig, expectKey string) Report {
	run := model.RunRecord{
		StartedAt:     outcome.Started,
		EndedAt:       outcome.Ended,
		Source:        source,
		Ciphertext:    ciphertext,
		Iterations:    cfg.Iterations,
		Trials:        len(outcome.Trials),
		Seed:          outcome.Seed,
		BestKey:       outcome.BestKey.String(),
		BestScore:     outcome.BestScore,
		BaselineScore: outcome.BaselineScore,
		Decrypted:     outcome.Decrypted,
		ExpectKey:     expectKey,
	}
	trials := make([]model.TrialRecord, 0, len(outcome.Trials))
	for _, t := range outcome.Trials {
		trials = append(trials, model.TrialRecord{
			Trial:      t.Trial,
			Seed:       t.Seed,
			BestKey:    t.BestKey.String(),
			BestScore:  t.BestScore,
			Explored:   len(t.Explored),
			Accepted:   t.Accepted,
			DurationMs: t.Duration.Milliseconds(),
			Trace:      t.Trace,
		})
	}
	return Report{Run: run, Trials: trials}
}

// BuildReport loads a stored run.
func BuildReport(ctx context.Context, st *store.Store, runID int64) (Report, error) {
	detail, err := st.GetRun(ctx, runID)
	if err != nil {
		return Report{}, err
	}
	return Report{Run: detail.Run, Trials: detail.Trials}, nil
}

// Agreement compares the best key with the expected one. ok is false
// when no valid expected key was recorded.
func (r Report) Agreement() (matched int, ok bool) {
	if r.Run.ExpectKey == "" {
		return 0, false
	}
	expected, err := cipher.ParseKey(r.Run.ExpectKey)
	if err != nil {
		return 0, false
	}
	found, err := cipher.ParseKey(r.Run.BestKey)
	if err != nil {
		return 0, false
	}
	return found.Agreement(expected), true
}

// RenderReport prints the summary, the trial table and both texts.
func RenderReport(w io.Writer, r Report) error {
	if err := RenderSummary(w, r); err != nil {
		return err
	}
	if err := RenderTrialTable(w, r.Trials); err != nil {
		return err
	}
	if err := RenderTrialDecryptions(w, r); err != nil {
		return err
	}
	lines := []string{
		"Encrypted text:",
		r.Run.Ciphertext,
		"",
		"Decrypted text:",
		r.Run.Decrypted,
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints the headline numbers of a run.
func RenderSummary(w io.Writer, r Report) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Best score: %.4f", r.Run.BestScore),
		fmt.Sprintf("Identity score: %.4f", r.Run.BaselineScore),
		fmt.Sprintf("Best key: %s", r.Run.BestKey),
	}
	if matched, ok := r.Agreement(); ok {
		lines = append(lines, fmt.Sprintf("Expected key: %s (%d/26 letters match)", r.Run.ExpectKey, matched))
	}
	lines = append(lines,
		fmt.Sprintf("Trials: %d x %d iterations (seed %d)", r.Run.Trials, r.Run.Iterations, r.Run.Seed),
		fmt.Sprintf("Elapsed: %s", r.Run.EndedAt.Sub(r.Run.StartedAt).Round(time.Millisecond)),
	)

	explored, accepted := 0, 0
	scores := make([]float64, 0, len(r.Trials))
	for _, t := range r.Trials {
		explored += t.Explored
		accepted += t.Accepted
		scores = append(scores, t.BestScore)
	}
	if total := r.Run.Iterations * len(r.Trials); total > 0 {
		lines = append(lines, fmt.Sprintf("Explored keys: %d  Accepted: %.2f%%", explored, float64(accepted)/float64(total)*100))
	}
	if spread, err := Summarize(scores); err == nil && spread.Count > 1 {
		lines = append(lines, fmt.Sprintf("Trial scores: mean=%.2f median=%.2f stddev=%.2f min=%.2f max=%.2f",
			spread.Mean, spread.Median, spread.StdDev, spread.Min, spread.Max))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrialTable prints one row per trial.
func RenderTrialTable(w io.Writer, trials []model.TrialRecord) error {
	if len(trials) == 0 {
		_, err := fmt.Fprintln(w, "No trials recorded.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Trials"); err != nil {
		return err
	}
	headers := []string{"Trial", "Best score", "Explored", "Accepted", "Time", "Key", "Trace"}
	rows := make([][]string, 0, len(trials))
	for _, t := range trials {
		rows = append(rows, []string{
			fmt.Sprintf("%d", t.Trial+1),
			fmt.Sprintf("%.2f", t.BestScore),
			fmt.Sprintf("%d", t.Explored),
			fmt.Sprintf("%d", t.Accepted),
			(time.Duration(t.DurationMs) * time.Millisecond).String(),
			t.BestKey,
			Sparkline(t.Trace),
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrialDecryptions prints the ciphertext decrypted with each trial's
// best key. Trials with an unreadable key are skipped.
func RenderTrialDecryptions(w io.Writer, r Report) error {
	for _, t := range r.Trials {
		k, err := cipher.ParseKey(t.BestKey)
		if err != nil {
			continue
		}
		lines := []string{
			fmt.Sprintf("Trial %d decryption (score %.2f):", t.Trial+1, t.BestScore),
			k.Apply(r.Run.Ciphertext),
			"",
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderTraces plots the score trace of every trial on a shared scale.
func RenderTraces(w io.Writer, trials []model.TrialRecord, totalWidth, height int, useColor bool) error {
	series := make([]Series, 0, len(trials))
	for _, t := range trials {
		series = append(series, Series{
			Name:   fmt.Sprintf("Trial %d", t.Trial+1),
			Values: t.Trace,
		})
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotTraces(w, "Score Traces", series, width, height, useColor)
}

// WriteReport writes the rendered report to path atomically.
func WriteReport(path string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "report-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp report: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := RenderReport(writer, r); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
