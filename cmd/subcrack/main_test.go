package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/subcrack/internal/config"
	"github.com/verte-zerg/subcrack/internal/model"
	"github.com/verte-zerg/subcrack/internal/store"
)

const sampleCorpus = `It was the best of times, it was the worst of times, it was the age of
wisdom, it was the age of foolishness, it was the epoch of belief, it was
the epoch of incredulity, it was the season of light, it was the season of
darkness, it was the spring of hope, it was the winter of despair.`

func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func TestDefaultConfigTemplateKeysDecode(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	var cfg config.FileConfig
	md, err := toml.Decode(strings.Join(lines, "\n"), &cfg)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		t.Fatalf("template has unknown keys: %v", undecoded)
	}
	if cfg.Search.Iterations == nil || *cfg.Search.Iterations != 10000 {
		t.Fatalf("unexpected iterations: %v", cfg.Search.Iterations)
	}
	if cfg.Log.Format == nil || *cfg.Log.Format != "console" {
		t.Fatalf("unexpected log format: %v", cfg.Log.Format)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.SearchConfig{Corpus: "c.txt", Iterations: 1, Trials: 1, Workers: 1, ReportEvery: 1}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	cases := map[string]func(*model.SearchConfig){
		"--corpus or --model": func(c *model.SearchConfig) { c.Corpus = "" },
		"--iterations":        func(c *model.SearchConfig) { c.Iterations = 0 },
		"--trials":            func(c *model.SearchConfig) { c.Trials = -1 },
		"--workers":           func(c *model.SearchConfig) { c.Workers = 0 },
		"--report-every":      func(c *model.SearchConfig) { c.ReportEvery = 0 },
	}
	for want, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error mentioning %s, got %v", want, err)
		}
	}
}

func TestEncryptCommand(t *testing.T) {
	isolateXDG(t)
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("Abc, xyz!"))
	cmd.SetArgs([]string{"encrypt", "--key", "FADGZPKYVWXCNTUQRIJSBHLOEM"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if got := out.String(); got != "FAD  OEM \n" {
		t.Fatalf("unexpected ciphertext %q", got)
	}
}

func TestEncryptRejectsKeyAndSeed(t *testing.T) {
	isolateXDG(t)
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("abc"))
	cmd.SetArgs([]string{"encrypt", "--key", "FADGZPKYVWXCNTUQRIJSBHLOEM", "--seed", "3"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for --key with --seed")
	}
}

func TestSolvePlainSavesRun(t *testing.T) {
	dir := isolateXDG(t)
	corpusPath := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(corpusPath, []byte(sampleCorpus), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	reportPath := filepath.Join(dir, "out", "decrypted.txt")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("KYZ WZIJS FP SKNZJ\n"))
	cmd.SetArgs([]string{
		"--plain", "--corpus", corpusPath,
		"--iterations", "500", "--trials", "2", "--seed", "7", "--workers", "2", "--report-every", "250",
		"--expect-key", "BULCYADVRSGWZMXFPQTNOIJKHE",
		"--out", reportPath,
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	for _, want := range []string{"Best score:", "Expected key: BULCYADVRSGWZMXFPQTNOIJKHE", "Encrypted text:", "KYZ WZIJS FP SKNZJ", "Score Traces"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("expected report file: %v", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	runs, err := st.ListRuns(context.Background(), model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Seed != 7 || runs[0].Trials != 2 {
		t.Fatalf("unexpected stored runs: %+v", runs)
	}
}

func TestSolveCorpusFlagOverridesConfigModel(t *testing.T) {
	dir := isolateXDG(t)
	corpusPath := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(corpusPath, []byte(sampleCorpus), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	cfgPath := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(cfgPath, []byte("[search]\nmodel = \"absent\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("KYZ WZIJS FP SKNZJ\n"))
	cmd.SetArgs([]string{
		"--plain", "--corpus", corpusPath,
		"--iterations", "200", "--trials", "1", "--seed", "3", "--report-every", "100",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("solve should use the corpus flag, got: %v", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	runs, err := st.ListRuns(context.Background(), model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || !strings.Contains(runs[0].Source, "corpus corpus.txt") {
		t.Fatalf("unexpected stored runs: %+v", runs)
	}
}

func TestTrainThenSolveWithModel(t *testing.T) {
	dir := isolateXDG(t)
	corpusPath := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(corpusPath, []byte(sampleCorpus), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	train := newRootCmd()
	var trainOut bytes.Buffer
	train.SetOut(&trainOut)
	train.SetArgs([]string{"train", "--corpus", corpusPath, "--name", "dickens"})
	if err := train.Execute(); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if !strings.Contains(trainOut.String(), "Saved model dickens") {
		t.Fatalf("unexpected train output: %s", trainOut.String())
	}

	models := newRootCmd()
	var modelsOut bytes.Buffer
	models.SetOut(&modelsOut)
	models.SetArgs([]string{"models"})
	if err := models.Execute(); err != nil {
		t.Fatalf("models failed: %v", err)
	}
	if !strings.Contains(modelsOut.String(), "dickens") {
		t.Fatalf("expected model listed: %s", modelsOut.String())
	}

	solve := newRootCmd()
	var solveOut bytes.Buffer
	solve.SetOut(&solveOut)
	solve.SetIn(strings.NewReader("ABC"))
	solve.SetArgs([]string{"--plain", "--no-save", "--model", "dickens", "--iterations", "100", "--trials", "1"})
	if err := solve.Execute(); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	missing := newRootCmd()
	missing.SetOut(&bytes.Buffer{})
	missing.SetErr(&bytes.Buffer{})
	missing.SetIn(strings.NewReader("ABC"))
	missing.SetArgs([]string{"--plain", "--no-save", "--model", "nope"})
	if err := missing.Execute(); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected missing model error, got %v", err)
	}
}
