// Package main provides the CLI entrypoint for subcrack.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/subcrack/internal/bigram"
	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/config"
	"github.com/verte-zerg/subcrack/internal/corpus"
	"github.com/verte-zerg/subcrack/internal/generator"
	"github.com/verte-zerg/subcrack/internal/logging"
	"github.com/verte-zerg/subcrack/internal/mcmc"
	"github.com/verte-zerg/subcrack/internal/model"
	"github.com/verte-zerg/subcrack/internal/stats"
	"github.com/verte-zerg/subcrack/internal/statsui"
	"github.com/verte-zerg/subcrack/internal/store"
	"github.com/verte-zerg/subcrack/internal/tui"
)

const (
	defaultTopPairs   = 10
	defaultPlotHeight = 10
)

var (
	solveCorpus      string
	solveModel       string
	solveIterations  int
	solveTrials      int
	solveSeed        int64
	solveWorkers     int
	solveReportEvery int
	solveExpectKey   string
	solveOut         string
	solvePlain       bool
	solveNoSave      bool

	trainCorpus string
	trainName   string

	encryptKey  string
	encryptSeed int64

	historyLast   int
	historySource string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subcrack [CIPHERTEXT FILE]",
		Short:         "Break substitution ciphers with a bigram-scored MCMC search",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSolveCmd,
	}

	rootCmd.Flags().StringVar(&solveCorpus, "corpus", "", "training corpus file")
	rootCmd.Flags().StringVar(&solveModel, "model", "", "cached model name (see: subcrack models)")
	rootCmd.Flags().IntVar(&solveIterations, "iterations", mcmc.DefaultIterations, "iterations per trial")
	rootCmd.Flags().IntVar(&solveTrials, "trials", mcmc.DefaultTrials, "independent trials")
	rootCmd.Flags().Int64Var(&solveSeed, "seed", 0, "master seed (0 picks one from the clock)")
	rootCmd.Flags().IntVar(&solveWorkers, "workers", mcmc.DefaultWorkers, "trials run in parallel")
	rootCmd.Flags().IntVar(&solveReportEvery, "report-every", mcmc.DefaultReportEvery, "iterations between progress reports")
	rootCmd.Flags().StringVar(&solveExpectKey, "expect-key", "", "known decryption key to compare against")
	rootCmd.Flags().StringVar(&solveOut, "out", "", "write the report to this file")
	rootCmd.Flags().BoolVar(&solvePlain, "plain", false, "log progress instead of showing the TUI")
	rootCmd.Flags().BoolVar(&solveNoSave, "no-save", false, "do not store the run in history")

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newEncryptCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runSolveCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "corpus", &solveCorpus, fileCfg.Search.Corpus)
	// An explicit --corpus outranks a model named only in the config file.
	if !cmd.Flags().Changed("corpus") {
		applyStringConfig(cmd, "model", &solveModel, fileCfg.Search.Model)
	}
	applyIntConfig(cmd, "iterations", &solveIterations, fileCfg.Search.Iterations)
	applyIntConfig(cmd, "trials", &solveTrials, fileCfg.Search.Trials)
	applyInt64Config(cmd, "seed", &solveSeed, fileCfg.Search.Seed)
	applyIntConfig(cmd, "workers", &solveWorkers, fileCfg.Search.Workers)
	applyIntConfig(cmd, "report-every", &solveReportEvery, fileCfg.Search.ReportEvery)

	cfg := model.SearchConfig{
		Corpus:      solveCorpus,
		Model:       solveModel,
		Iterations:  solveIterations,
		Trials:      solveTrials,
		Seed:        solveSeed,
		Workers:     solveWorkers,
		ReportEvery: solveReportEvery,
		ExpectKey:   solveExpectKey,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	var expected *cipher.Key
	if cfg.ExpectKey != "" {
		k, err := cipher.ParseKey(cfg.ExpectKey)
		if err != nil {
			return fmt.Errorf("invalid --expect-key: %w", err)
		}
		expected = &k
	}

	logger, err := newLogger(fileCfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	source := ""
	if len(args) > 0 {
		source = args[0]
	}
	ciphertext, err := corpus.LoadCiphertext(source, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read ciphertext: %w", err)
	}

	var st *store.Store
	if cfg.Model != "" || !solveNoSave {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Warn("failed to close db", zap.Error(cerr))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	table, err := loadTable(ctx, st, cfg)
	if err != nil {
		return err
	}
	logger.Debug("model ready",
		zap.Int("pairs", table.Len()),
		zap.Int("total", table.Total()),
	)

	runCfg := mcmc.RunnerConfig{
		Iterations:  cfg.Iterations,
		Trials:      cfg.Trials,
		Seed:        cfg.Seed,
		Workers:     cfg.Workers,
		ReportEvery: cfg.ReportEvery,
	}
	var outcome mcmc.Outcome
	if solvePlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		obs := logging.SearchObserver{Logger: logger, Ciphertext: ciphertext}
		outcome, err = mcmc.Run(ctx, ciphertext, table, runCfg, obs)
	} else {
		outcome, err = tui.Run(ctx, ciphertext, table, runCfg, expected)
	}
	if err != nil {
		if errors.Is(err, tui.ErrInterrupted) || errors.Is(err, context.Canceled) {
			logger.Warn("search interrupted")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	logger.Info("search finished",
		zap.Float64("best", outcome.BestScore),
		zap.Stringer("key", outcome.BestKey),
		zap.Int("explored", outcome.ExploredTotal()),
		zap.Float64("acceptance", outcome.AcceptanceRate()),
		zap.Duration("elapsed", outcome.Ended.Sub(outcome.Started)),
	)

	report := stats.FromOutcome(outcome, sourceLabel(cfg, source), ciphertext, runCfg, cfg.ExpectKey)
	out := cmd.OutOrStdout()
	if err := stats.RenderReport(out, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := stats.RenderTraces(out, report.Trials, 0, defaultPlotHeight, false); err != nil {
		return fmt.Errorf("failed to render traces: %w", err)
	}

	if !solveNoSave {
		id, err := st.InsertRun(ctx, report.Run, report.Trials)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info("run saved", zap.Int64("id", id))
	}
	if solveOut != "" {
		if err := stats.WriteReport(solveOut, report); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", solveOut))
	}
	return nil
}

func loadTable(ctx context.Context, st *store.Store, cfg model.SearchConfig) (*bigram.Table, error) {
	if cfg.Model != "" {
		table, err := st.LoadModel(ctx, cfg.Model)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("model %q not found (train it with: subcrack train --corpus FILE --name %s)", cfg.Model, cfg.Model)
			}
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		return table, nil
	}
	table, err := corpus.Train(cfg.Corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to train on corpus: %w", err)
	}
	return table, nil
}

func sourceLabel(cfg model.SearchConfig, source string) string {
	if source == "" {
		source = "-"
	}
	if cfg.Model != "" {
		return fmt.Sprintf("%s (model %s)", source, cfg.Model)
	}
	return fmt.Sprintf("%s (corpus %s)", source, filepath.Base(cfg.Corpus))
}

func newLogger(fileCfg config.FileConfig) (*zap.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:  config.StringOr(fileCfg.Log.Level, ""),
		Format: config.StringOr(fileCfg.Log.Format, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Build a bigram model from a corpus and cache it",
		Args:  cobra.NoArgs,
		RunE:  runTrainCmd,
	}
	cmd.Flags().StringVar(&trainCorpus, "corpus", "", "training corpus file")
	cmd.Flags().StringVar(&trainName, "name", "", "model name")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	name := strings.TrimSpace(trainName)
	if name == "" {
		return fmt.Errorf("--name must not be empty")
	}
	table, err := corpus.Train(trainCorpus)
	if err != nil {
		return fmt.Errorf("failed to train on corpus: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.SaveModel(cmd.Context(), name, trainCorpus, table); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Saved model %s: %d pairs, %d total\n\n", name, table.Len(), table.Total()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return stats.RenderTopPairs(out, table, defaultTopPairs)
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List cached bigram models",
		Args:  cobra.NoArgs,
		RunE:  runModelsCmd,
	}
}

func runModelsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	infos, err := st.ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(infos) == 0 {
		logErrf("No models found. Train one with: subcrack train --corpus FILE --name NAME\n")
		return nil
	}
	for _, info := range infos {
		line := fmt.Sprintf("%-20s %6d pairs %10d total  %s  %s",
			info.Name, info.Pairs, info.Total, info.CreatedAt.Local().Format("2006-01-02 15:04"), info.Source)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [FILE]",
		Short: "Encrypt text with a substitution key",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEncryptCmd,
	}
	cmd.Flags().StringVar(&encryptKey, "key", "", "26-letter encryption key (random when omitted)")
	cmd.Flags().Int64Var(&encryptSeed, "seed", 0, "seed for the random key (0 picks one from the clock)")
	return cmd
}

func runEncryptCmd(cmd *cobra.Command, args []string) error {
	if encryptKey != "" && cmd.Flags().Changed("seed") {
		return fmt.Errorf("--key and --seed are mutually exclusive")
	}
	var k cipher.Key
	if encryptKey != "" {
		parsed, err := cipher.ParseKey(encryptKey)
		if err != nil {
			return fmt.Errorf("invalid --key: %w", err)
		}
		k = parsed
	} else {
		k = generator.ForSeed(encryptSeed).RandomKey()
	}

	source := ""
	if len(args) > 0 {
		source = args[0]
	}
	text, err := corpus.LoadCiphertext(source, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read text: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), k.Apply(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logErrf("Encrypt key: %s\n", k)
	logErrf("Decrypt key: %s\n", k.Inverse())
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().StringVar(&historySource, "source", "", "only runs whose source contains this text")
	return cmd
}

func runHistoryCmd(_ *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	m := statsui.NewModel(st, model.HistoryConfig{Limit: historyLast, Source: historySource})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# subcrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[search]
# corpus = "/path/to/corpus.txt"  # Training corpus
# model = "english"               # Cached model name (takes precedence over corpus)
# iterations = %d               # Iterations per trial
# trials = %d                       # Independent trials
# seed = 0                         # Master seed (0 picks one from the clock)
# workers = %d                      # Trials run in parallel
# report-every = %d              # Iterations between progress reports

[log]
# level = "info"                   # debug, info, warn or error
# format = "console"               # console or json
`,
		mcmc.DefaultIterations,
		mcmc.DefaultTrials,
		mcmc.DefaultWorkers,
		mcmc.DefaultReportEvery,
	)
}

func validateConfig(cfg model.SearchConfig) error {
	if cfg.Corpus == "" && cfg.Model == "" {
		return fmt.Errorf("--corpus or --model is required")
	}
	if cfg.Iterations <= 0 {
		return fmt.Errorf("--iterations must be > 0")
	}
	if cfg.Trials <= 0 {
		return fmt.Errorf("--trials must be > 0")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if cfg.ReportEvery <= 0 {
		return fmt.Errorf("--report-every must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
