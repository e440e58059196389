package mcmc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/subcrack/internal/bigram"
	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/generator"
)

// Defaults used when no configuration overrides them.
const (
	DefaultIterations  = 10000
	DefaultTrials      = 5
	DefaultWorkers     = 1
	DefaultReportEvery = 1000
)

// RunnerConfig controls a multi-trial search.
type RunnerConfig struct {
	Iterations  int
	Trials      int
	Seed        int64
	Workers     int
	ReportEvery int
}

// DefaultRunnerConfig returns the stock search settings.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Iterations:  DefaultIterations,
		Trials:      DefaultTrials,
		Workers:     DefaultWorkers,
		ReportEvery: DefaultReportEvery,
	}
}

// Validate checks the configuration.
func (c RunnerConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be > 0")
	}
	if c.Trials <= 0 {
		return fmt.Errorf("trials must be > 0")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if c.ReportEvery <= 0 {
		return fmt.Errorf("report interval must be > 0")
	}
	return nil
}

// Outcome is the best result across all trials.
type Outcome struct {
	BestKey       cipher.Key
	BestScore     float64
	Decrypted     string
	BaselineScore float64
	Seed          int64
	Trials        []TrialResult
	Started       time.Time
	Ended         time.Time
}

// Run executes cfg.Trials independent trials and keeps the best key.
// Trials own derived seeds and are reduced in trial order after all of
// them finish, so the outcome does not depend on cfg.Workers.
func Run(ctx context.Context, ciphertext string, table *bigram.Table, cfg RunnerConfig, obs Observer) (Outcome, error) {
	if table == nil {
		return Outcome{}, errors.New("bigram table is required")
	}
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	if obs == nil {
		obs = NopObserver{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	gen := generator.ForSeed(cfg.Seed)
	seeds := gen.TrialSeeds(cfg.Trials)
	scorer := NewScorer(ciphertext, table)
	outcome := Outcome{
		Seed:          gen.Seed(),
		BaselineScore: scorer.Score(cipher.Identity()),
		Started:       time.Now(),
	}

	results := make([]TrialResult, cfg.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		i := i
		g.Go(func() error {
			res, err := Search(gctx, scorer.Clone(), SearchOptions{
				Trial:       i,
				Seed:        seeds[i],
				Iterations:  cfg.Iterations,
				ReportEvery: cfg.ReportEvery,
				Rand:        generator.Rand(seeds[i]),
				Observer:    obs,
			})
			if err != nil {
				return fmt.Errorf("trial %d: %w", i+1, err)
			}
			results[i] = res
			obs.OnTrialDone(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	outcome.Trials = results
	outcome.BestKey, outcome.BestScore = Best(results)
	outcome.Decrypted = outcome.BestKey.Apply(ciphertext)
	outcome.Ended = time.Now()
	return outcome, nil
}

// Best reduces trial results in order, replacing the running best only
// on a strictly higher score.
func Best(results []TrialResult) (cipher.Key, float64) {
	if len(results) == 0 {
		return cipher.Identity(), 0
	}
	best := results[0]
	for _, res := range results[1:] {
		if res.BestScore > best.BestScore {
			best = res
		}
	}
	return best.BestKey, best.BestScore
}

// ExploredTotal counts distinct keys visited across trials.
func (o Outcome) ExploredTotal() int {
	seen := make(map[cipher.Key]struct{})
	for _, t := range o.Trials {
		for k := range t.Explored {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

// AcceptanceRate is the share of proposals accepted across trials.
func (o Outcome) AcceptanceRate() float64 {
	accepted, iterations := 0, 0
	for _, t := range o.Trials {
		accepted += t.Accepted
		iterations += t.Iterations
	}
	if iterations == 0 {
		return 0
	}
	return float64(accepted) / float64(iterations)
}
