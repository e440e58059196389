package mcmc

import (
	"context"
	"math/rand"
	"time"

	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/generator"
)

// Progress is a snapshot of a running trial.
type Progress struct {
	Trial        int
	Iteration    int
	Iterations   int
	CurrentKey   cipher.Key
	CurrentScore float64
	BestKey      cipher.Key
	BestScore    float64
}

// Observer receives search progress. Implementations must be safe for
// concurrent use when trials run in parallel.
type Observer interface {
	OnProgress(Progress)
	OnTrialDone(TrialResult)
}

// NopObserver ignores all events.
type NopObserver struct{}

// OnProgress implements Observer.
func (NopObserver) OnProgress(Progress) {}

// OnTrialDone implements Observer.
func (NopObserver) OnTrialDone(TrialResult) {}

// TrialResult is the outcome of a single trial.
type TrialResult struct {
	Trial      int
	Seed       int64
	Iterations int
	Explored   map[cipher.Key]struct{}
	BestKey    cipher.Key
	BestScore  float64
	Accepted   int
	Trace      []float64
	Duration   time.Duration
}

// SearchOptions configures one trial.
type SearchOptions struct {
	Trial       int
	Seed        int64
	Iterations  int
	ReportEvery int
	Rand        *rand.Rand
	Observer    Observer
}

// Search runs one Metropolis trial from the identity key for exactly
// opts.Iterations steps. The context is checked at every report point.
func Search(ctx context.Context, scorer *Scorer, opts SearchOptions) (TrialResult, error) {
	started := time.Now()
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = generator.Rand(opts.Seed)
	}

	current := cipher.Identity()
	currentScore := scorer.Score(current)
	result := TrialResult{
		Trial:      opts.Trial,
		Seed:       opts.Seed,
		Iterations: opts.Iterations,
		Explored:   make(map[cipher.Key]struct{}),
		BestKey:    current,
		BestScore:  currentScore,
	}

	for i := 0; i < opts.Iterations; i++ {
		result.Explored[current] = struct{}{}
		proposed := current.Propose(rnd)
		proposedScore := scorer.Score(proposed)
		delta := proposedScore - currentScore

		if currentScore > result.BestScore {
			result.BestKey = current
			result.BestScore = currentScore
		}

		if opts.ReportEvery > 0 && i%opts.ReportEvery == 0 {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			result.Trace = append(result.Trace, currentScore)
			obs.OnProgress(Progress{
				Trial:        opts.Trial,
				Iteration:    i,
				Iterations:   opts.Iterations,
				CurrentKey:   current,
				CurrentScore: currentScore,
				BestKey:      result.BestKey,
				BestScore:    result.BestScore,
			})
		}

		if Accept(rnd.Float64(), delta) {
			cipher.MustValid(proposed)
			current = proposed
			currentScore = proposedScore
			result.Accepted++
		}
	}

	result.Duration = time.Since(started)
	return result, nil
}
