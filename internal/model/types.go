// Package model defines shared data structures.
package model

import "time"

// SearchConfig defines search settings after config and flags are merged.
type SearchConfig struct {
	Corpus      string
	Model       string
	Iterations  int
	Trials      int
	Seed        int64
	Workers     int
	ReportEvery int
	ExpectKey   string
}

// HistoryConfig filters the run history browser.
type HistoryConfig struct {
	Limit  int
	Source string
}

// RunRecord captures a completed search.
type RunRecord struct {
	ID            int64
	StartedAt     time.Time
	EndedAt       time.Time
	Source        string
	Ciphertext    string
	Iterations    int
	Trials        int
	Seed          int64
	BestKey       string
	BestScore     float64
	BaselineScore float64
	Decrypted     string
	ExpectKey     string
}

// TrialRecord captures one trial of a run.
type TrialRecord struct {
	Trial      int
	Seed       int64
	BestKey    string
	BestScore  float64
	Explored   int
	Accepted   int
	DurationMs int64
	Trace      []float64
}

// RunDetail is a stored run with its trials.
type RunDetail struct {
	Run    RunRecord
	Trials []TrialRecord
}

// ModelInfo summarizes a cached bigram model.
type ModelInfo struct {
	Name      string
	Source    string
	CreatedAt time.Time
	Pairs     int
	Total     int
}
