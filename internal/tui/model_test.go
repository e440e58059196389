package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/mcmc"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func mustKey(t *testing.T, s string) cipher.Key {
	t.Helper()
	k, err := cipher.ParseKey(s)
	require.NoError(t, err)
	return k
}

func TestModelTracksBestAcrossTrials(t *testing.T) {
	m := NewModel("XYZ", nil, mcmc.RunnerConfig{Iterations: 100, Trials: 2}, nil, nil)
	first := mustKey(t, "BACDEFGHIJKLMNOPQRSTUVWXYZ")
	second := mustKey(t, "CBADEFGHIJKLMNOPQRSTUVWXYZ")

	m.Update(ProgressMsg(mcmc.Progress{Trial: 0, Iteration: 0, BestKey: first, BestScore: 5}))
	m.Update(ProgressMsg(mcmc.Progress{Trial: 1, Iteration: 0, BestKey: second, BestScore: 5}))
	assert.Equal(t, first, m.bestKey, "ties keep the earlier best")

	m.Update(TrialDoneMsg{Result: mcmc.TrialResult{Trial: 1, BestKey: second, BestScore: 9, Iterations: 100}})
	m.Update(TrialDoneMsg{Result: mcmc.TrialResult{Trial: 1, BestKey: second, BestScore: 9, Iterations: 100}})
	assert.Equal(t, second, m.bestKey)
	assert.Equal(t, 9.0, m.bestScore)
	assert.Equal(t, 1, m.finished)

	m.Update(ProgressMsg(mcmc.Progress{Trial: 7}))
	assert.Equal(t, 1, m.lastTrial)
}

func TestModelDoneQuits(t *testing.T) {
	m := NewModel("XYZ", nil, mcmc.RunnerConfig{Iterations: 10, Trials: 1}, nil, nil)
	_, err := m.Result()
	require.ErrorIs(t, err, ErrInterrupted)

	outcome := mcmc.Outcome{BestKey: cipher.Identity(), BestScore: 3}
	_, cmd := m.Update(DoneMsg{Outcome: outcome})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)

	got, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.BestScore)
}

func TestModelQuitCancelsSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewModel("XYZ", nil, mcmc.RunnerConfig{Iterations: 10, Trials: 1}, nil, cancel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.Error(t, ctx.Err())

	m.Update(DoneMsg{Err: context.Canceled})
	_, err := m.Result()
	assert.True(t, errors.Is(err, ErrInterrupted))
}

func TestModelMatchSegment(t *testing.T) {
	expected := mustKey(t, "BULCYADVRSGWZMXFPQTNOIJKHE")
	m := NewModel("FAD", nil, mcmc.RunnerConfig{Iterations: 10, Trials: 1}, &expected, nil)
	m.Update(ProgressMsg(mcmc.Progress{Trial: 0, BestKey: expected, BestScore: 1}))
	assert.Contains(t, m.renderFooter(), "Match 3/3")

	m.width, m.height = 80, 10
	assert.NotEmpty(t, m.View())
}

func TestObserverForwardsEvents(t *testing.T) {
	sender := &recordingSender{}
	obs := Observer{Program: sender}
	obs.OnProgress(mcmc.Progress{Trial: 0, Iteration: 10})
	obs.OnTrialDone(mcmc.TrialResult{Trial: 0})

	require.Len(t, sender.msgs, 2)
	progress, ok := sender.msgs[0].(ProgressMsg)
	require.True(t, ok)
	assert.Equal(t, 10, progress.Iteration)
	_, ok = sender.msgs[1].(TrialDoneMsg)
	assert.True(t, ok)
}
