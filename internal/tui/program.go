package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/subcrack/internal/bigram"
	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/mcmc"
)

// Sender delivers messages to a running program.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards search events to a Bubble Tea program.
type Observer struct {
	Program Sender
}

// OnProgress implements mcmc.Observer.
func (o Observer) OnProgress(p mcmc.Progress) {
	o.Program.Send(ProgressMsg(p))
}

// OnTrialDone implements mcmc.Observer.
func (o Observer) OnTrialDone(res mcmc.TrialResult) {
	o.Program.Send(TrialDoneMsg{Result: res})
}

// Run searches for the key while rendering live progress. The search is
// cancelled when the user quits.
func Run(ctx context.Context, ciphertext string, table *bigram.Table, cfg mcmc.RunnerConfig, expected *cipher.Key) (mcmc.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ciphertext, table, cfg, expected, cancel)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	searchDone := make(chan struct{})
	go func() {
		defer close(searchDone)
		outcome, err := mcmc.Run(ctx, ciphertext, table, cfg, Observer{Program: program})
		program.Send(DoneMsg{Outcome: outcome, Err: err})
	}()

	_, runErr := program.Run()
	cancel()
	<-searchDone
	if runErr != nil && m.err == nil {
		return mcmc.Outcome{}, runErr
	}
	return m.Result()
}
