// Package tui provides the Bubble Tea live search view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/subcrack/internal/alphabet"
	"github.com/verte-zerg/subcrack/internal/bigram"
	"github.com/verte-zerg/subcrack/internal/cipher"
	"github.com/verte-zerg/subcrack/internal/mcmc"
)

// ProgressMsg carries a periodic search report.
type ProgressMsg mcmc.Progress

// TrialDoneMsg is sent when one trial completes.
type TrialDoneMsg struct {
	Result mcmc.TrialResult
}

// DoneMsg is sent once all trials have finished or failed.
type DoneMsg struct {
	Outcome mcmc.Outcome
	Err     error
}

// ErrInterrupted is returned when the user quits before the search ends.
var ErrInterrupted = errors.New("search interrupted")

type trialState struct {
	iteration int
	score     float64
	bestScore float64
	done      bool
}

// Model implements the Bubble Tea search UI.
type Model struct {
	ciphertext []rune
	table      *bigram.Table
	cfg        mcmc.RunnerConfig
	reference  []rune
	cancel     context.CancelFunc

	width  int
	height int

	spin      spinner.Model
	trials    []trialState
	lastTrial int
	bestKey   cipher.Key
	bestScore float64
	hasBest   bool
	finished  int

	done    bool
	outcome mcmc.Outcome
	err     error
}

var (
	knownStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	unknownStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a search TUI model. expected may be nil.
func NewModel(ciphertext string, table *bigram.Table, cfg mcmc.RunnerConfig, expected *cipher.Key, cancel context.CancelFunc) *Model {
	m := &Model{
		ciphertext: []rune(ciphertext),
		table:      table,
		cfg:        cfg,
		cancel:     cancel,
		trials:     make([]trialState, max(cfg.Trials, 0)),
		bestKey:    cipher.Identity(),
		spin:       spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(footerStyle)),
	}
	if expected != nil {
		m.reference = []rune(expected.Apply(ciphertext))
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done {
				m.err = ErrInterrupted
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}
		return m, nil
	case ProgressMsg:
		m.applyProgress(mcmc.Progress(msg))
		return m, nil
	case TrialDoneMsg:
		m.applyTrialDone(msg.Result)
		return m, nil
	case DoneMsg:
		m.done = true
		if m.err == nil {
			m.outcome = msg.Outcome
			m.err = msg.Err
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.ciphertext) == 0 {
		return ""
	}
	plain := []rune(m.bestKey.Apply(string(m.ciphertext)))
	styled := buildStyledRunes(plain, m.reference, m.table)
	keyLine := keyStyle.Render(m.bestKey.String())
	if m.width == 0 || m.height == 0 {
		return keyLine + "\n" + renderStyledRunes(styled)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styled, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(keyLine + "\n\n" + wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

// Result returns the search outcome once the program has exited.
func (m *Model) Result() (mcmc.Outcome, error) {
	if m.err != nil {
		return mcmc.Outcome{}, m.err
	}
	if !m.done {
		return mcmc.Outcome{}, ErrInterrupted
	}
	return m.outcome, nil
}

func (m *Model) applyProgress(p mcmc.Progress) {
	if p.Trial < 0 || p.Trial >= len(m.trials) {
		return
	}
	st := &m.trials[p.Trial]
	st.iteration = p.Iteration
	st.score = p.CurrentScore
	st.bestScore = p.BestScore
	m.lastTrial = p.Trial
	m.offerBest(p.BestKey, p.BestScore)
}

func (m *Model) applyTrialDone(res mcmc.TrialResult) {
	if res.Trial < 0 || res.Trial >= len(m.trials) {
		return
	}
	st := &m.trials[res.Trial]
	if !st.done {
		m.finished++
	}
	st.done = true
	st.iteration = res.Iterations
	st.bestScore = res.BestScore
	m.offerBest(res.BestKey, res.BestScore)
}

func (m *Model) offerBest(k cipher.Key, score float64) {
	if !m.hasBest || score > m.bestScore {
		m.bestKey = k
		m.bestScore = score
		m.hasBest = true
	}
}

func (m *Model) renderFooter() string {
	if len(m.trials) == 0 {
		return ""
	}
	st := m.trials[m.lastTrial]
	segments := []string{}
	if !m.done {
		segments = append(segments, m.spin.View())
	}
	segments = append(segments,
		fmt.Sprintf("Trial %d/%d", m.lastTrial+1, len(m.trials)),
		fmt.Sprintf("Iter %d/%d", st.iteration, m.cfg.Iterations),
		fmt.Sprintf("Score %.2f", st.score),
	)
	if m.hasBest {
		segments = append(segments, fmt.Sprintf("Best %.2f", m.bestScore))
	}
	segments = append(segments, fmt.Sprintf("Done %d/%d", m.finished, len(m.trials)))
	if m.reference != nil {
		segments = append(segments, fmt.Sprintf("Match %d/%d", matchingLetters(m.bestKey, m.reference, m.ciphertext), letterCount(m.ciphertext)))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func matchingLetters(k cipher.Key, reference, ciphertext []rune) int {
	plain := []rune(k.Apply(string(ciphertext)))
	matched := 0
	for i, r := range plain {
		if r != ' ' && i < len(reference) && reference[i] == r {
			matched++
		}
	}
	return matched
}

func letterCount(text []rune) int {
	count := 0
	for _, r := range text {
		if alphabet.Index(r) != alphabet.Space {
			count++
		}
	}
	return count
}
