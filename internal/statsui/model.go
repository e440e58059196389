// Package statsui provides the Bubble Tea run history interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/subcrack/internal/model"
	"github.com/verte-zerg/subcrack/internal/stats"
	"github.com/verte-zerg/subcrack/internal/store"
)

const (
	tabRuns = iota
	tabReport
	tabModels
)

const (
	plotHeight   = 10
	topPairCount = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store *store.Store
	cfg   model.HistoryConfig

	runs     []model.RunRecord
	models   []model.ModelInfo
	selected int64
	errMsg   string

	tabs      []string
	activeTab int
	runTable  table.Model
	viewports []viewport.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a history UI model.
func NewModel(st *store.Store, cfg model.HistoryConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Runs", "Report", "Models"},
	}
	m.initInputs()
	m.runTable = buildRunTable(nil, 0, 1)
	m.runTable.Focus()
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabRuns {
				m.selectCurrentRun()
				m.activeTab = tabReport
				m.runTable.Blur()
				return m, tea.ClearScreen
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabRuns {
				m.runTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRuns {
				m.runTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabRuns {
				var cmd tea.Cmd
				m.runTable, cmd = m.runTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Last: "),
		newFilterInput("Source: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if m.cfg.Limit > 0 {
		m.filterInputs[0].SetValue(strconv.Itoa(m.cfg.Limit))
	} else {
		m.filterInputs[0].SetValue("")
	}
	m.filterInputs[1].SetValue(m.cfg.Source)
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.runTable.SetWidth(m.width)
	m.runTable.SetHeight(runTableHeight(bodyHeight))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabRuns {
		m.runTable.Focus()
	} else {
		m.runTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	last := "all"
	if m.cfg.Limit > 0 {
		last = strconv.Itoa(m.cfg.Limit)
	}
	source := m.cfg.Source
	if source == "" {
		source = "any"
	}
	summary := fmt.Sprintf("Settings: last=%s  source=%s  runs=%d", last, source, len(m.runs))
	if m.selected > 0 {
		summary += fmt.Sprintf("  selected=#%d", m.selected)
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Settings: /  Quit: q"
	if m.activeTab == tabRuns {
		help = "Nav: left/right  Select: up/down  Open: enter  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabRuns {
		if len(m.runs) == 0 {
			return fitLines("No runs found.", m.width, height)
		}
		summary := renderSummaryCards(m.runs, m.width)
		view := summary + "\n" + tableMutedStyle.Render(m.runTable.View())
		return fitLines(view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refresh() {
	ctx := context.Background()
	runs, err := m.store.ListRuns(ctx, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.runs = nil
	} else {
		m.errMsg = ""
		m.runs = runs
	}
	models, err := m.store.ListModels(ctx)
	if err != nil {
		m.errMsg = err.Error()
	}
	m.models = models
	if m.selected == 0 && len(m.runs) > 0 {
		m.selected = m.runs[0].ID
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.runTable.SetColumns(runColumns())
	m.runTable.SetRows(runRows(m.runs))
	m.runTable.SetWidth(width)
	m.runTable.SetHeight(runTableHeight(bodyHeight))
	m.renderContents()
}

func (m *Model) selectCurrentRun() {
	idx := m.runTable.Cursor()
	if idx < 0 || idx >= len(m.runs) {
		return
	}
	m.selected = m.runs[idx].ID
	m.renderContents()
	m.viewports[tabReport].GotoTop()
}

func (m *Model) renderContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabReport].SetContent(m.renderReport(width))
	m.viewports[tabModels].SetContent(m.renderModels())
}

func (m *Model) renderReport(width int) string {
	if m.selected == 0 {
		return "No run selected."
	}
	report, err := stats.BuildReport(context.Background(), m.store, m.selected)
	if err != nil {
		return fmt.Sprintf("Failed to load run #%d: %v", m.selected, err)
	}
	var buf bytes.Buffer
	if err := stats.RenderReport(&buf, report); err != nil {
		return fmt.Sprintf("Failed to render report: %v", err)
	}
	if err := stats.RenderTraces(&buf, report.Trials, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render traces: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) renderModels() string {
	if len(m.models) == 0 {
		return "No cached models. Run `subcrack train` to add one."
	}
	var buf bytes.Buffer
	for _, info := range m.models {
		fmt.Fprintf(&buf, "%s  (%s)\n", cardValueStyle.Render(info.Name), info.Source)
		fmt.Fprintln(&buf, headerStyle.Render(fmt.Sprintf("pairs=%d  total=%d  created=%s", info.Pairs, info.Total, info.CreatedAt.Local().Format("2006-01-02 15:04"))))
		table, err := m.store.LoadModel(context.Background(), info.Name)
		if err != nil {
			fmt.Fprintln(&buf, errorStyle.Render(err.Error()))
			fmt.Fprintln(&buf)
			continue
		}
		if err := stats.RenderTopPairs(&buf, table, topPairCount); err != nil {
			fmt.Fprintln(&buf, errorStyle.Render(err.Error()))
		}
		fmt.Fprintln(&buf)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderSummaryCards(runs []model.RunRecord, width int) string {
	best := runs[0].BestScore
	var sum float64
	for _, r := range runs {
		sum += r.BestScore
		if r.BestScore > best {
			best = r.BestScore
		}
	}
	cards := []string{
		metricCard("Runs", fmt.Sprintf("%d", len(runs))),
		metricCard("Best score", fmt.Sprintf("%.2f", best)),
		metricCard("Avg score", fmt.Sprintf("%.2f", sum/float64(len(runs)))),
		metricCard("Latest", runs[0].EndedAt.Local().Format("2006-01-02 15:04")),
	}
	if width < 80 {
		return cards[0]
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// runTableHeight leaves room for the summary cards above the table.
func runTableHeight(bodyHeight int) int {
	cardHeight := lipgloss.Height(metricCard("X", "X"))
	return maxInt(1, bodyHeight-cardHeight-1)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildRunTable(runs []model.RunRecord, width, height int) table.Model {
	t := table.New(
		table.WithColumns(runColumns()),
		table.WithRows(runRows(runs)),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(runTableStyles())
	return t
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "Ended", Width: 16},
		{Title: "Source", Width: 18},
		{Title: "Trials", Width: 6},
		{Title: "Iters", Width: 8},
		{Title: "Best score", Width: 11},
		{Title: "Key", Width: 26},
	}
}

func runRows(runs []model.RunRecord) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		source := r.Source
		if source == "" {
			source = "<stdin>"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(r.ID, 10),
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			truncateLine(source, 18),
			strconv.Itoa(r.Trials),
			strconv.Itoa(r.Iterations),
			fmt.Sprintf("%.2f", r.BestScore),
			r.BestKey,
		})
	}
	return rows
}

func runTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.selected = 0
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	lastInput := strings.TrimSpace(m.filterInputs[0].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}
	m.cfg = model.HistoryConfig{
		Limit:  last,
		Source: strings.TrimSpace(m.filterInputs[1].Value()),
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
