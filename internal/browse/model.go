// Package browse provides the Bubble Tea standings browser.
package browse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/racetime"
	"github.com/verte-zerg/peloton/internal/report"
)

const (
	tabStandings = iota
	tabHistory
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
)

// Model implements the standings browser.
type Model struct {
	tour  *model.Tour
	stage int

	tabs      []string
	activeTab int
	table     table.Model
	history   viewport.Model

	filterMode bool
	filter     textinput.Model
	query      string

	rider  string
	errMsg string

	width  int
	height int
}

// NewModel constructs a browser opened on the last stage.
func NewModel(tour *model.Tour) *Model {
	m := &Model{
		tour:    tour,
		stage:   len(tour.Stages) - 1,
		tabs:    []string{"Standings", "History"},
		table:   newStandingsTable(),
		history: viewport.New(0, 0),
		filter:  newFilterInput(),
	}
	m.table.Focus()
	m.refreshRows()
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
		m.refreshHistory()
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
		case "tab", "shift+tab":
			m.activeTab = 1 - m.activeTab
			return m, tea.ClearScreen
		case "left", "h":
			m.moveStage(-1)
			return m, nil
		case "right", "l":
			m.moveStage(1)
			return m, nil
		case "/":
			m.filterMode = true
			m.filter.SetValue(m.query)
			return m, m.filter.Focus()
		case "enter":
			if m.activeTab == tabStandings {
				if row := m.table.SelectedRow(); row != nil {
					m.rider = row[1]
					m.refreshHistory()
					m.activeTab = tabHistory
				}
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabStandings {
				m.table.GotoTop()
			} else {
				m.history.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabStandings {
				m.table.GotoBottom()
			} else {
				m.history.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabStandings {
			m.table, cmd = m.table.Update(msg)
		} else {
			m.history, cmd = m.history.Update(msg)
		}
		return m, cmd
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
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEnter:
		m.filterMode = false
		m.filter.Blur()
		m.query = strings.TrimSpace(m.filter.Value())
		m.refreshRows()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *Model) moveStage(delta int) {
	next := m.stage + delta
	if next < 0 || next >= len(m.tour.Stages) {
		return
	}
	m.stage = next
	m.refreshRows()
}

// refreshRows rebuilds the table for the current stage and rider filter.
// Ranks always refer to the full classification.
func (m *Model) refreshRows() {
	m.errMsg = ""
	if len(m.tour.Stages) == 0 {
		m.table.SetRows(nil)
		return
	}
	stage := m.tour.Stages[m.stage]
	var leader int64
	if len(stage.Riders) > 0 {
		leader = stage.Riders[0].AccumulatedSeconds
	}
	query := strings.ToLower(m.query)
	rows := make([]table.Row, 0, len(stage.Riders))
	for i, r := range stage.Riders {
		if query != "" && !strings.Contains(strings.ToLower(r.Name+" "+r.Team), query) {
			continue
		}
		elapsed, err := racetime.FormatDuration(r.AccumulatedSeconds)
		if err != nil {
			m.errMsg = err.Error()
			continue
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			r.Name,
			r.Team,
			elapsed,
			racetime.FormatGap(r.AccumulatedSeconds, leader),
		})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *Model) refreshHistory() {
	if m.rider == "" {
		m.history.SetContent(headerStyle.Render("Select a rider on the standings tab and press enter."))
		return
	}
	var buf bytes.Buffer
	if err := report.History(&buf, m.tour, m.rider, m.width); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.history.SetContent(buf.String())
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.history.Width = m.width
	m.history.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(bodyHeight)
	m.filter.Width = max(10, m.width-lipgloss.Width(m.filter.Prompt)-2)
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	summary := "no stages"
	if len(m.tour.Stages) > 0 {
		stage := m.tour.Stages[m.stage]
		summary = fmt.Sprintf("%s (%d/%d)  %s", stage.Title(), m.stage+1, len(m.tour.Stages), stage.Date)
	}
	if m.query != "" {
		summary += fmt.Sprintf("  filter=%q", m.query)
	}
	return tabs + "\n" + headerStyle.Render(runewidth.Truncate(summary, m.width, "..."))
}

func (m *Model) renderBody() string {
	if m.activeTab == tabHistory {
		return m.history.View()
	}
	return m.table.View()
}

func (m *Model) renderFooter() string {
	var line string
	switch {
	case m.filterMode:
		line = m.filter.View()
	case m.activeTab == tabHistory:
		line = headerStyle.Render("Tabs: tab  Scroll: up/down/pgup/pgdn  Quit: q")
	default:
		line = headerStyle.Render("Stage: left/right  Tabs: tab  Rider history: enter  Filter: /  Quit: q")
	}
	if m.errMsg != "" {
		line += "\n" + errorStyle.Render(m.errMsg)
	}
	return line
}

func newStandingsTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Rank", Width: 5},
			{Title: "Rider", Width: 26},
			{Title: "Team", Width: 28},
			{Title: "Time", Width: 10},
			{Title: "Gap", Width: 10},
		}),
		table.WithHeight(1),
	)
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
	t.SetStyles(styles)
	return t
}

func newFilterInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Rider or team: "
	input.Placeholder = "froome"
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
