// Package tui provides the Bubble Tea race animation.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/racetime"
	"github.com/verte-zerg/peloton/internal/timeline"
)

const (
	footerRows       = 1
	minWindowSeconds = 30
	windowFactor     = 1.25
)

type tickMsg struct {
	gen int
}

// Model implements the Bubble Tea race animation.
type Model struct {
	config   model.Config
	tour     *model.Tour
	player   *timeline.Player
	renderer Renderer
	keys     keyMap
	help     help.Model

	window float64
	// gen identifies the live tick chain; ticks from older chains are dropped.
	gen int
	err error

	width  int
	height int
}

// NewModel constructs the animation model. A nil renderer selects the chart renderer.
func NewModel(cfg model.Config, tour *model.Tour, renderer Renderer) *Model {
	if renderer == nil {
		renderer = NewChartRenderer()
	}
	m := &Model{
		config:   cfg,
		tour:     tour,
		player:   timeline.NewPlayer(len(tour.Stages), cfg.Step, cfg.NavStep),
		renderer: renderer,
		keys:     defaultKeyMap(),
		help:     help.New(),
		window:   cfg.WindowSeconds,
	}
	if cfg.Autoplay {
		m.player.Play()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.player.Playing() {
		return m.tick()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		if msg.gen != m.gen || !m.player.Playing() {
			return m, nil
		}
		m.player.Advance()
		return m, m.tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		m.gen++
		if m.player.Toggle() {
			return m, m.tick()
		}
	case key.Matches(msg, m.keys.First):
		m.player.First()
	case key.Matches(msg, m.keys.Last):
		m.player.Last()
	case key.Matches(msg, m.keys.Forward):
		m.player.Forward()
	case key.Matches(msg, m.keys.Backward):
		m.player.Backward()
	case key.Matches(msg, m.keys.Wider):
		m.window *= windowFactor
	case key.Matches(msg, m.keys.Narrower):
		m.window = max(m.window/windowFactor, minWindowSeconds)
	}
	return m, nil
}

func (m *Model) tick() tea.Cmd {
	gen := m.gen
	fps := m.config.FPS
	if fps <= 0 {
		fps = 1
	}
	return tea.Tick(time.Second/time.Duration(fps), func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	bodyHeight := max(m.height-footerRows, 1)
	view := chartViewport(m.width, bodyHeight, m.config.Margin, m.window, m.config.PenaltySecs)
	frame, err := timeline.FrameAt(m.tour, m.player.Index(), view)
	if err != nil {
		m.err = err
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			errorStyle.Render(fmt.Sprintf("cannot render stage: %v", err)))
	}
	body := m.renderer.Render(frame, m.width, bodyHeight)
	return body + "\n" + m.renderFooter()
}

// Err returns the last frame error shown in the view.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) renderFooter() string {
	state := "paused"
	if m.player.Playing() {
		state = "playing"
	}
	window, err := racetime.FormatDuration(int64(m.window))
	if err != nil {
		window = "?"
	}
	status := fmt.Sprintf("%s · stage %d/%d · window %s",
		state, int(m.player.Index())+1, m.player.Count(), window)
	segments := []string{footerStyle.Render(status), m.help.View(m.keys)}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(segments, "  "))
}
