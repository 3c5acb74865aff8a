package tui

import (
	"math/rand"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/standings"
	"github.com/verte-zerg/peloton/internal/timeline"
)

func sampleTour(t *testing.T) *model.Tour {
	t.Helper()
	stages := []model.Stage{
		{Index: "Stage 1", Description: "Düsseldorf > Düsseldorf", Type: "TT", Date: "Saturday 1st July", Riders: []model.RiderResult{
			{Position: "1", Name: "GERAINT THOMAS", Avatar: "_TDF_2017_RIDER_1.jpg", FieldTime: "00:16:04",
				Jerseys: []model.Jersey{{ImgSrc: "/jersey-yellow.png", Description: "Yellow jersey"}}},
			{Position: "2", Name: "CHRIS FROOME", Avatar: "_TDF_2017_RIDER_2.jpg", FieldTime: "00:16:16"},
		}},
		{Index: "Stage 2", Description: "Düsseldorf > Liège", Type: "Flat", Date: "Sunday 2nd July", Riders: []model.RiderResult{
			{Position: "1", Name: "CHRIS FROOME", Avatar: "_TDF_2017_RIDER_2.jpg", FieldTime: "04:37:06"},
			{Position: "2", Name: "GERAINT THOMAS", Avatar: "_TDF_2017_RIDER_1.jpg", FieldTime: "04:37:06"},
		}},
		{Index: "Stage 3", Description: "Verviers > Longwy", Type: "Hill", Date: "Monday 3rd July", Riders: []model.RiderResult{
			{Position: "1", Name: "CHRIS FROOME", Avatar: "_TDF_2017_RIDER_2.jpg", FieldTime: "05:07:19"},
			{Position: "2", Name: "GERAINT THOMAS", Avatar: "_TDF_2017_RIDER_1.jpg", FieldTime: "05:07:19"},
		}},
	}
	tour, err := standings.Aggregate(stages, standings.Options{Rand: rand.New(rand.NewSource(7))})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	return tour
}

func testConfig() model.Config {
	return model.Config{
		AvatarPattern: standings.DefaultAvatarPattern,
		FPS:           30,
		Step:          0.25,
		NavStep:       1,
		WindowSeconds: 300,
		PenaltySecs:   timeline.DefaultPenaltySeconds,
		Margin:        2,
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

func TestKeysNavigateAndClamp(t *testing.T) {
	m := NewModel(testConfig(), sampleTour(t), nil)
	for i := 0; i < 5; i++ {
		m.Update(runes("l"))
	}
	if got := m.player.Index(); got != 2 {
		t.Fatalf("expected forward to clamp at 2, got %v", got)
	}
	m.Update(runes("h"))
	if got := m.player.Index(); got != 1 {
		t.Fatalf("expected backward to 1, got %v", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyHome})
	if got := m.player.Index(); got != 0 {
		t.Fatalf("expected home to 0, got %v", got)
	}
	m.Update(runes("G"))
	if got := m.player.Index(); got != 2 {
		t.Fatalf("expected G to last stage, got %v", got)
	}
	m.Update(runes("g"))
	if got := m.player.Index(); got != 0 {
		t.Fatalf("expected g to first stage, got %v", got)
	}
	if _, cmd := m.Update(runes("q")); cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestToggleDropsStaleTicks(t *testing.T) {
	m := NewModel(testConfig(), sampleTour(t), nil)
	if m.Init() != nil {
		t.Fatalf("expected no tick while paused")
	}
	if _, cmd := m.Update(space); cmd == nil {
		t.Fatalf("expected tick after starting playback")
	}
	if !m.player.Playing() {
		t.Fatalf("expected player to be playing")
	}
	if _, cmd := m.Update(tickMsg{gen: m.gen - 1}); cmd != nil {
		t.Fatalf("stale tick should not schedule another")
	}
	if got := m.player.Index(); got != 0 {
		t.Fatalf("stale tick advanced the player to %v", got)
	}
	if _, cmd := m.Update(tickMsg{gen: m.gen}); cmd == nil {
		t.Fatalf("live tick should schedule the next one")
	}
	if got := m.player.Index(); got != 0.25 {
		t.Fatalf("expected index 0.25, got %v", got)
	}

	live := m.gen
	m.Update(space)
	if m.player.Playing() {
		t.Fatalf("expected player to pause")
	}
	m.Update(tickMsg{gen: live})
	if got := m.player.Index(); got != 0.25 {
		t.Fatalf("tick after pause advanced the player to %v", got)
	}
}

func TestAutoplayStartsTicking(t *testing.T) {
	cfg := testConfig()
	cfg.Autoplay = true
	m := NewModel(cfg, sampleTour(t), nil)
	if m.Init() == nil {
		t.Fatalf("expected a tick on start")
	}
}

func TestWindowKeys(t *testing.T) {
	m := NewModel(testConfig(), sampleTour(t), nil)
	m.Update(runes("+"))
	if m.window != 375 {
		t.Fatalf("expected window 375, got %v", m.window)
	}
	for i := 0; i < 20; i++ {
		m.Update(runes("-"))
	}
	if m.window != minWindowSeconds {
		t.Fatalf("expected window floor %d, got %v", minWindowSeconds, m.window)
	}
}

func TestViewShowsStageHeader(t *testing.T) {
	m := NewModel(testConfig(), sampleTour(t), nil)
	if m.View() != "" {
		t.Fatalf("expected empty view before the first resize")
	}
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 16})
	view := m.View()
	if !strings.Contains(view, "Stage 1: Düsseldorf > Düsseldorf") {
		t.Fatalf("missing stage title:\n%s", view)
	}
	if !strings.Contains(view, "Saturday 1st July") {
		t.Fatalf("missing stage date:\n%s", view)
	}
	if !strings.Contains(view, "paused · stage 1/3") {
		t.Fatalf("missing status:\n%s", view)
	}
	m.Update(runes("l"))
	m.Update(runes("l"))
	if view := m.View(); !strings.Contains(view, "Stage 3: Verviers > Longwy") {
		t.Fatalf("missing last stage title:\n%s", view)
	}
	if m.Err() != nil {
		t.Fatalf("unexpected frame error: %v", m.Err())
	}
}
