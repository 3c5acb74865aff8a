package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/peloton/internal/model"
	"github.com/verte-zerg/peloton/internal/racetime"
	"github.com/verte-zerg/peloton/internal/timeline"
)

// Renderer draws one animation frame into a block of terminal text.
type Renderer interface {
	Render(frame timeline.Frame, width, height int) string
}

const (
	headerRows   = 1
	axisRows     = 1
	labelWidth   = 12
	tickSpacing  = 14
	riderMarker  = '●'
	abandonedMkr = '○'
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	dateStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#BFBFBF"))
	axisStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	abandonedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	riderStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4DA3FF"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

var jerseyStyles = []struct {
	keywords []string
	style    lipgloss.Style
}{
	{[]string{"yellow", "jaune"}, lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD400")).Bold(true)},
	{[]string{"green", "vert"}, lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC40"))},
	{[]string{"polka", "pois", "mountain"}, lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))},
	{[]string{"white", "blanc", "young"}, lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))},
}

// chartRows is the number of terminal rows available for riders.
func chartRows(height int) int {
	rows := height - headerRows - axisRows
	if rows < 1 {
		rows = 1
	}
	return rows
}

// chartViewport projects the time window onto the chart columns and rows.
// The leader sits at the left margin and trailing riders extend to the right.
func chartViewport(width, height, margin int, windowSeconds, penaltySeconds float64) timeline.Viewport {
	right := width - margin - labelWidth
	if right <= margin {
		right = margin + 1
	}
	return timeline.Viewport{
		WindowSeconds:  windowSeconds,
		PenaltySeconds: penaltySeconds,
		MarginLeft:     float64(margin),
		MarginRight:    float64(right),
		Top:            0,
		Bottom:         float64(chartRows(height) - 1),
	}
}

type chartRenderer struct{}

// NewChartRenderer returns the terminal chart renderer.
func NewChartRenderer() Renderer {
	return chartRenderer{}
}

// Render implements Renderer. Riders are drawn in frame order so the leaders,
// which come last, end up on top.
func (chartRenderer) Render(frame timeline.Frame, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	rows := chartRows(height)
	g := newGrid(width, rows)
	for _, r := range frame.Riders {
		x := int(math.Round(r.X))
		y := int(math.Round(r.Y))
		if x < 0 || x >= width || y < 0 || y >= rows {
			continue
		}
		marker, style := riderMarker, jerseyStyle(r.Jerseys)
		if r.Abandoned {
			marker, style = abandonedMkr, abandonedStyle
		}
		g.put(x, y, string(marker), style)
		g.put(x+1, y, " "+shortName(r.Rider.Name), labelStyle)
	}

	lines := make([]string, 0, headerRows+rows+axisRows)
	lines = append(lines, renderHeader(frame, width))
	lines = append(lines, g.lines()...)
	lines = append(lines, renderAxis(frame, width))
	return strings.Join(lines, "\n")
}

func renderHeader(frame timeline.Frame, width int) string {
	title := runewidth.Truncate(frame.Title, width, "…")
	date := frame.Date
	gap := width - runewidth.StringWidth(title) - runewidth.StringWidth(date)
	if gap < 1 {
		return titleStyle.Render(title)
	}
	return titleStyle.Render(title) + strings.Repeat(" ", gap) + dateStyle.Render(date)
}

// renderAxis labels columns with the gap to the leader they represent.
func renderAxis(frame timeline.Frame, width int) string {
	line := []rune(strings.Repeat(" ", width))
	start := int(math.Round(frame.Scale.RangeStart))
	for col := start; col < width; col += tickSpacing {
		seconds := frame.Scale.Invert(float64(col)) - frame.DomainStart
		label := "│" + racetime.FormatGap(int64(math.Round(seconds)), 0)
		if col+len([]rune(label)) > width {
			break
		}
		copy(line[col:], []rune(label))
	}
	return axisStyle.Render(string(line))
}

func jerseyStyle(jerseys []model.Jersey) lipgloss.Style {
	for _, js := range jerseyStyles {
		for _, j := range jerseys {
			desc := strings.ToLower(j.Description + " " + j.ImgSrc)
			for _, kw := range js.keywords {
				if strings.Contains(desc, kw) {
					return js.style
				}
			}
		}
	}
	return riderStyle
}

func shortName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return runewidth.Truncate(fields[len(fields)-1], labelWidth-1, "…")
}

// grid is a fixed block of styled terminal cells. A wide rune occupies its
// cell and an empty continuation cell to its right.
type grid struct {
	width int
	cells [][]string
}

func newGrid(width, height int) *grid {
	cells := make([][]string, height)
	for y := range cells {
		cells[y] = make([]string, width)
		for x := range cells[y] {
			cells[y][x] = " "
		}
	}
	return &grid{width: width, cells: cells}
}

func (g *grid) put(x, y int, text string, style lipgloss.Style) {
	row := g.cells[y]
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > g.width {
			return
		}
		g.clear(x, y)
		if w == 2 {
			g.clear(x+1, y)
			row[x+1] = ""
		}
		row[x] = style.Render(string(r))
		x += w
	}
}

// clear blanks a cell and whichever half of a wide rune it belonged to.
func (g *grid) clear(x, y int) {
	row := g.cells[y]
	if row[x] == "" && x > 0 {
		row[x-1] = " "
	}
	if x+1 < g.width && row[x+1] == "" {
		row[x+1] = " "
	}
	row[x] = " "
}

func (g *grid) lines() []string {
	out := make([]string, len(g.cells))
	for y, row := range g.cells {
		out[y] = strings.Join(row, "")
	}
	return out
}
