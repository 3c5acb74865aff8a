package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is one line of a history plot.
type Series struct {
	Name   string
	Values []float64
	// Format renders an axis label for a value of this series.
	Format func(float64) string
	// Inverted puts the smallest value at the top, as for ranks.
	Inverted bool
}

const (
	defaultPlotHeight = 8
	minPlotWidth      = 8
	fallbackWidth     = 80
	axisSeparator     = " ┤"
)

var seriesStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("170")),
}

// TerminalWidth returns the width of stdout, or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// Plot writes one braille chart per series, each scaled to its own range.
// A width of zero means the terminal width.
func Plot(w io.Writer, title string, series []Series, width, height int) error {
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = TerminalWidth()
	}
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		lines := plotLines(s, width, height, seriesStyles[i%len(seriesStyles)])
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func plotLines(s Series, width, height int, style lipgloss.Style) []string {
	format := s.Format
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.0f", v) }
	}
	lo, hi := valueRange(s.Values)
	top, bottom := format(hi), format(lo)
	if s.Inverted {
		top, bottom = bottom, top
	}
	labelWidth := max(runewidth.StringWidth(top), runewidth.StringWidth(bottom))
	plotWidth := width - labelWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}

	c := newCanvas(plotWidth, height)
	dotsHigh := height * 4
	prevX, prevY := -1, -1
	for i, v := range s.Values {
		x := pointX(i, len(s.Values), plotWidth*2)
		frac := 0.5
		if hi > lo {
			frac = (v - lo) / (hi - lo)
		}
		if !s.Inverted {
			frac = 1 - frac
		}
		y := int(math.Round(frac * float64(dotsHigh-1)))
		if prevX >= 0 {
			line(prevX, prevY, x, y, c.set)
		} else {
			c.set(x, y)
		}
		prevX, prevY = x, y
	}

	out := make([]string, 0, height+1)
	out = append(out, s.Name)
	for row, cells := range c.rows() {
		label := ""
		switch row {
		case 0:
			label = top
		case height - 1:
			label = bottom
		}
		out = append(out, runewidth.FillLeft(label, labelWidth)+axisSeparator+style.Render(cells))
	}
	return out
}

func pointX(i, count, dotsWide int) int {
	if count <= 1 {
		return 0
	}
	return int(math.Round(float64(i) * float64(dotsWide-1) / float64(count-1)))
}

func valueRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// canvas is a grid of braille cells, two dots wide and four dots high each.
type canvas struct {
	width  int
	height int
	cells  []uint8
}

func newCanvas(width, height int) *canvas {
	return &canvas{width: width, height: height, cells: make([]uint8, width*height)}
}

var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func (c *canvas) set(x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy*c.width+cx] |= dotBits[y%4][x%2]
}

func (c *canvas) rows() []string {
	out := make([]string, c.height)
	for y := 0; y < c.height; y++ {
		var b strings.Builder
		for _, mask := range c.cells[y*c.width : (y+1)*c.width] {
			b.WriteRune(rune(0x2800 + int(mask)))
		}
		out[y] = b.String()
	}
	return out
}

// line walks the Bresenham line between two dots.
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
