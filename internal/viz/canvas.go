package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = rune(0x2800)

// cell keeps the most opaque particle that landed in a character cell;
// a braille glyph can only carry one color.
type cell struct {
	value, alpha float64
	set          bool
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
	cells         [][]cell
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		cells:  make([][]cell, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.cells[i] = make([]cell, w)
	}
	c.Clear()
	return c
}

// PixelSize is the canvas size in sub-pixels: two columns and four rows
// per character.
func (c *Canvas) PixelSize() (int, int) { return c.Width * 2, c.Height * 4 }

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
func (c *Canvas) Set(x, y int) {
	c.Plot(x, y, 1, 1)
}

// Plot sets a pixel and offers value and alpha to its cell's color.
func (c *Canvas) Plot(x, y int, value, alpha float64) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if cl := &c.cells[row][col]; !cl.set || alpha > cl.alpha {
		*cl = cell{value: value, alpha: alpha, set: true}
	}
}

// Unset clears a pixel
func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] &^= rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] == blank {
		c.cells[row][col] = cell{}
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.cells[i][j] = cell{}
		}
	}
}

// Count returns the number of lit sub-pixels.
func (c *Canvas) Count() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := r - blank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colors every lit cell from the theme ramp, shaded by the cell's
// alpha. Runs of equal color share one escape sequence.
func (c *Canvas) Render(t Theme) string {
	var b strings.Builder
	var run strings.Builder
	var runColor lipgloss.Color
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runColor == "" {
			b.WriteString(run.String())
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(runColor).Render(run.String()))
		}
		run.Reset()
	}

	for i, row := range c.Grid {
		for j, r := range row {
			var color lipgloss.Color
			if cl := c.cells[i][j]; cl.set {
				color = t.Shade(cl.value, cl.alpha)
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run.WriteRune(r)
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
