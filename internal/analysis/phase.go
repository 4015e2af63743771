package analysis

import (
	"strings"
)

// Point2 is one sample of a planar projection.
type Point2 struct {
	X, Y float64
}

// Project returns channels xIdx and yIdx of every sample.
func Project(tr *Trajectory, xIdx, yIdx int) []Point2 {
	if tr == nil || tr.Len() == 0 || xIdx >= len(tr.States[0]) || yIdx >= len(tr.States[0]) {
		return nil
	}
	pts := make([]Point2, tr.Len())
	for i, s := range tr.States {
		pts[i] = Point2{s[xIdx], s[yIdx]}
	}
	return pts
}

// PoincareSection records (recordX, recordY) wherever channel crossIdx
// crosses threshold upward, linearly interpolated between samples.
func PoincareSection(tr *Trajectory, crossIdx int, threshold float64, recordX, recordY int) []Point2 {
	if tr == nil || tr.Len() < 2 {
		return nil
	}
	dim := len(tr.States[0])
	if crossIdx >= dim || recordX >= dim || recordY >= dim {
		return nil
	}

	var pts []Point2
	for i := 1; i < tr.Len(); i++ {
		prev, curr := tr.States[i-1], tr.States[i]
		if !(prev[crossIdx] < threshold && curr[crossIdx] >= threshold) {
			continue
		}
		frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
		pts = append(pts, Point2{
			X: prev[recordX] + frac*(curr[recordX]-prev[recordX]),
			Y: prev[recordY] + frac*(curr[recordY]-prev[recordY]),
		})
	}
	return pts
}

// PhasePortrait plots points onto a width x height character grid, padded
// by 10% of the data range, with axes drawn where they are visible.
func PhasePortrait(points []Point2, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
