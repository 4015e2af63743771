package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are derived from a theme so cycling themes restyles the panel.
type Styles struct {
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Graph   lipgloss.Style
	Help    lipgloss.Style
	Pane    lipgloss.Style
	Stats   lipgloss.Style
	Running lipgloss.Style
	Paused  lipgloss.Style
	Record  lipgloss.Style
	Error   lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Label: lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value: lipgloss.NewStyle().Foreground(t.Text),
		Graph: lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		Help:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		Pane:  lipgloss.NewStyle().Padding(0, 1),
		Stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2).
			Width(44),
		Running: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Record:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning).Blink(true),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
	}
}

// GradientText colors text along the theme ramp.
func GradientText(text string, t Theme) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	var result strings.Builder
	for i, c := range runes {
		f := 0.0
		if len(runes) > 1 {
			f = float64(i) / float64(len(runes)-1)
		}
		style := lipgloss.NewStyle().Foreground(t.At(0.3 + 0.7*f))
		result.WriteString(style.Render(string(c)))
	}
	return result.String()
}

// ProgressBar renders a bar filled to percent in [0, 1].
func ProgressBar(percent float64, width int, t Theme) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return lipgloss.NewStyle().Foreground(t.Primary).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.Muted).Render(strings.Repeat("░", width-filled))
}
