package viz

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the TUI colors and the ramp particles are colored from.
type Theme struct {
	Name       string
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Warning    lipgloss.Color
	// Ramp maps a normalized scalar in [0, 1] to a color, low to high.
	Ramp []lipgloss.Color
}

var (
	ThemePlasma = Theme{
		Name:       "plasma",
		Primary:    lipgloss.Color("#f89441"),
		Accent:     lipgloss.Color("#f0f921"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666666"),
		Warning:    lipgloss.Color("#ff4444"),
		Ramp: []lipgloss.Color{
			"#0d0887", "#4c02a1", "#7e03a8", "#a92395", "#cc4778",
			"#e56b5d", "#f89441", "#fdc328", "#f0f921",
		},
	}

	ThemeViridis = Theme{
		Name:       "viridis",
		Primary:    lipgloss.Color("#35b779"),
		Accent:     lipgloss.Color("#fde725"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666666"),
		Warning:    lipgloss.Color("#ff4444"),
		Ramp: []lipgloss.Color{
			"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
			"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
		},
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Primary:    lipgloss.Color("#00ff00"), // Green phosphor
		Accent:     lipgloss.Color("#88ff88"),
		Background: lipgloss.Color("#001100"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#005500"),
		Warning:    lipgloss.Color("#ffff00"),
		Ramp:       []lipgloss.Color{"#003300", "#00aa00", "#88ff88"},
	}

	ThemeOcean = Theme{
		Name:       "ocean",
		Primary:    lipgloss.Color("#0077be"),
		Accent:     lipgloss.Color("#ffd700"),
		Background: lipgloss.Color("#001a33"),
		Text:       lipgloss.Color("#e0f0ff"),
		Muted:      lipgloss.Color("#4488aa"),
		Warning:    lipgloss.Color("#ff4444"),
		Ramp:       []lipgloss.Color{"#003366", "#0077be", "#00a8cc", "#e0f0ff"},
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Primary:    lipgloss.Color("#ffffff"),
		Accent:     lipgloss.Color("#0088ff"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#888888"),
		Warning:    lipgloss.Color("#ffaa00"),
		Ramp:       []lipgloss.Color{"#ffffff"},
	}

	Themes = []Theme{
		ThemePlasma,
		ThemeViridis,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to plasma.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemePlasma
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// At samples the ramp at v, clamped to [0, 1], interpolating linearly
// between neighbouring stops.
func (t Theme) At(v float64) lipgloss.Color {
	switch len(t.Ramp) {
	case 0:
		return t.Primary
	case 1:
		return t.Ramp[0]
	}
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Max(0, math.Min(1, v))
	pos := v * float64(len(t.Ramp)-1)
	i := int(pos)
	if i >= len(t.Ramp)-1 {
		return t.Ramp[len(t.Ramp)-1]
	}
	return mix(t.Ramp[i], t.Ramp[i+1], pos-float64(i))
}

// Shade is At dimmed toward the background by alpha, the terminal's
// stand-in for transparency.
func (t Theme) Shade(v, alpha float64) lipgloss.Color {
	return mix(t.Background, t.At(v), math.Max(0, math.Min(1, alpha)))
}

func mix(a, b lipgloss.Color, f float64) lipgloss.Color {
	ar, ag, ab := parseHex(string(a))
	br, bg, bb := parseHex(string(b))
	lerp := func(x, y int) int { return int(math.Round(float64(x) + f*float64(y-x))) }
	return lipgloss.Color(hexColor(lerp(ar, br), lerp(ag, bg), lerp(ab, bb)))
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	r = parseHexByte(hex[1:3])
	g = parseHexByte(hex[3:5])
	b = parseHexByte(hex[5:7])
	return
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		if c >= '0' && c <= '9' {
			val += int(c - '0')
		} else if c >= 'a' && c <= 'f' {
			val += int(c - 'a' + 10)
		} else if c >= 'A' && c <= 'F' {
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
