package viz

import (
	"fmt"
	"io"

	"github.com/san-kum/flowsim/internal/sim"
)

// Terminal is a sim.Renderer that prints every Every-th frame as colored
// braille. Write errors are kept and stop further output.
type Terminal struct {
	w      io.Writer
	view   *View
	canvas *Canvas
	theme  Theme
	Every  int
	// Clear homes the cursor and clears the screen before each frame.
	Clear bool
	Label string
	err   error
}

func NewTerminal(w io.Writer, view *View, width, height int) *Terminal {
	return &Terminal{
		w:      w,
		view:   view,
		canvas: NewCanvas(width, height),
		theme:  ThemePlasma,
		Every:  1,
	}
}

func (t *Terminal) SetTheme(th Theme) { t.theme = th }

func (t *Terminal) Err() error { return t.err }

func (t *Terminal) Render(s sim.Snapshot) {
	if t.err != nil || (t.Every > 1 && s.Tick%t.Every != 0) {
		return
	}
	t.view.DrawInto(t.canvas, s)

	if t.Clear {
		if _, t.err = io.WriteString(t.w, "\x1b[H\x1b[2J"); t.err != nil {
			return
		}
	}
	_, t.err = fmt.Fprintf(t.w, "%s tick=%d t=%.2f live=%d\n%s",
		t.Label, s.Tick, s.Time, s.Len(), t.canvas.Render(t.theme))
}
