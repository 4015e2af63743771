package viz

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"sort"

	"github.com/san-kum/flowsim/internal/sim"
)

// SVGOptions sizes an SVG frame in user units.
type SVGOptions struct {
	Width, Height int
	Theme         Theme
	// Radius is the dot radius of the nearest particle; the farthest is
	// drawn at half of it.
	Radius float64
	Title  string
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Width <= 0 {
		o.Width = 600
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Radius <= 0 {
		o.Radius = 1.5
	}
	if o.Theme.Name == "" {
		o.Theme = ThemePlasma
	}
	return o
}

// WriteSVG draws s as one circle per particle, back to front, with fill
// opacity from the age fade and depth cue.
func WriteSVG(w io.Writer, s sim.Snapshot, v *View, opts SVGOptions) error {
	opts = opts.withDefaults()
	pts := v.Points(s)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Depth < pts[j].Depth })

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", opts.Theme.Background)
	if opts.Title != "" {
		fmt.Fprintf(bw, `<text x="8" y="18" fill="%s" font-family="monospace" font-size="12">%s t=%.2f n=%d</text>`+"\n",
			opts.Theme.Text, html.EscapeString(opts.Title), s.Time, s.Len())
	}
	for _, p := range pts {
		r := opts.Radius * (0.5 + 0.5*p.Depth)
		fmt.Fprintf(bw, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="%.3f"/>`+"\n",
			p.U*float64(opts.Width), p.V*float64(opts.Height), r,
			opts.Theme.At(p.Value), math.Max(0, math.Min(1, p.Alpha)))
	}
	fmt.Fprintln(bw, "</svg>")
	return bw.Flush()
}
