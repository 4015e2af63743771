package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
)

// GIFRecorder collects canvas frames as two-color images.
type GIFRecorder struct {
	frames []*image.Paletted
	// Delay between frames in hundredths of a second.
	Delay int
}

func NewGIFRecorder(delay int) *GIFRecorder {
	if delay <= 0 {
		delay = 2
	}
	return &GIFRecorder{Delay: delay}
}

func (g *GIFRecorder) Len() int { return len(g.frames) }

// Capture rasterizes every braille dot of c into an 8x16 pixel cell.
func (g *GIFRecorder) Capture(c *Canvas) {
	charW, charH := 8, 16
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			pattern := int(c.Grid[row][col] - blank)
			if pattern <= 0 {
				continue
			}
			baseX, baseY := col*charW, row*charH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, 1)
						}
					}
				}
			}
		}
	}
	g.frames = append(g.frames, img)
}

// Save writes the recorded frames as a looping animation and clears them.
func (g *GIFRecorder) Save(path string) error {
	if len(g.frames) == 0 {
		return errors.New("viz: no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range g.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, g.Delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	g.frames = nil
	return f.Close()
}
