package stats

import (
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"
)

// Renderer turns computed statistics into an image or message.
type Renderer interface {
	Render(w io.Writer, s *MatchStats) error
}

// PieChart draws the votes of the owner as a PNG pie: shared positive,
// shared negative, shared zero and not shared.
type PieChart struct {
	Size int
}

var pieColors = []color.NRGBA{
	{R: 0x4c, G: 0xaf, B: 0x50, A: 0xff},
	{R: 0xf4, G: 0x43, B: 0x36, A: 0xff},
	{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
	{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
}

// Slices returns the pie slices in drawing order.
func (PieChart) Slices(s *MatchStats) []int {
	shared := s.With.Total()
	rest := s.Mine.Total() - shared
	if rest < 0 {
		rest = 0
	}
	return []int{s.With.Positive, s.With.Negative, s.With.Zero, rest}
}

func (p PieChart) Render(w io.Writer, s *MatchStats) error {
	size := p.Size
	if size <= 0 {
		size = 256
	}

	dc := gg.NewContext(size, size)
	dc.SetColor(color.White)
	dc.Clear()

	cx, cy := float64(size)/2, float64(size)/2
	r := float64(size)/2 - 4

	slices := p.Slices(s)
	total := 0
	for _, n := range slices {
		total += n
	}

	if total == 0 {
		dc.SetColor(pieColors[len(pieColors)-1])
		dc.DrawCircle(cx, cy, r)
		dc.Fill()
	} else {
		angle := gg.Radians(-90)
		for i, n := range slices {
			if n == 0 {
				continue
			}
			sweep := gg.Radians(360 * float64(n) / float64(total))
			dc.SetColor(pieColors[i])
			dc.MoveTo(cx, cy)
			dc.DrawArc(cx, cy, r, angle, angle+sweep)
			dc.ClosePath()
			dc.Fill()
			angle += sweep
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
