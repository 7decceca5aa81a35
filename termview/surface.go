// Package termview draws vendfall frames in a terminal with tcell.
package termview

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/vendfall"
)

// Surface is a vendfall.Surface that maps canvas pixels onto terminal cells.
type Surface struct {
	screen tcell.Screen
	jitter *vendfall.Jitter
}

// NewSurface wraps an initialised tcell screen.
func NewSurface(screen tcell.Screen, seed uint64) *Surface {
	return &Surface{screen: screen, jitter: vendfall.NewJitter(seed)}
}

// Size implements vendfall.Surface. The size is in cells.
func (s *Surface) Size() (int, int) {
	return s.screen.Size()
}

// cellMapper converts canvas coordinates to cell coordinates.
type cellMapper struct {
	cols, rows int
	sx, sy     float64
	off        vendfall.Vec2
}

func (m cellMapper) cell(p vendfall.Vec2) (int, int) {
	return int(math.Floor((p.X + m.off.X) * m.sx)), int(math.Floor((p.Y + m.off.Y) * m.sy))
}

func (m cellMapper) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.cols && y < m.rows
}

// Render implements vendfall.Surface.
func (s *Surface) Render(f *vendfall.Frame) error {
	cols, rows := s.screen.Size()
	if cols <= 0 || rows <= 0 || f.Width <= 0 || f.Height <= 0 {
		return nil
	}
	m := cellMapper{
		cols: cols, rows: rows,
		sx: float64(cols) / f.Width, sy: float64(rows) / f.Height,
		off: s.jitter.Shake(f.Shake),
	}
	bg := tcell.StyleDefault.Background(toColor(f.Background))
	s.screen.Fill(' ', bg)

	for _, p := range f.Props {
		s.fillRect(m, p.Bounds, ' ', tcell.StyleDefault.Background(toColor(p.Color)))
	}
	for _, c := range f.Clouds {
		if c.Opacity <= 0.05 {
			continue
		}
		r := c.Size / 2
		glyph := '░'
		if c.Opacity > 0.5 {
			glyph = '▒'
		}
		s.fillRect(m, vendfall.Rect{X: c.Pos.X - r, Y: c.Pos.Y - r/2, Width: 2 * r, Height: r}, glyph, bg.Foreground(tcell.ColorWhite))
	}
	if f.Portal.Active {
		r := f.Portal.Size / 2
		s.fillRect(m, vendfall.Rect{X: f.Portal.Center.X - r, Y: f.Portal.Center.Y - r, Width: 2 * r, Height: 2 * r}, '@', bg.Foreground(tcell.ColorPurple))
	}
	for _, b := range f.Bodies {
		h := b.Size / 2
		s.fillRect(m, vendfall.Rect{X: b.Pos.X - h, Y: b.Pos.Y - h, Width: b.Size, Height: b.Size}, '▪', bg.Foreground(toColor(b.Color)))
	}
	if h := f.Hero; h.Visible && h.Scale > 0 {
		sz := h.Size.Scale(h.Scale)
		s.fillRect(m, vendfall.Rect{X: h.Pos.X - sz.X/2, Y: h.Pos.Y - sz.Y/2, Width: sz.X, Height: sz.Y}, '█', bg.Foreground(toColor(h.Color)))
	}
	for _, p := range f.Particles {
		if p.Color.A <= 0.05 {
			continue
		}
		x, y := m.cell(p.Pos)
		if m.in(x, y) {
			s.screen.SetContent(x, y, particleGlyph(p.Kind), nil, bg.Foreground(toColor(p.Color)))
		}
	}

	if f.Transition.Flash > 0.5 {
		s.screen.Fill(' ', tcell.StyleDefault.Background(tcell.ColorWhite))
	}
	text := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	s.print(0, 0, f.Caption, text)
	if f.Weather != "" {
		s.print(0, 1, f.Weather, text)
	}
	s.screen.Show()
	return nil
}

func (s *Surface) fillRect(m cellMapper, r vendfall.Rect, glyph rune, style tcell.Style) {
	x0, y0 := m.cell(vendfall.Vec2{X: r.X, Y: r.Y})
	x1, y1 := m.cell(vendfall.Vec2{X: r.X + r.Width, Y: r.Y + r.Height})
	x1, y1 = max(x1, x0+1), max(y1, y0+1)
	for y := max(y0, 0); y < min(y1, m.rows); y++ {
		for x := max(x0, 0); x < min(x1, m.cols); x++ {
			s.screen.SetContent(x, y, glyph, nil, style)
		}
	}
}

func (s *Surface) print(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func particleGlyph(k vendfall.ParticleKind) rune {
	switch k {
	case vendfall.ParticleRain:
		return '|'
	case vendfall.ParticleSnow:
		return '*'
	case vendfall.ParticleSparkle:
		return '+'
	case vendfall.ParticleDebris:
		return '#'
	case vendfall.ParticlePortal:
		return 'o'
	default:
		return '.'
	}
}

// toColor flattens a straight-alpha colour onto black.
func toColor(c vendfall.Color) tcell.Color {
	a := math.Max(0, math.Min(1, c.A))
	ch := func(v float64) int32 { return int32(math.Max(0, math.Min(1, v)) * a * 255) }
	return tcell.NewRGBColor(ch(c.R), ch(c.G), ch(c.B))
}
