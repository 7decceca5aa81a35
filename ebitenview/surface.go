// Package ebitenview draws vendfall frames with Ebitengine.
package ebitenview

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/vendfall"
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// grainDots is the number of film-grain dots drawn over the dispenser scene.
const grainDots = 120

// Surface is a vendfall.Surface backed by the ebiten screen passed to Draw.
// It only draws while a target is bound.
type Surface struct {
	target *ebiten.Image
	jitter *vendfall.Jitter

	width, height int
	minimized     bool

	verts []ebiten.Vertex
	inds  []uint16
}

// NewSurface returns a surface of the given logical size.
func NewSurface(width, height int, seed uint64) *Surface {
	return &Surface{width: width, height: height, jitter: vendfall.NewJitter(seed)}
}

// Size implements vendfall.Surface. A minimized window has zero area.
func (s *Surface) Size() (int, int) {
	if s.minimized || s.target == nil {
		return 0, 0
	}
	b := s.target.Bounds()
	return b.Dx(), b.Dy()
}

// bind sets the image the next Render draws into.
func (s *Surface) bind(target *ebiten.Image, minimized bool) {
	s.target = target
	s.minimized = minimized
}

// Render implements vendfall.Surface.
func (s *Surface) Render(f *vendfall.Frame) error {
	dst := s.target
	if dst == nil {
		return nil
	}
	dst.Fill(toRGBA(f.Background))
	off := s.jitter.Shake(f.Shake)

	for _, p := range f.Props {
		s.drawProp(dst, p, off)
	}
	for _, c := range f.Clouds {
		drawCloud(dst, c, off)
	}
	if f.Portal.Active {
		drawPortal(dst, f.Portal, off)
	}
	for _, b := range f.Bodies {
		s.fillQuad(dst, b.Pos.Add(off), vendfall.Vec2{X: b.Size, Y: b.Size}, b.Rotation, b.Color)
	}
	if h := f.Hero; h.Visible && h.Scale > 0 {
		s.fillQuad(dst, h.Pos.Add(off), h.Size.Scale(h.Scale), h.Rotation, h.Color)
	}
	for _, p := range f.Particles {
		s.drawParticle(dst, p, off)
	}

	if f.Scene == vendfall.SceneDispenser {
		for _, g := range s.jitter.Grain(grainDots, f.Width, f.Height) {
			vector.DrawFilledRect(dst, float32(g.X), float32(g.Y), 1, 1, color.RGBA{255, 255, 255, 12}, false)
		}
	}
	if f.Caption != "" {
		ebitenutil.DebugPrintAt(dst, f.Caption, 8, 8)
	}
	if f.Weather != "" {
		ebitenutil.DebugPrintAt(dst, f.Weather, 8, 24)
	}
	if a := f.Transition.Flash; a > 0 {
		vector.DrawFilledRect(dst, 0, 0, float32(f.Width), float32(f.Height), toRGBA(vendfall.ColorWhite.WithAlpha(a)), false)
	}
	return nil
}

func (s *Surface) drawProp(dst *ebiten.Image, p vendfall.PropView, off vendfall.Vec2) {
	r := p.Bounds
	if p.Rotation != 0 {
		s.fillQuad(dst, r.Center().Add(off), vendfall.Vec2{X: r.Width, Y: r.Height}, p.Rotation, p.Color)
		return
	}
	vector.DrawFilledRect(dst, float32(r.X+off.X), float32(r.Y+off.Y), float32(r.Width), float32(r.Height), toRGBA(p.Color), false)
	if p.Kind == vendfall.PropMachine || p.Kind == vendfall.PropCar {
		vector.StrokeRect(dst, float32(r.X+off.X), float32(r.Y+off.Y), float32(r.Width), float32(r.Height), 2, color.RGBA{0, 0, 0, 160}, false)
	}
}

func drawCloud(dst *ebiten.Image, c vendfall.CloudView, off vendfall.Vec2) {
	if c.Opacity <= 0 || c.Size <= 0 {
		return
	}
	clr := toRGBA(vendfall.ColorWhite.WithAlpha(c.Opacity))
	x, y, r := float32(c.Pos.X+off.X), float32(c.Pos.Y+off.Y), float32(c.Size/2)
	vector.DrawFilledCircle(dst, x, y, r, clr, true)
	vector.DrawFilledCircle(dst, x-r*0.6, y+r*0.2, r*0.7, clr, true)
	vector.DrawFilledCircle(dst, x+r*0.6, y+r*0.2, r*0.7, clr, true)
}

func drawPortal(dst *ebiten.Image, p vendfall.PortalView, off vendfall.Vec2) {
	cx, cy := p.Center.X+off.X, p.Center.Y+off.Y
	clr := color.RGBA{200, 120, 255, 200}
	for ring := 1; ring <= 3; ring++ {
		r := p.Size / 2 * float64(ring) / 3
		vector.StrokeCircle(dst, float32(cx), float32(cy), float32(r), 2, clr, true)
	}
	for arm := 0; arm < 4; arm++ {
		a := p.Rotation + float64(arm)*math.Pi/2
		x1 := cx + math.Cos(a)*p.Size/2
		y1 := cy + math.Sin(a)*p.Size/2
		vector.StrokeLine(dst, float32(cx), float32(cy), float32(x1), float32(y1), 1, clr, true)
	}
}

func (s *Surface) drawParticle(dst *ebiten.Image, p vendfall.ParticleView, off vendfall.Vec2) {
	if p.Color.A <= 0 || p.Size <= 0 {
		return
	}
	x, y := float32(p.Pos.X+off.X), float32(p.Pos.Y+off.Y)
	switch p.Kind {
	case vendfall.ParticleRain:
		vector.StrokeLine(dst, x, y, x, y+float32(p.Size), 1, toRGBA(p.Color), false)
	case vendfall.ParticleDebris:
		s.fillQuad(dst, p.Pos.Add(off), vendfall.Vec2{X: p.Size, Y: p.Size}, p.Rotation, p.Color)
	case vendfall.ParticleSparkle:
		half := float32(p.Size)
		clr := toRGBA(p.Color)
		vector.StrokeLine(dst, x-half, y, x+half, y, 1, clr, true)
		vector.StrokeLine(dst, x, y-half, x, y+half, 1, clr, true)
	default:
		vector.DrawFilledCircle(dst, x, y, float32(p.Size/2), toRGBA(p.Color), true)
	}
}

// fillQuad fills a size.X by size.Y rectangle centred on c and rotated by rot
// radians.
func (s *Surface) fillQuad(dst *ebiten.Image, c, size vendfall.Vec2, rot float64, clr vendfall.Color) {
	if clr.A <= 0 {
		return
	}
	sin, cos := math.Sincos(rot)
	hw, hh := size.X/2, size.Y/2
	corners := [4]vendfall.Vec2{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}

	// Premultiplied vertex colour.
	r, g, b, a := float32(clr.R*clr.A), float32(clr.G*clr.A), float32(clr.B*clr.A), float32(clr.A)
	s.verts = s.verts[:0]
	for _, k := range corners {
		s.verts = append(s.verts, ebiten.Vertex{
			DstX:   float32(c.X + k.X*cos - k.Y*sin),
			DstY:   float32(c.Y + k.X*sin + k.Y*cos),
			SrcX:   1,
			SrcY:   1,
			ColorR: r,
			ColorG: g,
			ColorB: b,
			ColorA: a,
		})
	}
	s.inds = append(s.inds[:0], 0, 1, 2, 0, 2, 3)
	dst.DrawTriangles(s.verts, s.inds, whiteSubImage, &ebiten.DrawTrianglesOptions{})
}

// toRGBA converts a straight-alpha Color to a premultiplied color.RGBA.
func toRGBA(c vendfall.Color) color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
