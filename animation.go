package vendfall

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup drives up to four float64 targets with gween tweens that share
// one duration and easing. Durations are in whatever unit the owner feeds to
// Update; scenes and effects use ticks or reference frames.
type TweenGroup struct {
	tweens [4]*gween.Tween
	fields [4]*float64
	n      int
	Done   bool
}

func newTweenGroup(duration float32, fn ease.TweenFunc, targets []*float64, from, to []float64) *TweenGroup {
	g := &TweenGroup{n: len(targets)}
	for i, f := range targets {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
		g.fields[i] = f
	}
	g.write()
	return g
}

// write samples each tween without advancing it and stores the value.
func (g *TweenGroup) write() {
	for i := range g.n {
		v, _ := g.tweens[i].Update(0)
		*g.fields[i] = float64(v)
	}
}

// Update advances the group by dt and reports whether it has finished.
func (g *TweenGroup) Update(dt float32) bool {
	if g == nil || g.Done {
		return true
	}
	done := true
	for i := range g.n {
		v, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(v)
		done = done && finished
	}
	g.Done = done
	return done
}

// Reset rewinds the group and writes the start values back to its targets.
func (g *TweenGroup) Reset() {
	if g == nil {
		return
	}
	for i := range g.n {
		g.tweens[i].Reset()
	}
	g.write()
	g.Done = false
}

// TweenValue animates *field from `from` to `to`. The start value is written
// to *field immediately.
func TweenValue(field *float64, from, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn, []*float64{field}, []float64{from}, []float64{to})
}

// TweenColor cross-fades *c from `from` to `to`, all four channels together.
func TweenColor(c *Color, from, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn,
		[]*float64{&c.R, &c.G, &c.B, &c.A},
		[]float64{from.R, from.G, from.B, from.A},
		[]float64{to.R, to.G, to.B, to.A},
	)
}
