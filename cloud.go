package vendfall

import (
	"math"
)

// Cloud is a non-colliding weather decoration. A drifting cloud sways around
// its drift path; once it starts dispersing it moves away from the point that
// disturbed it, expands and fades, and can never drift again.
type Cloud struct {
	Pos      Vec2
	Origin   Vec2
	Size     float64
	BaseSize float64
	Opacity  float64 // 0..1
	Layer    int

	// Drift is a constant velocity in px per reference frame.
	Drift Vec2
	// Sway is the amplitude of sinusoidal drift in px per reference frame;
	// Phase offsets it per cloud.
	Sway  float64
	Phase float64
	// Breathe is the relative size pulse while drifting.
	Breathe float64
	// Wrap, when set, wraps the cloud horizontally around WrapWidth and
	// vertically past WrapHeight.
	Wrap       bool
	WrapWidth  float64
	WrapHeight float64

	Dispersing bool
	// DisperseDir is the unit direction of dispersal.
	DisperseDir Vec2
	// DisperseRate is how far the cloud travels per reference frame;
	// DisperseDecay scales it every reference frame.
	DisperseRate  float64
	DisperseDecay float64
	// Expansion is size growth per px travelled.
	Expansion float64
	// FadeRate is opacity lost per reference frame; FadeAccel adds opacity
	// loss per px travelled.
	FadeRate  float64
	FadeAccel float64
	Rise      float64 // upward drift per reference frame while dispersing

	travelled float64
	age       float64
}

// FullyFaded reports whether a dispersing cloud has no opacity left.
func (c *Cloud) FullyFaded() bool {
	return c.Dispersing && c.Opacity <= 0
}

// Disperse starts dispersal away from source. It has no effect on a cloud
// that is already dispersing.
func (c *Cloud) Disperse(source Vec2) {
	if c.Dispersing {
		return
	}
	dir, l := c.Pos.Sub(source).Normalize()
	if l == 0 {
		dir = Vec2{0, -1}
	}
	c.Dispersing = true
	c.DisperseDir = dir
	c.Origin = c.Pos
}

func (c *Cloud) update(dt, ref float64) {
	frames := dt * ref
	c.age += frames
	if c.Dispersing {
		step := c.DisperseRate * frames
		c.travelled += step
		if c.DisperseDecay > 0 && c.DisperseDecay < 1 {
			c.DisperseRate *= math.Pow(c.DisperseDecay, frames)
		}
		c.Origin.Y -= c.Rise * frames
		c.Pos = c.Origin.Add(c.DisperseDir.Scale(c.travelled))
		c.Size = c.BaseSize + c.travelled*c.Expansion
		c.Opacity -= (c.FadeRate + c.travelled*c.FadeAccel) * frames
		if c.Opacity < 0 {
			c.Opacity = 0
		}
		return
	}

	c.Pos.X += (c.Drift.X + math.Sin(c.age*0.032+c.Phase)*c.Sway) * frames
	c.Pos.Y += (c.Drift.Y + math.Cos(c.age*0.024+c.Phase*1.3)*c.Sway*0.7) * frames
	if c.Breathe != 0 {
		c.Size = c.BaseSize * (1 + math.Sin(c.age*0.08+c.Phase)*c.Breathe)
	}
	if c.Wrap {
		if c.Pos.X < -c.Size {
			c.Pos.X = c.WrapWidth + c.Size
		} else if c.Pos.X > c.WrapWidth+c.Size {
			c.Pos.X = -c.Size
		}
		if c.Pos.Y > c.WrapHeight {
			c.Pos.Y = -c.Size
		}
	}
}

func (c *Cloud) finite() bool {
	return c.Pos.Finite() && isFinite(c.Size) && isFinite(c.Opacity)
}

// CloudPool is a bounded pool of clouds. New clouds are dropped when the
// pool is full.
type CloudPool struct {
	p   *pool[Cloud]
	ref float64
}

// NewCloudPool creates a pool holding at most capacity clouds. ref is the
// reference frame rate cloud rates are expressed in.
func NewCloudPool(capacity int, ref float64) (*CloudPool, error) {
	p, err := newPool[Cloud](capacity, DropNewest)
	if err != nil {
		return nil, err
	}
	if ref <= 0 {
		ref = DefaultReferenceRate
	}
	return &CloudPool{p: p, ref: ref}, nil
}

// Spawn adds a cloud. BaseSize and Origin default from Size and Pos.
func (cp *CloudPool) Spawn(c Cloud) (Handle, bool) {
	if !c.finite() {
		return 0, false
	}
	if c.BaseSize == 0 {
		c.BaseSize = c.Size
	}
	if c.Origin == (Vec2{}) {
		c.Origin = c.Pos
	}
	c.Opacity = clamp(c.Opacity, 0, 1)
	return cp.p.spawn(c)
}

// UpdateAll advances every cloud. A cloud whose state turns non-finite is
// forced to fade out.
func (cp *CloudPool) UpdateAll(dt float64) {
	if !validDt(dt) {
		return
	}
	cp.p.each(func(_ Handle, c *Cloud) {
		prev := *c
		c.update(dt, cp.ref)
		if !c.finite() {
			*c = prev
			c.Dispersing = true
			c.Opacity = 0
		}
	})
}

// DisperseNear starts dispersal of every drifting cloud on a layer below
// maxLayer whose center lies within radius of point. It returns how many
// clouds started dispersing.
func (cp *CloudPool) DisperseNear(point Vec2, radius float64, maxLayer int) int {
	n := 0
	cp.p.each(func(_ Handle, c *Cloud) {
		if c.Dispersing || c.Layer >= maxLayer {
			return
		}
		if c.Pos.Sub(point).Len() < radius {
			c.Disperse(point)
			n++
		}
	})
	return n
}

// CullDead removes fully faded clouds and returns the count.
func (cp *CloudPool) CullDead() int {
	return cp.p.retain(func(c *Cloud) bool { return !c.FullyFaded() })
}

// Each calls fn for every cloud in insertion order.
func (cp *CloudPool) Each(fn func(c *Cloud)) {
	cp.p.each(func(_ Handle, c *Cloud) { fn(c) })
}

// Get returns the cloud with handle h if it is still live.
func (cp *CloudPool) Get(h Handle) (*Cloud, bool) { return cp.p.get(h) }

// Len returns the number of clouds.
func (cp *CloudPool) Len() int { return len(cp.p.items) }

// Cap returns the pool capacity.
func (cp *CloudPool) Cap() int { return cp.p.capacity }

// Stats returns occupancy and overflow counters.
func (cp *CloudPool) Stats() PoolStats { return cp.p.stats() }

// Clear removes every cloud.
func (cp *CloudPool) Clear() { cp.p.reset() }
