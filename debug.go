package vendfall

import (
	"context"
	"log/slog"
	"time"
)

// debugStats holds per-tick timing and entity counts.
// Only populated when Director.debug is true.
type debugStats struct {
	updateTime time.Duration
	renderTime time.Duration
	particles  int
	bodies     int
	clouds     int
}

// debugLog logs timing and entity counts at Debug level.
func (d *Director) debugLog() {
	if !d.debug {
		return
	}
	s := d.stats
	d.logger.LogAttrs(context.Background(), slog.LevelDebug, "tick stats",
		slog.Int("tick", d.tick),
		slog.String("scene", d.scene.Kind().String()),
		slog.String("state", d.transition.State().String()),
		slog.Duration("update", s.updateTime),
		slog.Duration("render", s.renderTime),
		slog.Duration("total", s.updateTime+s.renderTime),
		slog.Int("particles", s.particles),
		slog.Int("bodies", s.bodies),
		slog.Int("clouds", s.clouds),
	)
	if r, ok := d.scene.(poolReporter); ok {
		r.eachPool(func(name string, st PoolStats) {
			debugCheckPool(d.logger, name, st)
		})
	}
}

// poolReporter is implemented by every scene built on sceneBase.
type poolReporter interface {
	eachPool(fn func(name string, st PoolStats))
}

// poolWarnThreshold is the occupancy fraction above which debugCheckPool warns.
const poolWarnThreshold = 0.9

// debugCheckPool warns when a pool is close to its capacity or has started
// dropping or evicting.
func debugCheckPool(logger *slog.Logger, name string, st PoolStats) {
	if st.Capacity == 0 {
		return
	}
	if float64(st.Len)/float64(st.Capacity) >= poolWarnThreshold || st.Dropped > 0 || st.Evicted > 0 {
		logger.Debug("pool pressure",
			"pool", name, "len", st.Len, "cap", st.Capacity,
			"dropped", st.Dropped, "evicted", st.Evicted)
	}
}
