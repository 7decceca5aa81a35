package vendfall

import "fmt"

// OverflowPolicy selects what a full pool does with a new spawn.
type OverflowPolicy uint8

const (
	// DropNewest silently discards spawns while the pool is full.
	DropNewest OverflowPolicy = iota
	// EvictOldest removes the oldest members to make room.
	EvictOldest
)

func (p OverflowPolicy) String() string {
	switch p {
	case DropNewest:
		return "drop-newest"
	case EvictOldest:
		return "evict-oldest"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", uint8(p))
	}
}

// Handle identifies a spawned entity for the lifetime of its pool. The zero
// Handle is never issued.
type Handle uint64

// pool is a bounded, insertion-ordered entity collection. Spawns made while
// the pool is being iterated are queued and appended when the iteration
// finishes, so update callbacks may spawn freely.
type pool[T any] struct {
	capacity int
	policy   OverflowPolicy

	items []T
	ids   []Handle

	pending    []T
	pendingIDs []Handle
	iterating  bool

	next    Handle
	dropped int
	evicted int
}

func newPool[T any](capacity int, policy OverflowPolicy) (*pool[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: pool capacity %d", ErrInvalidConfig, capacity)
	}
	return &pool[T]{
		capacity: capacity,
		policy:   policy,
		items:    make([]T, 0, capacity),
		ids:      make([]Handle, 0, capacity),
	}, nil
}

// spawn adds v and returns its handle. It reports false when the pool is full
// under DropNewest.
func (p *pool[T]) spawn(v T) (Handle, bool) {
	total := len(p.items) + len(p.pending)
	if total >= p.capacity && p.policy == DropNewest {
		p.dropped++
		return 0, false
	}
	p.next++
	h := p.next
	if p.iterating {
		p.pending = append(p.pending, v)
		p.pendingIDs = append(p.pendingIDs, h)
		return h, true
	}
	if len(p.items) >= p.capacity {
		p.evictFront(len(p.items) - p.capacity + 1)
	}
	p.items = append(p.items, v)
	p.ids = append(p.ids, h)
	return h, true
}

// each calls fn for every member in insertion order. Spawns made by fn are
// deferred until each returns.
func (p *pool[T]) each(fn func(h Handle, v *T)) {
	if p.iterating {
		// Nested iteration shares the outer flush.
		for i := range p.items {
			fn(p.ids[i], &p.items[i])
		}
		return
	}
	p.iterating = true
	for i := range p.items {
		fn(p.ids[i], &p.items[i])
	}
	p.iterating = false
	p.flush()
}

func (p *pool[T]) flush() {
	if len(p.pending) == 0 {
		return
	}
	p.items = append(p.items, p.pending...)
	p.ids = append(p.ids, p.pendingIDs...)
	clear(p.pending)
	p.pending = p.pending[:0]
	p.pendingIDs = p.pendingIDs[:0]
	if over := len(p.items) - p.capacity; over > 0 {
		if p.policy == EvictOldest {
			p.evictFront(over)
		} else {
			p.truncate(p.capacity)
		}
	}
}

func (p *pool[T]) evictFront(n int) {
	if n <= 0 {
		return
	}
	if n > len(p.items) {
		n = len(p.items)
	}
	copy(p.items, p.items[n:])
	copy(p.ids, p.ids[n:])
	p.truncate(len(p.items) - n)
	p.evicted += n
}

func (p *pool[T]) truncate(n int) {
	var zero T
	for i := n; i < len(p.items); i++ {
		p.items[i] = zero
	}
	if dropped := len(p.items) - n; dropped > 0 && p.policy == DropNewest {
		p.dropped += dropped
	}
	p.items = p.items[:n]
	p.ids = p.ids[:n]
}

// retain keeps members for which keep returns true, preserving order, and
// returns how many were removed.
func (p *pool[T]) retain(keep func(v *T) bool) int {
	w := 0
	for i := range p.items {
		if keep(&p.items[i]) {
			if w != i {
				p.items[w] = p.items[i]
				p.ids[w] = p.ids[i]
			}
			w++
		}
	}
	removed := len(p.items) - w
	var zero T
	for i := w; i < len(p.items); i++ {
		p.items[i] = zero
	}
	p.items = p.items[:w]
	p.ids = p.ids[:w]
	return removed
}

func (p *pool[T]) get(h Handle) (*T, bool) {
	for i, id := range p.ids {
		if id == h {
			return &p.items[i], true
		}
	}
	return nil, false
}

func (p *pool[T]) reset() {
	clear(p.items)
	p.items = p.items[:0]
	p.ids = p.ids[:0]
	clear(p.pending)
	p.pending = p.pending[:0]
	p.pendingIDs = p.pendingIDs[:0]
}

// PoolStats reports pool occupancy and overflow counters.
type PoolStats struct {
	Len      int
	Capacity int
	Dropped  int
	Evicted  int
}

func (p *pool[T]) stats() PoolStats {
	return PoolStats{Len: len(p.items), Capacity: p.capacity, Dropped: p.dropped, Evicted: p.evicted}
}
