// Package systick drives registered components at a fixed system-wide
// cadence, the way a firmware system timer calls each component's periodic
// handler.
package systick

import (
	"context"
	"sync"
	"time"
)

// DefaultPeriod matches the classic 6 ms system tick of the reference board.
const DefaultPeriod = 6 * time.Millisecond

// Component is polled once per system tick while registered.
type Component interface {
	Tick()
}

// Ticker invokes every registered component at a fixed period. Registration
// and deregistration are safe from any goroutine, including a component's
// own Tick.
type Ticker struct {
	period time.Duration

	mu    sync.Mutex
	comps []Component
}

func New(period time.Duration) *Ticker {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Ticker{period: period}
}

func (t *Ticker) Period() time.Duration { return t.period }

// Register adds c to the tick set. Registering an already-registered
// component is a no-op: a component ticks at most once per period.
func (t *Ticker) Register(c Component) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, have := range t.comps {
		if have == c {
			return
		}
	}
	t.comps = append(t.comps, c)
}

// Deregister removes c from the tick set. Unknown components are ignored.
func (t *Ticker) Deregister(c Component) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, have := range t.comps {
		if have == c {
			t.comps = append(t.comps[:i], t.comps[i+1:]...)
			return
		}
	}
}

// Run ticks until ctx is cancelled. Components are ticked outside the
// registration lock so they may register/deregister from their handlers.
func (t *Ticker) Run(ctx context.Context) {
	tick := time.NewTicker(t.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.tickAll()
		}
	}
}

func (t *Ticker) tickAll() {
	t.mu.Lock()
	comps := make([]Component, len(t.comps))
	copy(comps, t.comps)
	t.mu.Unlock()

	for _, c := range comps {
		c.Tick()
	}
}
