package watchdog

import (
	"sync/atomic"
	"time"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/sched"
)

// Watchdog tracks liveness of the long-running loops (snapshot scheduler,
// metrics sampler, gateway) via heartbeats. A component silent past its
// threshold is flagged unhealthy and logged; the engine keeps running.
type Watchdog struct {
	clock         sched.Clock
	components    map[string]*componentHealth
	checkInterval time.Duration
	running       atomic.Bool
}

type componentHealth struct {
	name          string
	lastHeartbeat atomic.Int64
	healthy       atomic.Bool
	threshold     time.Duration
}

func New(clock sched.Clock, checkInterval time.Duration) *Watchdog {
	return &Watchdog{
		clock:         clock,
		components:    make(map[string]*componentHealth),
		checkInterval: checkInterval,
	}
}

// Register adds a component before Start. Not safe to call once running.
func (w *Watchdog) Register(name string, threshold time.Duration) {
	c := &componentHealth{name: name, threshold: threshold}
	c.healthy.Store(true)
	w.components[name] = c
}

func (w *Watchdog) Heartbeat(name string) {
	if c, ok := w.components[name]; ok {
		c.lastHeartbeat.Store(w.clock.Now().UnixNano())
		c.healthy.Store(true)
	}
}

func (w *Watchdog) Start() {
	w.running.Store(true)
	w.schedule()
}

func (w *Watchdog) Stop() {
	w.running.Store(false)
}

func (w *Watchdog) schedule() {
	w.clock.AfterFunc(w.checkInterval, func() {
		if !w.running.Load() {
			return
		}
		w.checkAll()
		w.schedule()
	})
}

func (w *Watchdog) checkAll() {
	now := w.clock.Now().UnixNano()

	for name, c := range w.components {
		last := c.lastHeartbeat.Load()
		if last == 0 {
			continue
		}
		elapsed := time.Duration(now - last)
		if elapsed > c.threshold && c.healthy.Swap(false) {
			logging.Error("[WATCHDOG] %s unhealthy (no heartbeat for %v)", name, elapsed)
		}
	}
}

func (w *Watchdog) IsHealthy(name string) bool {
	if c, ok := w.components[name]; ok {
		return c.healthy.Load()
	}
	return false
}

func (w *Watchdog) Status() map[string]bool {
	status := make(map[string]bool, len(w.components))
	for name, c := range w.components {
		status[name] = c.healthy.Load()
	}
	return status
}
