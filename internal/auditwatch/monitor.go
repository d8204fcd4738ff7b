package auditwatch

import (
	"sort"
	"time"

	"github.com/paprika2227/guildguard/internal/detectors"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/state"
	"github.com/paprika2227/guildguard/pkg/util"
)

// Detectors only see entries from this far back.
const lookback = 60 * time.Second

// Responder is the slice of the response engine the monitor feeds.
type Responder interface {
	HandlePatternFinding(finding models.PatternFinding)
}

type guildMonitor struct {
	stopped    bool
	lastSeenID uint64
}

// Monitor polls each watched guild's audit trail on an independent timer
// and runs the preparation-pattern detectors over the fresh entries.
// Slower and broader than the burst classifier: it looks for attack setup,
// not just completed damage.
type Monitor struct {
	adapter   platform.Adapter
	clock     sched.Clock
	responder Responder
	interval  time.Duration
	guilds    *state.Map[*guildMonitor]
}

func NewMonitor(adapter platform.Adapter, clock sched.Clock, responder Responder, interval time.Duration) *Monitor {
	return &Monitor{
		adapter:   adapter,
		clock:     clock,
		responder: responder,
		interval:  interval,
		guilds:    state.NewMap[*guildMonitor](),
	}
}

// Watch begins polling a guild. Watching an already watched guild is a
// no-op; watching a previously stopped guild starts a fresh poll cycle.
func (m *Monitor) Watch(guildID string) {
	fresh := false
	m.guilds.Update(guildID, func(gm *guildMonitor, ok bool) *guildMonitor {
		if !ok || gm == nil {
			fresh = true
			return &guildMonitor{}
		}
		if gm.stopped {
			gm.stopped = false
			fresh = true
		}
		return gm
	})
	if !fresh {
		return
	}
	logging.Info("[AUDIT] watching guild %s", guildID)
	m.schedule(guildID)
}

// Unwatch stops polling permanently. The in-flight timer fires once more
// and exits on the stopped flag.
func (m *Monitor) Unwatch(guildID string) {
	m.guilds.Update(guildID, func(gm *guildMonitor, ok bool) *guildMonitor {
		if !ok || gm == nil {
			gm = &guildMonitor{}
		}
		gm.stopped = true
		return gm
	})
}

func (m *Monitor) Watching(guildID string) bool {
	gm, ok := m.guilds.Get(guildID)
	return ok && gm != nil && !gm.stopped
}

func (m *Monitor) schedule(guildID string) {
	m.clock.AfterFunc(m.interval, func() { m.poll(guildID) })
}

func (m *Monitor) poll(guildID string) {
	gm, ok := m.guilds.Get(guildID)
	if !ok || gm == nil || gm.stopped {
		return
	}

	entries, err := fetchWithRetry(m.adapter, m.clock, guildID)
	if err != nil {
		if platform.IsPermission(err) {
			logging.Warn("[AUDIT] no audit access for guild %s, monitoring stopped", guildID)
		} else {
			logging.Error("[AUDIT] fetch for guild %s exhausted retries, monitoring stopped: %v",
				guildID, err)
		}
		m.Unwatch(guildID)
		return
	}

	fresh := m.normalize(guildID, entries)
	if len(fresh) > 0 {
		for _, finding := range detectors.Run(guildID, fresh) {
			m.responder.HandlePatternFinding(finding)
		}
	}

	m.schedule(guildID)
}

// normalize filters the raw fetch down to unseen entries inside the
// lookback window, sorted oldest first, and advances the per-guild
// high-water mark.
func (m *Monitor) normalize(guildID string, entries []platform.AuditEntry) []platform.AuditEntry {
	cutoff := m.clock.Now().Add(-lookback)

	var maxID uint64
	fresh := make([]platform.AuditEntry, 0, len(entries))

	m.guilds.Update(guildID, func(gm *guildMonitor, ok bool) *guildMonitor {
		if !ok || gm == nil {
			gm = &guildMonitor{}
		}
		for _, e := range entries {
			if e.CreatedAt.Before(cutoff) {
				continue
			}
			id, err := util.StringToUint64(e.ID)
			if err == nil && id <= gm.lastSeenID {
				continue
			}
			fresh = append(fresh, e)
			if id > maxID {
				maxID = id
			}
		}
		if maxID > gm.lastSeenID {
			gm.lastSeenID = maxID
		}
		return gm
	})

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.Before(fresh[j].CreatedAt)
	})
	return fresh
}
