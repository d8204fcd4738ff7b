package decision

import (
	"time"

	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/state"
)

// DedupCache prevents the mitigation sequence from running twice for the
// same (guild, actor, threatType) burst. Entries live for a fixed TTL;
// expiry timers are not cancellable once started.
type DedupCache struct {
	clock   sched.Clock
	ttl     time.Duration
	entries *state.Map[time.Time]
}

func NewDedupCache(clock sched.Clock, ttl time.Duration) *DedupCache {
	return &DedupCache{
		clock:   clock,
		ttl:     ttl,
		entries: state.NewMap[time.Time](),
	}
}

func dedupKey(guildID, actorID string, threatType models.ThreatType) string {
	return guildID + ":" + actorID + ":" + string(threatType)
}

// TryAcquire inserts a dedup entry and returns true, or returns false if a
// live entry already covers the triple.
func (dc *DedupCache) TryAcquire(guildID, actorID string, threatType models.ThreatType) bool {
	key := dedupKey(guildID, actorID, threatType)
	now := dc.clock.Now()

	acquired := false
	expiry := dc.entries.Update(key, func(expires time.Time, exists bool) time.Time {
		if exists && now.Before(expires) {
			return expires
		}
		acquired = true
		return now.Add(dc.ttl)
	})

	if acquired {
		dc.clock.AfterFunc(dc.ttl, func() { dc.expire(key, expiry) })
	}
	return acquired
}

func (dc *DedupCache) expire(key string, expiry time.Time) {
	if current, ok := dc.entries.Get(key); ok && current.Equal(expiry) {
		dc.entries.Delete(key)
	}
}

func (dc *DedupCache) Len() int {
	return dc.entries.Len()
}
