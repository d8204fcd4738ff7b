package guard

import (
	"time"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/metrics"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/state"
)

const (
	// A tracked channel accumulating this many messages before its first
	// check is treated as a flood channel and deleted.
	floodThreshold = 10

	firstCheckDelay = 30 * time.Second
	finalCheckDelay = 60 * time.Second
)

// ChannelRecord tracks one recently created channel's message velocity.
// Purely in-memory; records never survive the process.
type ChannelRecord struct {
	GuildID      string
	CreatorID    string
	CreatedAt    time.Time
	MessageCount int
}

// FloodFunc is invoked after the guard deletes a flood channel, so the
// response path can score the creator.
type FloodFunc func(guildID, creatorID, channelID string, messageCount int)

// Guard watches newly created channels and deletes the ones used purely to
// flood content. Channels that stay quiet through the final check are
// forgotten. Independent of the burst classifier; feeds it via onFlood.
type Guard struct {
	adapter  platform.Adapter
	clock    sched.Clock
	records  *state.Map[*ChannelRecord]
	onFlood  FloodFunc
	counters *metrics.Registry
}

func NewGuard(adapter platform.Adapter, clock sched.Clock, counters *metrics.Registry, onFlood FloodFunc) *Guard {
	return &Guard{
		adapter:  adapter,
		clock:    clock,
		records:  state.NewMap[*ChannelRecord](),
		onFlood:  onFlood,
		counters: counters,
	}
}

// TrackChannel starts watching a just-created channel. Checks fire at 30s
// and 60s; the 60s check always resolves the record one way or the other.
func (g *Guard) TrackChannel(guildID, channelID, creatorID string) {
	g.records.Set(channelID, &ChannelRecord{
		GuildID:   guildID,
		CreatorID: creatorID,
		CreatedAt: g.clock.Now(),
	})

	g.clock.AfterFunc(firstCheckDelay, func() { g.check(channelID, false) })
	g.clock.AfterFunc(finalCheckDelay, func() { g.check(channelID, true) })
}

// RecordMessage bumps the velocity counter for a tracked channel. Messages
// in untracked channels are ignored.
func (g *Guard) RecordMessage(channelID string) {
	if _, ok := g.records.Get(channelID); !ok {
		return
	}
	g.records.Update(channelID, func(rec *ChannelRecord, ok bool) *ChannelRecord {
		if ok && rec != nil {
			rec.MessageCount++
		}
		return rec
	})
}

// Forget drops a record without judgment, for channels deleted by someone
// else before the checks fire.
func (g *Guard) Forget(channelID string) {
	g.records.Delete(channelID)
}

func (g *Guard) Tracked() int {
	return g.records.Len()
}

func (g *Guard) check(channelID string, final bool) {
	rec, ok := g.records.Get(channelID)
	if !ok || rec == nil {
		return
	}

	if rec.MessageCount >= floodThreshold {
		g.kill(channelID, rec)
		return
	}

	if final {
		// Survived a minute at low velocity: confirmed clean.
		g.records.Delete(channelID)
	}
}

func (g *Guard) kill(channelID string, rec *ChannelRecord) {
	g.records.Delete(channelID)

	logging.Warn("[GUARD] flood channel %s in guild %s (%d messages), deleting",
		channelID, rec.GuildID, rec.MessageCount)

	err := g.adapter.DeleteChannel(channelID, "Spam flood channel removed")
	if err != nil && !platform.IsNotFound(err) {
		logging.Error("[GUARD] delete of flood channel %s failed: %v", channelID, err)
	}
	g.counters.SpamChannelsKilled.Add(1)

	if g.onFlood != nil {
		g.onFlood(rec.GuildID, rec.CreatorID, channelID, rec.MessageCount)
	}
}
