package tracker

import (
	"time"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/state"
)

// ActorHistory is the sliding window of one actor's recent privileged
// actions in one guild, plus the derived threat score.
type ActorHistory struct {
	GuildID     string
	ActorID     string
	Events      []models.ActionEvent
	LastAction  time.Time
	ThreatScore int
}

// Counts tallies the window by action type.
func (h *ActorHistory) Counts() map[models.ActionType]int {
	counts := make(map[models.ActionType]int, len(h.Events))
	for _, evt := range h.Events {
		counts[evt.ActionType]++
	}
	return counts
}

// HistoryTracker maintains per-(guild, actor) action windows. Writes to the
// same key are serialized by the sharded map; distinct keys never contend.
type HistoryTracker struct {
	clock         sched.Clock
	window        time.Duration
	inactivityTTL time.Duration
	histories     *state.Map[*ActorHistory]
	stopSweep     func()
}

func NewHistoryTracker(clock sched.Clock, window, inactivityTTL time.Duration) *HistoryTracker {
	return &HistoryTracker{
		clock:         clock,
		window:        window,
		inactivityTTL: inactivityTTL,
		histories:     state.NewMap[*ActorHistory](),
	}
}

func historyKey(guildID, actorID string) string {
	return guildID + ":" + actorID
}

// Record appends the event to the actor's window, prunes expired entries,
// and recomputes the threat score. The returned history is a copy: safe to
// read without holding the tracker's locks.
func (ht *HistoryTracker) Record(event models.ActionEvent) ActorHistory {
	key := historyKey(event.GuildID, event.ActorID)
	cutoff := ht.clock.Now().Add(-ht.window)

	var snapshot ActorHistory
	ht.histories.Update(key, func(current *ActorHistory, ok bool) *ActorHistory {
		if !ok {
			current = &ActorHistory{
				GuildID: event.GuildID,
				ActorID: event.ActorID,
			}
		}

		kept := current.Events[:0]
		for _, e := range current.Events {
			if e.Timestamp.After(cutoff) {
				kept = append(kept, e)
			}
		}
		current.Events = append(kept, event)
		current.LastAction = event.Timestamp
		current.ThreatScore = scoreWindow(current.Events)

		snapshot = *current
		snapshot.Events = append([]models.ActionEvent(nil), current.Events...)
		return current
	})

	return snapshot
}

// Forget drops an actor's history, used when an actor is unbanned or the
// guild is re-initialized so a returning actor is scored from scratch.
func (ht *HistoryTracker) Forget(guildID, actorID string) {
	ht.histories.Delete(historyKey(guildID, actorID))
}

func (ht *HistoryTracker) Len() int {
	return ht.histories.Len()
}

// StartSweep schedules the periodic garbage collection of inactive actor
// histories, bounding memory independent of guild and actor churn.
func (ht *HistoryTracker) StartSweep(interval time.Duration) {
	var schedule func()
	stopped := false
	schedule = func() {
		ht.sweep()
		if !stopped {
			ht.clock.AfterFunc(interval, schedule)
		}
	}
	ht.clock.AfterFunc(interval, schedule)
	ht.stopSweep = func() { stopped = true }
}

func (ht *HistoryTracker) StopSweep() {
	if ht.stopSweep != nil {
		ht.stopSweep()
	}
}

func (ht *HistoryTracker) sweep() {
	stale := ht.clock.Now().Add(-ht.inactivityTTL)
	removed := ht.histories.DeleteIf(func(_ string, h *ActorHistory) bool {
		return h.LastAction.Before(stale)
	})
	if removed > 0 {
		logging.Debug("[TRACKER] swept %d inactive actor histories", removed)
	}
}

const maxThreatScore = 100

func scoreWindow(events []models.ActionEvent) int {
	score := 0
	for _, evt := range events {
		score += evt.ActionType.Weight()
	}
	if score > maxThreatScore {
		score = maxThreatScore
	}
	return score
}
