package recovery

import (
	"time"

	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/models"
)

// safetyMargin keeps recovery from selecting a snapshot captured while the
// attack may already have been underway.
const safetyMargin = 5 * time.Second

// Store is the slice of the persistence layer the selector needs.
type Store interface {
	LatestThreatTime(guildID string, threatType models.ThreatType) (time.Time, error)
	FindSnapshot(guildID string, before time.Time, preferType string) (*database.SnapshotRow, error)
}

// Restorer applies a snapshot back onto the platform.
type Restorer interface {
	Restore(guildID string, snap *database.SnapshotRow) (restored int, err error)
}

// Result reports which snapshot was used and how much of it was restored.
type Result struct {
	SnapshotID    string
	RestoredCount int
}

// Selector chooses the newest pre-attack snapshot and invokes restoration.
type Selector struct {
	store    Store
	restorer Restorer
	window   time.Duration
	now      func() time.Time
}

func NewSelector(store Store, restorer Restorer, window time.Duration, now func() time.Time) *Selector {
	return &Selector{store: store, restorer: restorer, window: window, now: now}
}

// Recover restores the guild from the newest full snapshot predating the
// attack by at least the safety margin. When no threat record pins the
// attack start, it is approximated as now minus the detection window. A nil
// result with nil error means no usable snapshot existed; no partial or
// best-guess recovery is attempted.
func (s *Selector) Recover(guildID string, threatType models.ThreatType) (*Result, error) {
	attackStart := s.attackStart(guildID, threatType)
	cutoff := attackStart.Add(-safetyMargin)

	snap, err := s.store.FindSnapshot(guildID, cutoff, SnapshotTypeFull)
	if err != nil {
		if err == database.ErrNotFound {
			logging.Warn("[RECOVERY] no snapshot predates attack on guild %s, skipping", guildID)
			return nil, nil
		}
		return nil, err
	}

	restored, err := s.restorer.Restore(guildID, snap)
	if err != nil {
		return nil, err
	}

	logging.Info("[RECOVERY] guild %s restored %d items from snapshot %s", guildID, restored, snap.ID)
	return &Result{SnapshotID: snap.ID, RestoredCount: restored}, nil
}

func (s *Selector) attackStart(guildID string, threatType models.ThreatType) time.Time {
	at, err := s.store.LatestThreatTime(guildID, threatType)
	if err == nil {
		return at
	}
	// No record yet: approximate the burst as starting one window ago.
	return s.now().Add(-s.window)
}
