package recovery

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
)

type fakeStore struct {
	threatTime    time.Time
	threatTimeErr error

	snap        *database.SnapshotRow
	snapErr     error
	askedBefore time.Time
	askedType   string
}

func (f *fakeStore) LatestThreatTime(string, models.ThreatType) (time.Time, error) {
	return f.threatTime, f.threatTimeErr
}

func (f *fakeStore) FindSnapshot(_ string, before time.Time, preferType string) (*database.SnapshotRow, error) {
	f.askedBefore = before
	f.askedType = preferType
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return f.snap, nil
}

type fakeRestorer struct {
	restored int
	err      error
	calls    int
}

func (f *fakeRestorer) Restore(string, *database.SnapshotRow) (int, error) {
	f.calls++
	return f.restored, f.err
}

func TestRecoverAppliesSafetyMargin(t *testing.T) {
	attackStart := time.Unix(5000, 0)
	store := &fakeStore{
		threatTime: attackStart,
		snap:       &database.SnapshotRow{ID: "snap-1"},
	}
	restorer := &fakeRestorer{restored: 7}

	sel := NewSelector(store, restorer, 5*time.Second, time.Now)
	result, err := sel.Recover("g1", models.ThreatChannelDeletion)

	assert.NoError(t, err)
	assert.Equal(t, "snap-1", result.SnapshotID)
	assert.Equal(t, 7, result.RestoredCount)
	// Never select a snapshot with createdAt >= attackStart - 5s.
	assert.Equal(t, attackStart.Add(-5*time.Second), store.askedBefore)
	assert.Equal(t, SnapshotTypeFull, store.askedType)
}

func TestRecoverFallsBackToWindowApproximation(t *testing.T) {
	now := time.Unix(9000, 0)
	store := &fakeStore{
		threatTimeErr: database.ErrNotFound,
		snap:          &database.SnapshotRow{ID: "snap-2"},
	}

	sel := NewSelector(store, &fakeRestorer{}, 5*time.Second, func() time.Time { return now })
	_, err := sel.Recover("g1", models.ThreatMassBan)

	assert.NoError(t, err)
	// attackStart = now - window, cutoff = attackStart - margin.
	assert.Equal(t, now.Add(-10*time.Second), store.askedBefore)
}

func TestRecoverStopsWhenNoSnapshot(t *testing.T) {
	store := &fakeStore{
		threatTime: time.Unix(5000, 0),
		snapErr:    database.ErrNotFound,
	}
	restorer := &fakeRestorer{}

	sel := NewSelector(store, restorer, 5*time.Second, time.Now)
	result, err := sel.Recover("g1", models.ThreatMassBan)

	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, restorer.calls)
}

func TestStructuralRestorerRecreatesMissing(t *testing.T) {
	adapter := platform.NewFakeAdapter()
	adapter.Channels["g1"] = []platform.Channel{{ID: "c1", Name: "general"}}
	adapter.Roles["g1"] = []platform.Role{{ID: "r1", Name: "mod"}}

	payload := SnapshotPayload{
		GuildID: "g1",
		Channels: []ChannelSnapshot{
			{ID: "c1", Name: "general"},
			{ID: "c2", Name: "announcements"},
		},
		Roles: []RoleSnapshot{
			{ID: "r1", Name: "mod"},
			{ID: "r2", Name: "helper"},
		},
		DefaultRolePermissions: 0x400,
	}
	data, _ := json.Marshal(payload)

	restorer := NewStructuralRestorer(adapter)
	restored, err := restorer.Restore("g1", &database.SnapshotRow{ID: "s1", Payload: data})

	assert.NoError(t, err)
	// One channel, one role, plus default role permissions.
	assert.Equal(t, 3, restored)
	assert.Equal(t, []string{"create_channel:g1:announcements"}, adapter.CallsFor("create_channel"))
	assert.Equal(t, []string{"create_role:g1:helper"}, adapter.CallsFor("create_role"))
}
