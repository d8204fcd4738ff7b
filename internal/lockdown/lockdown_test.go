package lockdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/sched"
)

func setup(clock *sched.FakeClock) (*Controller, *platform.FakeAdapter) {
	adapter := platform.NewFakeAdapter()
	adapter.Channels["g1"] = []platform.Channel{
		{ID: "old-chan", GuildID: "g1", CreatedAt: clock.Now().Add(-time.Hour)},
		{ID: "fresh-chan", GuildID: "g1", CreatedAt: clock.Now().Add(-10 * time.Second)},
	}
	adapter.Roles["g1"] = []platform.Role{
		{ID: "g1", Name: "@everyone", Permissions: defaultRoleStripMask | 0x400},
	}
	return NewController(adapter, clock, 5*time.Minute), adapter
}

func TestLockdownDeletesFreshChannelsOnly(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(100000, 0))
	ctrl, adapter := setup(clock)

	assert.True(t, ctrl.Lockdown("g1", models.ThreatChannelDeletion, nil))

	deletes := adapter.CallsFor("delete_channel")
	assert.Equal(t, []string{"delete_channel:fresh-chan"}, deletes)
}

func TestLockdownDeniesSendOnAllChannels(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(100000, 0))
	ctrl, adapter := setup(clock)

	ctrl.Lockdown("g1", models.ThreatMassBan, nil)

	overwrites := adapter.CallsFor("edit_channel_overwrite")
	assert.Len(t, overwrites, 2)
	assert.True(t, ctrl.IsLocked("g1"))
}

func TestLockdownStripsDefaultRole(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(100000, 0))
	ctrl, adapter := setup(clock)

	ctrl.Lockdown("g1", models.ThreatMassBan, nil)
	assert.Len(t, adapter.CallsFor("edit_default_role"), 1)
}

func TestLockdownIdempotent(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(100000, 0))
	ctrl, adapter := setup(clock)

	assert.True(t, ctrl.Lockdown("g1", models.ThreatMassBan, nil))
	callsAfterFirst := len(adapter.Calls)

	// Second call while locked: no additional deletions or edits.
	assert.False(t, ctrl.Lockdown("g1", models.ThreatMassBan, nil))
	assert.Equal(t, callsAfterFirst, len(adapter.Calls))
}

func TestLockdownAutoReleasesAfterDuration(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(100000, 0))
	ctrl, _ := setup(clock)

	ctrl.Lockdown("g1", models.ThreatMassBan, nil)
	assert.True(t, ctrl.IsLocked("g1"))

	clock.Advance(5 * time.Minute)
	assert.False(t, ctrl.IsLocked("g1"))
}

func TestReleaseTimerNotExtendedByRepeatAttack(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(100000, 0))
	ctrl, _ := setup(clock)

	ctrl.Lockdown("g1", models.ThreatMassBan, nil)
	clock.Advance(4 * time.Minute)

	// Fresh attack during lockdown does not restart the timer.
	ctrl.Lockdown("g1", models.ThreatChannelDeletion, nil)
	clock.Advance(time.Minute)
	assert.False(t, ctrl.IsLocked("g1"))
}

func TestRelockAfterRelease(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(100000, 0))
	ctrl, _ := setup(clock)

	ctrl.Lockdown("g1", models.ThreatMassBan, nil)
	clock.Advance(5 * time.Minute)
	assert.False(t, ctrl.IsLocked("g1"))

	assert.True(t, ctrl.Lockdown("g1", models.ThreatMassBan, nil))
	assert.True(t, ctrl.IsLocked("g1"))
}
