package detectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
)

var base = time.Unix(1700000000, 0)

func entry(actorID string, actionType int, offset time.Duration) platform.AuditEntry {
	return platform.AuditEntry{
		ActorID:    actorID,
		ActionType: actionType,
		CreatedAt:  base.Add(offset),
	}
}

func TestPermissionTestingRequiresThreeEditsInWindow(t *testing.T) {
	entries := []platform.AuditEntry{
		entry("probe", platform.AuditChannelOverwriteUpdate, 0),
		entry("probe", platform.AuditRoleUpdate, 5*time.Second),
		entry("probe", platform.AuditMemberRoleUpdate, 12*time.Second),
	}

	findings := PermissionTesting("g1", entries)
	require.Len(t, findings, 1)
	assert.Equal(t, models.PatternPermissionTesting, findings[0].Kind)
	assert.Equal(t, "probe", findings[0].ActorID)
	assert.GreaterOrEqual(t, findings[0].Confidence, 60)
}

func TestPermissionTestingIgnoresSpreadOutEdits(t *testing.T) {
	entries := []platform.AuditEntry{
		entry("probe", platform.AuditRoleUpdate, 0),
		entry("probe", platform.AuditRoleUpdate, 40*time.Second),
		entry("probe", platform.AuditRoleUpdate, 80*time.Second),
	}
	assert.Empty(t, PermissionTesting("g1", entries))
}

func TestCoordinatedAttackNeedsTwoActors(t *testing.T) {
	solo := []platform.AuditEntry{
		entry("a", platform.AuditMemberBanAdd, 0),
		entry("a", platform.AuditMemberBanAdd, 5*time.Second),
		entry("a", platform.AuditChannelDelete, 10*time.Second),
	}
	assert.Empty(t, CoordinatedAttack("g1", solo))

	pair := []platform.AuditEntry{
		entry("a", platform.AuditMemberBanAdd, 0),
		entry("b", platform.AuditChannelDelete, 5*time.Second),
		entry("a", platform.AuditRoleDelete, 10*time.Second),
		entry("b", platform.AuditMemberKick, 15*time.Second),
	}
	findings := CoordinatedAttack("g1", pair)
	require.Len(t, findings, 1)
	assert.Equal(t, models.PatternCoordinatedAttack, findings[0].Kind)
	assert.GreaterOrEqual(t, findings[0].Confidence, 80)
}

func TestRapidEscalationOrderedStages(t *testing.T) {
	entries := []platform.AuditEntry{
		entry("esc", platform.AuditRoleUpdate, 0),
		entry("esc", platform.AuditMemberKick, 30*time.Second),
		entry("esc", platform.AuditChannelDelete, 70*time.Second),
	}
	findings := RapidEscalation("g1", entries)
	require.Len(t, findings, 1)
	assert.Equal(t, 85, findings[0].Confidence)
}

func TestRapidEscalationOutOfOrderIgnored(t *testing.T) {
	// Major action first: not an escalation shape.
	entries := []platform.AuditEntry{
		entry("esc", platform.AuditChannelDelete, 0),
		entry("esc", platform.AuditRoleUpdate, 10*time.Second),
		entry("esc", platform.AuditMemberKick, 20*time.Second),
	}
	assert.Empty(t, RapidEscalation("g1", entries))
}

func TestRapidEscalationWindowExpires(t *testing.T) {
	entries := []platform.AuditEntry{
		entry("esc", platform.AuditRoleUpdate, 0),
		entry("esc", platform.AuditMemberKick, 30*time.Second),
		entry("esc", platform.AuditChannelDelete, 150*time.Second),
	}
	assert.Empty(t, RapidEscalation("g1", entries))
}

func TestUnusualSequenceCreateThenDelete(t *testing.T) {
	entries := []platform.AuditEntry{
		entry("a", platform.AuditChannelCreate, 0),
		entry("a", platform.AuditChannelDelete, 3*time.Second),
	}
	findings := UnusualSequence("g1", entries)
	require.Len(t, findings, 1)
	assert.Equal(t, models.PatternUnusualSequence, findings[0].Kind)
}

func TestUnusualSequenceDifferentActorsIgnored(t *testing.T) {
	entries := []platform.AuditEntry{
		entry("a", platform.AuditChannelCreate, 0),
		entry("b", platform.AuditChannelDelete, 3*time.Second),
	}
	assert.Empty(t, UnusualSequence("g1", entries))
}

func TestCrossUserGrantsRepeatedOnSameTarget(t *testing.T) {
	grant := func(actor, target string, offset time.Duration) platform.AuditEntry {
		e := entry(actor, platform.AuditMemberRoleUpdate, offset)
		e.TargetID = target
		return e
	}

	entries := []platform.AuditEntry{
		grant("boss", "mule", 0),
		grant("boss", "mule", 20*time.Second),
		grant("boss", "other", 25*time.Second),
	}
	findings := CrossUserGrants("g1", entries)
	require.Len(t, findings, 1)
	assert.Equal(t, "boss", findings[0].ActorID)
	assert.Equal(t, 75, findings[0].Confidence)
}

func TestCrossUserGrantsSelfEditsIgnored(t *testing.T) {
	self := entry("boss", platform.AuditMemberRoleUpdate, 0)
	self.TargetID = "boss"
	assert.Empty(t, CrossUserGrants("g1", []platform.AuditEntry{self, self}))
}

func TestRunAggregatesAllDetectors(t *testing.T) {
	entries := []platform.AuditEntry{
		entry("a", platform.AuditChannelCreate, 0),
		entry("a", platform.AuditChannelDelete, 2*time.Second),
		entry("b", platform.AuditMemberBanAdd, 3*time.Second),
		entry("c", platform.AuditMemberBanAdd, 4*time.Second),
		entry("b", platform.AuditRoleDelete, 5*time.Second),
	}
	findings := Run("g1", entries)

	kinds := make(map[models.PatternKind]bool)
	for _, f := range findings {
		kinds[f.Kind] = true
	}
	assert.True(t, kinds[models.PatternUnusualSequence])
	assert.True(t, kinds[models.PatternCoordinatedAttack])
}
