package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/tracker"
)

func historyOf(types ...models.ActionType) tracker.ActorHistory {
	now := time.Unix(1000, 0)
	h := tracker.ActorHistory{GuildID: "g1", ActorID: "a1"}
	score := 0
	for _, t := range types {
		h.Events = append(h.Events, models.ActionEvent{
			GuildID:    "g1",
			ActorID:    "a1",
			ActionType: t,
			Timestamp:  now,
		})
		score += t.Weight()
	}
	if score > 100 {
		score = 100
	}
	h.ThreatScore = score
	return h
}

func TestSingleChannelDeleteIsThreat(t *testing.T) {
	result := Classify(historyOf(models.ActionChannelDelete))
	assert.True(t, result.Detected)
	assert.Equal(t, models.ThreatChannelDeletion, result.Type)
}

func TestSingleRoleDeleteIsThreat(t *testing.T) {
	result := Classify(historyOf(models.ActionRoleDelete))
	assert.True(t, result.Detected)
	assert.Equal(t, models.ThreatRoleDeletion, result.Type)
}

func TestNoFalsePositiveBelowCombinedThreshold(t *testing.T) {
	// Any mix of up to three low-weight actions stays below every per-type
	// threshold and the combined sum.
	cases := [][]models.ActionType{
		{models.ActionChannelCreate},
		{models.ActionRoleCreate, models.ActionMemberKick},
		{models.ActionChannelCreate, models.ActionRoleCreate, models.ActionWebhookCreate},
		{models.ActionMemberKick, models.ActionWebhookCreate, models.ActionEmojiDelete},
	}
	for _, c := range cases {
		result := Classify(historyOf(c...))
		assert.False(t, result.Detected, "types %v should not classify", c)
	}
}

func TestCombinedAttack(t *testing.T) {
	// 1 channel-create, 1 role-create, 1 kick, 1 webhook-create: no single
	// threshold met, sum is 4.
	result := Classify(historyOf(
		models.ActionChannelCreate,
		models.ActionRoleCreate,
		models.ActionMemberKick,
		models.ActionWebhookCreate,
	))
	assert.True(t, result.Detected)
	assert.Equal(t, models.ThreatCombined, result.Type)
}

func TestTwoChannelDeletesClassifyAsChannelDeletion(t *testing.T) {
	result := Classify(historyOf(models.ActionChannelDelete, models.ActionChannelDelete))
	assert.True(t, result.Detected)
	assert.Equal(t, models.ThreatChannelDeletion, result.Type)
	assert.Equal(t, 2, result.Counts[models.ActionChannelDelete])
}

func TestPriorityOrderFirstMatchWins(t *testing.T) {
	// Both channel-delete and ban thresholds are met; channel-delete has
	// higher priority.
	result := Classify(historyOf(
		models.ActionBanAdd, models.ActionBanAdd, models.ActionChannelDelete,
	))
	assert.True(t, result.Detected)
	assert.Equal(t, models.ThreatChannelDeletion, result.Type)
}

func TestMassBan(t *testing.T) {
	result := Classify(historyOf(models.ActionBanAdd, models.ActionBanAdd))
	assert.True(t, result.Detected)
	assert.Equal(t, models.ThreatMassBan, result.Type)
}

func TestEmptyHistory(t *testing.T) {
	result := Classify(tracker.ActorHistory{})
	assert.False(t, result.Detected)
	assert.Equal(t, models.ThreatNone, result.Type)
}
