package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paprika2227/guildguard/internal/models"
)

func TestEmbedStatesAttackerNotRemoved(t *testing.T) {
	payload := models.NewAlert("g1", "attacker", models.ThreatMassBan)
	payload.ActionTaken = false
	payload.MissingPerms = []string{"ban", "kick", "timeout"}

	embed := buildEmbed(payload)

	assert.Contains(t, embed.Description, "Attacker NOT removed")
	var permsField string
	for _, f := range embed.Fields {
		if f.Name == "🚫 Missing Permissions" {
			permsField = f.Value
		}
	}
	require.NotEmpty(t, permsField)
	assert.Contains(t, permsField, "ban")
}

func TestEmbedReportsRecovery(t *testing.T) {
	payload := models.NewAlert("g1", "attacker", models.ThreatChannelDeletion)
	payload.ActionTaken = true
	payload.RemovalMethod = "ban"
	payload.SnapshotUsed = "snap-9"
	payload.RestoredCount = 12

	embed := buildEmbed(payload)

	assert.Equal(t, colorRecovered, embed.Color)
	found := false
	for _, f := range embed.Fields {
		if f.Name == "♻️ Recovery" {
			found = true
			assert.Contains(t, f.Value, "12")
			assert.Contains(t, f.Value, "snap-9")
		}
	}
	assert.True(t, found)
}

func TestAdvisoryEmbedTakesNoCredit(t *testing.T) {
	payload := models.NewAlert("g1", "scout", models.ThreatAuditPattern)
	payload.Confidence = 70

	embed := buildEmbed(payload)

	assert.Equal(t, colorAdvisory, embed.Color)
	assert.Contains(t, embed.Description, "No automated action")
}

func TestThreatTitleFormatting(t *testing.T) {
	assert.Equal(t, "Mass Channel Deletion", threatTitle(models.ThreatChannelDeletion))
	assert.Equal(t, "Combined Attack", threatTitle(models.ThreatCombined))
}
