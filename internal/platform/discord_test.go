package platform

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestAuditEntryFromREST(t *testing.T) {
	action := discordgo.AuditLogActionChannelDelete
	entry := auditEntryFromREST(&discordgo.AuditLogEntry{
		ID:         "1148933471739876352",
		ActionType: &action,
		UserID:     "actor",
		TargetID:   "target",
		Reason:     "cleanup",
	})

	assert.Equal(t, int(discordgo.AuditLogActionChannelDelete), entry.ActionType)
	assert.Equal(t, "actor", entry.ActorID)
	assert.Equal(t, "target", entry.TargetID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAuditEntryFromRESTNilActionType(t *testing.T) {
	entry := auditEntryFromREST(&discordgo.AuditLogEntry{
		ID:     "1148933471739876352",
		UserID: "actor",
	})

	assert.Equal(t, 0, entry.ActionType, "missing action type maps to the no-op action")
	assert.Equal(t, "actor", entry.ActorID)
}
