package recovery

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/platform"
)

// StructuralRestorer recreates channels and roles present in a snapshot but
// missing from the live guild, and reapplies the default role's permissions.
// Matching is by name: the platform reissues IDs for recreated entities, so
// the original IDs cannot be reused.
type StructuralRestorer struct {
	adapter platform.Adapter
}

func NewStructuralRestorer(adapter platform.Adapter) *StructuralRestorer {
	return &StructuralRestorer{adapter: adapter}
}

func (r *StructuralRestorer) Restore(guildID string, snap *database.SnapshotRow) (int, error) {
	var payload SnapshotPayload
	if err := json.Unmarshal(snap.Payload, &payload); err != nil {
		return 0, fmt.Errorf("corrupt snapshot payload %s: %w", snap.ID, err)
	}

	restored := 0
	restored += r.restoreChannels(guildID, payload.Channels)
	restored += r.restoreRoles(guildID, payload.Roles)

	if payload.DefaultRolePermissions != 0 {
		if err := r.adapter.EditDefaultRolePermissions(guildID, payload.DefaultRolePermissions); err != nil {
			logging.Warn("[RESTORE] default role permissions not reapplied on %s: %v", guildID, err)
		} else {
			restored++
		}
	}

	return restored, nil
}

func (r *StructuralRestorer) restoreChannels(guildID string, wanted []ChannelSnapshot) int {
	live, err := r.adapter.GuildChannels(guildID)
	if err != nil {
		logging.Error("[RESTORE] channel list failed for guild %s: %v", guildID, err)
		return 0
	}

	existing := make(map[string]struct{}, len(live))
	for _, c := range live {
		existing[c.Name] = struct{}{}
	}

	restored := 0
	for _, c := range wanted {
		if _, ok := existing[c.Name]; ok {
			continue
		}
		if _, err := r.adapter.CreateChannel(guildID, c.Name, c.Type, c.Position); err != nil {
			logging.Warn("[RESTORE] channel %q not recreated: %v", c.Name, err)
			continue
		}
		restored++
	}
	return restored
}

func (r *StructuralRestorer) restoreRoles(guildID string, wanted []RoleSnapshot) int {
	live, err := r.adapter.GuildRoles(guildID)
	if err != nil {
		logging.Error("[RESTORE] role list failed for guild %s: %v", guildID, err)
		return 0
	}

	existing := make(map[string]struct{}, len(live))
	for _, role := range live {
		existing[role.Name] = struct{}{}
	}

	restored := 0
	for _, role := range wanted {
		if _, ok := existing[role.Name]; ok {
			continue
		}
		if _, err := r.adapter.CreateRole(guildID, role.Name, role.Permissions, role.Color, role.Position); err != nil {
			logging.Warn("[RESTORE] role %q not recreated: %v", role.Name, err)
			continue
		}
		restored++
	}
	return restored
}
