package decision

import (
	"github.com/bwmarrin/discordgo"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/platform"
)

// deprivilege strips the attacker's capability to keep acting: their roles
// are removed from them, and any of those roles carrying administrator gets
// the bit cleared so a re-grant does not restore it. Every edit is
// independently best-effort; a denied edit is recorded for the alert.
func (e *Engine) deprivilege(guildID, actorID string, attackerRoles []string, missing *[]string) {
	reason := "Threat mitigation: removing attacker privileges"

	err := platform.ClassifyError("remove_all_roles",
		e.adapter.RemoveAllRoles(guildID, actorID, reason))
	if err != nil {
		if platform.IsPermission(err) {
			*missing = append(*missing, "remove_all_roles")
		}
		logging.Warn("[RESPONSE] role strip of %s in guild %s failed: %v", actorID, guildID, err)
	}

	roles, rolesErr := e.adapter.GuildRoles(guildID)
	if rolesErr != nil {
		logging.Warn("[RESPONSE] role list failed for guild %s: %v", guildID, rolesErr)
		return
	}

	held := make(map[string]struct{}, len(attackerRoles))
	for _, id := range attackerRoles {
		held[id] = struct{}{}
	}

	for _, role := range roles {
		if _, ok := held[role.ID]; !ok {
			continue
		}
		if role.Permissions&int64(discordgo.PermissionAdministrator) == 0 {
			continue
		}
		stripped := role.Permissions &^ int64(discordgo.PermissionAdministrator)
		err := e.adapter.EditRolePermissions(guildID, role.ID, stripped)
		if err != nil {
			logging.Warn("[RESPONSE] admin strip on role %s failed: %v", role.ID, err)
		}
	}
}

// correctHierarchy raises the bot's top role to one position above the
// attacker's highest role when the bot does not already outrank them.
// Removal actions downstream are hierarchy-gated; if elevation fails the
// sequence proceeds and the removal failure surfaces in the alert instead.
func (e *Engine) correctHierarchy(guildID, actorID string, attackerRoles []string) {
	roles, err := e.adapter.GuildRoles(guildID)
	if err != nil {
		logging.Warn("[RESPONSE] role list failed for guild %s: %v", guildID, err)
		return
	}

	botRoles, err := e.adapter.MemberRoles(guildID, e.adapter.BotUserID())
	if err != nil {
		logging.Warn("[RESPONSE] bot role lookup failed for guild %s: %v", guildID, err)
		return
	}

	positions := make(map[string]int, len(roles))
	ceiling := 0
	for _, role := range roles {
		positions[role.ID] = role.Position
		if role.Position > ceiling {
			ceiling = role.Position
		}
	}

	attackerTop := 0
	for _, id := range attackerRoles {
		if p := positions[id]; p > attackerTop {
			attackerTop = p
		}
	}

	botTop, botTopRole := 0, ""
	for _, id := range botRoles {
		if p := positions[id]; p >= botTop {
			botTop = p
			botTopRole = id
		}
	}

	if botTopRole == "" || botTop > attackerTop {
		return
	}

	target := attackerTop + 1
	if target > ceiling {
		target = ceiling
	}
	if err := e.adapter.SetRolePosition(guildID, botTopRole, target); err != nil {
		logging.Warn("[RESPONSE] role elevation in guild %s failed: %v", guildID, err)
	}
}
