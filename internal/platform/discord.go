package platform

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/paprika2227/guildguard/internal/dispatcher"
	"github.com/paprika2227/guildguard/pkg/util"
)

// DiscordAdapter implements Adapter over a discordgo session. The removal
// chain (ban/kick/timeout) goes through the fasthttp executor to stay off the
// SDK's serialized request queue; everything else uses the SDK.
type DiscordAdapter struct {
	session *discordgo.Session
	removal *dispatcher.RemovalExecutor
}

func NewDiscordAdapter(session *discordgo.Session, removal *dispatcher.RemovalExecutor) *DiscordAdapter {
	return &DiscordAdapter{session: session, removal: removal}
}

func (d *DiscordAdapter) BotUserID() string {
	if d.session.State != nil && d.session.State.User != nil {
		return d.session.State.User.ID
	}
	return ""
}

func (d *DiscordAdapter) GuildOwnerID(guildID string) (string, error) {
	if guild, err := d.session.State.Guild(guildID); err == nil && guild.OwnerID != "" {
		return guild.OwnerID, nil
	}

	guild, err := d.session.Guild(guildID)
	if err != nil {
		return "", ClassifyError("guild_fetch", err)
	}
	return guild.OwnerID, nil
}

func (d *DiscordAdapter) GuildRoles(guildID string) ([]Role, error) {
	roles, err := d.session.GuildRoles(guildID)
	if err != nil {
		return nil, ClassifyError("guild_roles", err)
	}

	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, Role{
			ID:          r.ID,
			Name:        r.Name,
			Position:    r.Position,
			Permissions: r.Permissions,
			Color:       r.Color,
			Managed:     r.Managed,
		})
	}
	return out, nil
}

func (d *DiscordAdapter) GuildChannels(guildID string) ([]Channel, error) {
	channels, err := d.session.GuildChannels(guildID)
	if err != nil {
		return nil, ClassifyError("guild_channels", err)
	}

	out := make([]Channel, 0, len(channels))
	for _, c := range channels {
		out = append(out, Channel{
			ID:        c.ID,
			GuildID:   c.GuildID,
			Name:      c.Name,
			Type:      int(c.Type),
			Position:  c.Position,
			CreatedAt: util.SnowflakeTime(c.ID),
		})
	}
	return out, nil
}

func (d *DiscordAdapter) MemberRoles(guildID, userID string) ([]string, error) {
	if member, err := d.session.State.Member(guildID, userID); err == nil {
		return member.Roles, nil
	}

	member, err := d.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, ClassifyError("member_fetch", err)
	}
	return member.Roles, nil
}

func (d *DiscordAdapter) FetchAuditLog(guildID string, limit int) ([]AuditEntry, error) {
	audit, err := d.session.GuildAuditLog(guildID, "", "", 0, limit)
	if err != nil {
		return nil, ClassifyError("audit_fetch", err)
	}

	entries := make([]AuditEntry, 0, len(audit.AuditLogEntries))
	for _, e := range audit.AuditLogEntries {
		entries = append(entries, auditEntryFromREST(e))
	}
	return entries, nil
}

// auditEntryFromREST normalizes a raw audit log entry. ActionType is a
// pointer in the REST payload and absent entries map to action 0, which no
// detector matches.
func auditEntryFromREST(e *discordgo.AuditLogEntry) AuditEntry {
	actionType := 0
	if e.ActionType != nil {
		actionType = int(*e.ActionType)
	}
	return AuditEntry{
		ID:         e.ID,
		ActionType: actionType,
		ActorID:    e.UserID,
		TargetID:   e.TargetID,
		Reason:     e.Reason,
		CreatedAt:  util.SnowflakeTime(e.ID),
	}
}

func (d *DiscordAdapter) Ban(guildID, userID, reason string) error {
	return d.removal.Ban(guildID, userID, reason)
}

func (d *DiscordAdapter) Kick(guildID, userID, reason string) error {
	return d.removal.Kick(guildID, userID, reason)
}

func (d *DiscordAdapter) Timeout(guildID, userID string, until time.Time, reason string) error {
	return d.removal.Timeout(guildID, userID, until, reason)
}

func (d *DiscordAdapter) RemoveAllRoles(guildID, userID, reason string) error {
	empty := []string{}
	_, err := d.session.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{
		Roles: &empty,
	}, discordgo.WithAuditLogReason(reason))
	return ClassifyError("remove_all_roles", err)
}

func (d *DiscordAdapter) EditRolePermissions(guildID, roleID string, permissions int64) error {
	_, err := d.session.GuildRoleEdit(guildID, roleID, &discordgo.RoleParams{
		Permissions: &permissions,
	})
	return ClassifyError("edit_role_permissions", err)
}

func (d *DiscordAdapter) SetRolePosition(guildID, roleID string, position int) error {
	_, err := d.session.GuildRoleReorder(guildID, []*discordgo.Role{
		{ID: roleID, Position: position},
	})
	return ClassifyError("set_role_position", err)
}

func (d *DiscordAdapter) DeleteChannel(channelID, reason string) error {
	_, err := d.session.ChannelDelete(channelID, discordgo.WithAuditLogReason(reason))
	return ClassifyError("delete_channel", err)
}

func (d *DiscordAdapter) EditChannelOverwrite(channelID, roleID string, allow, deny int64) error {
	err := d.session.ChannelPermissionSet(channelID, roleID, discordgo.PermissionOverwriteTypeRole, allow, deny)
	return ClassifyError("edit_channel_overwrite", err)
}

func (d *DiscordAdapter) EditDefaultRolePermissions(guildID string, permissions int64) error {
	// The @everyone role shares the guild's ID.
	_, err := d.session.GuildRoleEdit(guildID, guildID, &discordgo.RoleParams{
		Permissions: &permissions,
	})
	return ClassifyError("edit_default_role", err)
}

func (d *DiscordAdapter) CreateChannel(guildID, name string, channelType, position int) (string, error) {
	channel, err := d.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelType(channelType),
		Position: position,
	})
	if err != nil {
		return "", ClassifyError("create_channel", err)
	}
	return channel.ID, nil
}

func (d *DiscordAdapter) CreateRole(guildID, name string, permissions int64, color, position int) (string, error) {
	role, err := d.session.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Permissions: &permissions,
		Color:       &color,
	})
	if err != nil {
		return "", ClassifyError("create_role", err)
	}

	if position > 0 {
		if err := d.SetRolePosition(guildID, role.ID, position); err != nil {
			return role.ID, fmt.Errorf("role created but position not applied: %w", err)
		}
	}
	return role.ID, nil
}
