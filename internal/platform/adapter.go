package platform

import "time"

// Adapter is the surface of the platform the engine mutates and queries.
// Every mutation either fully applies or fully fails; callers classify
// errors via the taxonomy in errors.go and never assume partial effects.
type Adapter interface {
	// Identity and structure queries.
	BotUserID() string
	GuildOwnerID(guildID string) (string, error)
	GuildRoles(guildID string) ([]Role, error)
	GuildChannels(guildID string) ([]Channel, error)
	MemberRoles(guildID, userID string) ([]string, error)

	// Audit trail.
	FetchAuditLog(guildID string, limit int) ([]AuditEntry, error)

	// Removal chain.
	Ban(guildID, userID, reason string) error
	Kick(guildID, userID, reason string) error
	Timeout(guildID, userID string, until time.Time, reason string) error

	// De-privileging and hierarchy.
	RemoveAllRoles(guildID, userID, reason string) error
	EditRolePermissions(guildID, roleID string, permissions int64) error
	SetRolePosition(guildID, roleID string, position int) error

	// Lockdown surface.
	DeleteChannel(channelID, reason string) error
	EditChannelOverwrite(channelID, roleID string, allow, deny int64) error
	EditDefaultRolePermissions(guildID string, permissions int64) error

	// Restoration.
	CreateChannel(guildID, name string, channelType, position int) (string, error)
	CreateRole(guildID, name string, permissions int64, color, position int) (string, error)
}

type Role struct {
	ID          string
	Name        string
	Position    int
	Permissions int64
	Color       int
	Managed     bool
}

type Channel struct {
	ID        string
	GuildID   string
	Name      string
	Type      int
	Position  int
	CreatedAt time.Time
}

// AuditEntry is one normalized audit-log row. ActionType carries the
// platform's numeric audit action code; CreatedAt is derived from the entry
// snowflake.
type AuditEntry struct {
	ID         string
	ActionType int
	ActorID    string
	TargetID   string
	Reason     string
	CreatedAt  time.Time
}

// Discord audit-log action codes the monitor cares about.
const (
	AuditGuildUpdate            = 1
	AuditChannelCreate          = 10
	AuditChannelUpdate          = 11
	AuditChannelDelete          = 12
	AuditChannelOverwriteCreate = 13
	AuditChannelOverwriteUpdate = 14
	AuditChannelOverwriteDelete = 15
	AuditMemberKick             = 20
	AuditMemberBanAdd           = 22
	AuditMemberUpdate           = 24
	AuditMemberRoleUpdate       = 25
	AuditRoleCreate             = 30
	AuditRoleUpdate             = 31
	AuditRoleDelete             = 32
	AuditWebhookCreate          = 50
	AuditEmojiDelete            = 62
)
