package models

import "time"

type ActionType uint8

const (
	ActionUnknown ActionType = iota
	ActionChannelCreate
	ActionChannelDelete
	ActionRoleCreate
	ActionRoleDelete
	ActionBanAdd
	ActionMemberKick
	ActionWebhookCreate
	ActionEmojiDelete
	ActionVoiceMassJoin
)

// ActionEvent is one privileged administrative action observed on a guild.
// Immutable after construction; produced by the gateway handlers or by the
// audit pattern monitor.
type ActionEvent struct {
	GuildID    string
	ActorID    string
	TargetID   string
	ActionType ActionType
	Timestamp  time.Time
	Metadata   map[string]string
}

func (t ActionType) String() string {
	switch t {
	case ActionChannelCreate:
		return "channel_create"
	case ActionChannelDelete:
		return "channel_delete"
	case ActionRoleCreate:
		return "role_create"
	case ActionRoleDelete:
		return "role_delete"
	case ActionBanAdd:
		return "ban_add"
	case ActionMemberKick:
		return "member_kick"
	case ActionWebhookCreate:
		return "webhook_create"
	case ActionEmojiDelete:
		return "emoji_delete"
	case ActionVoiceMassJoin:
		return "voice_mass_join"
	default:
		return "unknown"
	}
}

func (t ActionType) IsDestructive() bool {
	return t == ActionBanAdd ||
		t == ActionMemberKick ||
		t == ActionChannelDelete ||
		t == ActionRoleDelete
}

// Weight returns the threat-score contribution of a single action of this
// type. Weights reflect blast radius and irreversibility, not frequency.
func (t ActionType) Weight() int {
	switch t {
	case ActionChannelDelete:
		return 20
	case ActionChannelCreate:
		return 15
	case ActionRoleDelete:
		return 25
	case ActionRoleCreate:
		return 15
	case ActionBanAdd:
		return 30
	case ActionMemberKick:
		return 20
	case ActionWebhookCreate:
		return 10
	case ActionEmojiDelete:
		return 15
	default:
		return 0
	}
}
