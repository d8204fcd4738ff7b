package models

import "time"

type ThreatType string

const (
	ThreatNone              ThreatType = ""
	ThreatChannelDeletion   ThreatType = "mass_channel_deletion"
	ThreatChannelCreation   ThreatType = "mass_channel_creation"
	ThreatRoleDeletion      ThreatType = "mass_role_deletion"
	ThreatRoleCreation      ThreatType = "mass_role_creation"
	ThreatMassBan           ThreatType = "mass_ban"
	ThreatMassKick          ThreatType = "mass_kick"
	ThreatWebhookSpam       ThreatType = "webhook_spam"
	ThreatEmojiDeletion     ThreatType = "mass_emoji_deletion"
	ThreatCombined          ThreatType = "combined_attack"
	ThreatAuditPattern      ThreatType = "audit_pattern"
	ThreatSpamChannelFlood  ThreatType = "spam_channel_flood"
)

// ThreatRecord is the write-once forensic record of a classified threat.
// Persisted before mitigation continues; never mutated after creation.
type ThreatRecord struct {
	ID          string
	GuildID     string
	ActorID     string
	ThreatType  ThreatType
	Score       int
	ActionTaken bool
	Timestamp   time.Time
	Counts      map[ActionType]int
}

// Classification is the result of a single classifier pass over an actor's
// action window. Exactly one threat type is ever emitted per call.
type Classification struct {
	Detected bool
	Type     ThreatType
	Score    int
	Counts   map[ActionType]int
}
