package database

// GuildConfig is the persisted per-guild configuration row.
type GuildConfig struct {
	GuildID        string
	Enabled        bool
	AlertChannelID string
	CreatedAt      int64
	UpdatedAt      int64
}

// SnapshotRow is the persisted metadata (and payload) of one structural
// snapshot. Payload is a JSON document of channels, roles, and default-role
// permissions.
type SnapshotRow struct {
	ID        string
	GuildID   string
	Type      string
	CreatedAt int64
	Payload   []byte
}

// EventLogRow records one mitigation with its detection latency.
type EventLogRow struct {
	ID          int64
	GuildID     string
	ActorID     string
	ThreatType  string
	DetectionUS int64
	ActionTaken string
	Timestamp   int64
}
