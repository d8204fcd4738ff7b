package models

import "time"

// AlertPayload is the structured alert the engine emits after a mitigation
// sequence. Delivery (channel message, webhook) is the notifier's concern;
// the engine only constructs the payload.
type AlertPayload struct {
	GuildID       string
	ActorID       string
	ThreatType    ThreatType
	Counts        map[ActionType]int
	Confidence    int
	ActionTaken   bool
	RemovalMethod string
	SnapshotUsed  string
	RestoredCount int
	MissingPerms  []string
	Timestamp     time.Time
}

func (a *AlertPayload) AttackerRemoved() bool {
	return a.ActionTaken
}

func (a *AlertPayload) IsAdvisory() bool {
	return a.Confidence > 0 && a.Confidence < 80
}

func NewAlert(guildID, actorID string, threatType ThreatType) *AlertPayload {
	return &AlertPayload{
		GuildID:    guildID,
		ActorID:    actorID,
		ThreatType: threatType,
		Timestamp:  time.Now(),
	}
}
