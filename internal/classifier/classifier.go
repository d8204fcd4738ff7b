package classifier

import (
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/tracker"
)

// Per-type thresholds within the action window. The single-action thresholds
// for channel and role deletion are deliberate: irreversible structural
// deletions are rare during normal operation, so even one is treated as
// signal.
type rule struct {
	actionType models.ActionType
	threshold  int
	threat     models.ThreatType
}

// Rules are evaluated in this fixed priority order; the first match wins.
var rules = []rule{
	{models.ActionChannelDelete, 1, models.ThreatChannelDeletion},
	{models.ActionChannelCreate, 2, models.ThreatChannelCreation},
	{models.ActionRoleDelete, 1, models.ThreatRoleDeletion},
	{models.ActionRoleCreate, 2, models.ThreatRoleCreation},
	{models.ActionBanAdd, 2, models.ThreatMassBan},
	{models.ActionMemberKick, 2, models.ThreatMassKick},
	{models.ActionWebhookCreate, 2, models.ThreatWebhookSpam},
	{models.ActionEmojiDelete, 2, models.ThreatEmojiDeletion},
}

// combinedThreshold catches attackers who spread actions across types to
// dodge every per-type threshold.
const combinedThreshold = 4

// Classify decides whether the actor's current window constitutes a threat
// and, if so, which single threat type describes it.
func Classify(history tracker.ActorHistory) models.Classification {
	counts := history.Counts()

	result := models.Classification{
		Score:  history.ThreatScore,
		Counts: counts,
	}

	for _, r := range rules {
		if counts[r.actionType] >= r.threshold {
			result.Detected = true
			result.Type = r.threat
			return result
		}
	}

	total := 0
	for actionType, n := range counts {
		if actionType.Weight() > 0 {
			total += n
		}
	}
	if total >= combinedThreshold {
		result.Detected = true
		result.Type = models.ThreatCombined
	}

	return result
}
