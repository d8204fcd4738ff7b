package detectors

import (
	"fmt"
	"time"

	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
)

// The five detectors are pure functions over a chronologically ordered
// (oldest first) slice of audit entries. No I/O, no shared state: the
// audit monitor owns fetching, normalization, and ordering.

const (
	permTestWindow   = 30 * time.Second
	coordWindow      = 60 * time.Second
	escalationWindow = 120 * time.Second
	sequenceGap      = 10 * time.Second

	permTestMinEdits   = 3
	coordMinActions    = 3
	coordMinActors     = 2
	crossUserMinGrants = 2
)

// Detector inspects one guild's recent audit trail and reports zero or
// more findings.
type Detector func(guildID string, entries []platform.AuditEntry) []models.PatternFinding

// All returns the full detector set in a fixed order.
func All() []Detector {
	return []Detector{
		PermissionTesting,
		CoordinatedAttack,
		RapidEscalation,
		UnusualSequence,
		CrossUserGrants,
	}
}

// Run applies every detector and concatenates the findings.
func Run(guildID string, entries []platform.AuditEntry) []models.PatternFinding {
	var findings []models.PatternFinding
	for _, detect := range All() {
		findings = append(findings, detect(guildID, entries)...)
	}
	return findings
}

func isPermissionEdit(actionType int) bool {
	switch actionType {
	case platform.AuditChannelOverwriteCreate,
		platform.AuditChannelOverwriteUpdate,
		platform.AuditChannelOverwriteDelete,
		platform.AuditRoleUpdate,
		platform.AuditMemberRoleUpdate:
		return true
	}
	return false
}

func isDestructive(actionType int) bool {
	switch actionType {
	case platform.AuditMemberBanAdd,
		platform.AuditMemberKick,
		platform.AuditChannelDelete,
		platform.AuditRoleDelete:
		return true
	}
	return false
}

func isMinorAction(actionType int) bool {
	return actionType == platform.AuditMemberKick ||
		actionType == platform.AuditChannelCreate
}

func isMajorAction(actionType int) bool {
	return actionType == platform.AuditMemberBanAdd ||
		actionType == platform.AuditChannelDelete ||
		actionType == platform.AuditRoleDelete
}

func isCreateOrUpdate(actionType int) bool {
	switch actionType {
	case platform.AuditChannelCreate, platform.AuditChannelUpdate,
		platform.AuditRoleCreate, platform.AuditRoleUpdate,
		platform.AuditWebhookCreate:
		return true
	}
	return false
}

func isDelete(actionType int) bool {
	switch actionType {
	case platform.AuditChannelDelete, platform.AuditRoleDelete,
		platform.AuditEmojiDelete:
		return true
	}
	return false
}

func clampConfidence(c int) int {
	if c > 100 {
		return 100
	}
	return c
}

// PermissionTesting flags an actor probing what they can touch: three or
// more permission-affecting edits inside a thirty second span. Confidence
// scales with the edit count.
func PermissionTesting(guildID string, entries []platform.AuditEntry) []models.PatternFinding {
	type edit struct{ at time.Time }
	perActor := make(map[string][]edit)

	for _, e := range entries {
		if isPermissionEdit(e.ActionType) {
			perActor[e.ActorID] = append(perActor[e.ActorID], edit{e.CreatedAt})
		}
	}

	var findings []models.PatternFinding
	for actorID, edits := range perActor {
		best := 0
		for i := range edits {
			n := 1
			for j := i + 1; j < len(edits); j++ {
				if edits[j].at.Sub(edits[i].at) <= permTestWindow {
					n++
				}
			}
			if n > best {
				best = n
			}
		}
		if best < permTestMinEdits {
			continue
		}
		findings = append(findings, models.PatternFinding{
			GuildID:     guildID,
			ActorID:     actorID,
			Kind:        models.PatternPermissionTesting,
			Confidence:  clampConfidence(55 + 5*best),
			Description: fmt.Sprintf("%d permission edits within 30s", best),
			Timestamp:   edits[len(edits)-1].at,
		})
	}
	return findings
}

// CoordinatedAttack flags destructive bursts spread across accounts: three
// or more destructive actions from at least two distinct actors inside a
// minute. The finding is attributed to the most active destructive actor.
func CoordinatedAttack(guildID string, entries []platform.AuditEntry) []models.PatternFinding {
	var destructive []platform.AuditEntry
	for _, e := range entries {
		if isDestructive(e.ActionType) {
			destructive = append(destructive, e)
		}
	}
	if len(destructive) < coordMinActions {
		return nil
	}

	for i := range destructive {
		actors := map[string]int{}
		actions := 0
		last := destructive[i].CreatedAt
		for j := i; j < len(destructive); j++ {
			if destructive[j].CreatedAt.Sub(destructive[i].CreatedAt) > coordWindow {
				break
			}
			actors[destructive[j].ActorID]++
			actions++
			last = destructive[j].CreatedAt
		}
		if actions < coordMinActions || len(actors) < coordMinActors {
			continue
		}

		lead, leadCount := "", 0
		for actorID, n := range actors {
			if n > leadCount {
				lead, leadCount = actorID, n
			}
		}
		return []models.PatternFinding{{
			GuildID:     guildID,
			ActorID:     lead,
			Kind:        models.PatternCoordinatedAttack,
			Confidence:  clampConfidence(70 + 5*len(actors) + 3*(actions-coordMinActions)),
			Description: fmt.Sprintf("%d destructive actions from %d actors within 60s", actions, len(actors)),
			Timestamp:   last,
		}}
	}
	return nil
}

// RapidEscalation flags the classic probe-then-strike shape: one actor
// performing a permission change, then a minor action, then a major one,
// in that order, inside two minutes.
func RapidEscalation(guildID string, entries []platform.AuditEntry) []models.PatternFinding {
	type progress struct {
		stage int
		start time.Time
	}
	perActor := make(map[string]*progress)

	var findings []models.PatternFinding
	for _, e := range entries {
		p := perActor[e.ActorID]
		if p == nil {
			p = &progress{}
			perActor[e.ActorID] = p
		}
		if p.stage > 0 && e.CreatedAt.Sub(p.start) > escalationWindow {
			p.stage = 0
		}

		switch {
		case p.stage == 0 && isPermissionEdit(e.ActionType):
			p.stage, p.start = 1, e.CreatedAt
		case p.stage == 1 && isMinorAction(e.ActionType):
			p.stage = 2
		case p.stage == 2 && isMajorAction(e.ActionType):
			p.stage = 0
			findings = append(findings, models.PatternFinding{
				GuildID:     guildID,
				ActorID:     e.ActorID,
				Kind:        models.PatternRapidEscalation,
				Confidence:  85,
				Description: "permission change, minor action, then major action within 120s",
				Timestamp:   e.CreatedAt,
			})
		}
	}
	return findings
}

// UnusualSequence flags a create or update immediately followed by a delete
// from the same actor, the signature of someone verifying destroy access.
func UnusualSequence(guildID string, entries []platform.AuditEntry) []models.PatternFinding {
	var findings []models.PatternFinding
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.ActorID != cur.ActorID {
			continue
		}
		if !isCreateOrUpdate(prev.ActionType) || !isDelete(cur.ActionType) {
			continue
		}
		if cur.CreatedAt.Sub(prev.CreatedAt) > sequenceGap {
			continue
		}
		findings = append(findings, models.PatternFinding{
			GuildID:     guildID,
			ActorID:     cur.ActorID,
			Kind:        models.PatternUnusualSequence,
			Confidence:  65,
			Description: "create or update immediately followed by delete",
			Timestamp:   cur.CreatedAt,
		})
	}
	return findings
}

// CrossUserGrants flags privilege delegation as attack preparation: actor A
// editing roles on the same other account B two or more times. Confidence
// grows with the repeat count.
func CrossUserGrants(guildID string, entries []platform.AuditEntry) []models.PatternFinding {
	type pair struct{ actor, target string }
	counts := make(map[pair]int)
	latest := make(map[pair]time.Time)

	for _, e := range entries {
		if e.ActionType != platform.AuditMemberRoleUpdate {
			continue
		}
		if e.TargetID == "" || e.TargetID == e.ActorID {
			continue
		}
		p := pair{e.ActorID, e.TargetID}
		counts[p]++
		latest[p] = e.CreatedAt
	}

	var findings []models.PatternFinding
	for p, n := range counts {
		if n < crossUserMinGrants {
			continue
		}
		findings = append(findings, models.PatternFinding{
			GuildID:     guildID,
			ActorID:     p.actor,
			Kind:        models.PatternCrossUserGrants,
			Confidence:  clampConfidence(55 + 10*n),
			Description: fmt.Sprintf("%d role grants on the same member", n),
			Timestamp:   latest[p],
		})
	}
	return findings
}
