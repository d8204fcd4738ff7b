package models

import "time"

// PatternKind identifies one of the audit-trail preparation heuristics.
type PatternKind string

const (
	PatternPermissionTesting PatternKind = "permission_testing"
	PatternCoordinatedAttack PatternKind = "coordinated_attack"
	PatternRapidEscalation   PatternKind = "rapid_escalation"
	PatternUnusualSequence   PatternKind = "unusual_sequence"
	PatternCrossUserGrants   PatternKind = "cross_user_grants"
)

// PatternFinding is one detector hit over a guild's recent audit trail.
// Confidence is 0-100; findings at 80+ feed the full mitigation path,
// 60-79 produce an advisory alert only.
type PatternFinding struct {
	GuildID     string
	ActorID     string
	Kind        PatternKind
	Confidence  int
	Description string
	Timestamp   time.Time
}
