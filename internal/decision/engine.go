package decision

import (
	"time"

	"github.com/google/uuid"

	"github.com/paprika2227/guildguard/internal/classifier"
	"github.com/paprika2227/guildguard/internal/config"
	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/metrics"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/recovery"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/tracker"
)

// Pattern findings at or above this confidence trigger the full mitigation
// sequence; findings between advisoryConfidence and this produce an admin
// alert with no automated action.
const (
	responseConfidence = 80
	advisoryConfidence = 60
)

// Locker is the slice of the lockdown controller the engine drives.
type Locker interface {
	Lockdown(guildID string, threatType models.ThreatType, counts map[models.ActionType]int) bool
}

// Recoverer triggers post-removal structural restoration.
type Recoverer interface {
	Recover(guildID string, threatType models.ThreatType) (*recovery.Result, error)
}

// Store is the persistence surface the engine writes to. Write failures are
// logged and never block the mitigation sequence.
type Store interface {
	LogThreat(record *models.ThreatRecord) error
	InsertEventLog(row *database.EventLogRow) error
	SetGuildEnabled(guildID string, enabled bool) error
}

// Alerter delivers the structured alert payloads. The engine only builds
// payloads; formatting and transport live in the notifier.
type Alerter interface {
	Send(payload *models.AlertPayload)
}

// Engine is the threat response orchestrator: it scores incoming events,
// classifies bursts, and on detection runs the mitigation sequence
// (dedup gate, deprivilege, hierarchy correction, lockdown, removal chain,
// persist, alert, recovery). No step in the sequence ever aborts the steps
// after it; the worst outcome is lockdown active, attacker not removed,
// admins alerted.
type Engine struct {
	adapter   platform.Adapter
	clock     sched.Clock
	profiles  *config.ProfileStore
	histories *tracker.HistoryTracker
	locker    Locker
	recoverer Recoverer
	store     Store
	alerter   Alerter
	dedup     *DedupCache
	counters  *metrics.Registry
}

func NewEngine(
	adapter platform.Adapter,
	clock sched.Clock,
	profiles *config.ProfileStore,
	histories *tracker.HistoryTracker,
	locker Locker,
	recoverer Recoverer,
	store Store,
	alerter Alerter,
	counters *metrics.Registry,
	dedupTTL time.Duration,
) *Engine {
	return &Engine{
		adapter:   adapter,
		clock:     clock,
		profiles:  profiles,
		histories: histories,
		locker:    locker,
		recoverer: recoverer,
		store:     store,
		alerter:   alerter,
		dedup:     NewDedupCache(clock, dedupTTL),
		counters:  counters,
	}
}

// HandleEvent is the hot-path entry: record the action, classify the
// actor's window, and respond when a threat is detected. Exempt actors
// (the bot itself, the guild owner, whitelisted members) are never scored.
func (e *Engine) HandleEvent(event models.ActionEvent) {
	e.counters.EventsIngested.Add(1)

	if e.exempt(event.GuildID, event.ActorID) {
		return
	}

	history := e.histories.Record(event)
	cls := classifier.Classify(history)
	if !cls.Detected {
		return
	}

	e.counters.ThreatsDetected.Add(1)
	logging.Warn("[ENGINE] threat %s by %s in guild %s (score %d)",
		cls.Type, event.ActorID, event.GuildID, cls.Score)

	// Fail-safe override: an attack against a guild with detection switched
	// off still gets mitigated, and detection is switched back on.
	profile := e.profiles.GetOrCreate(event.GuildID)
	if !profile.IsEnabled() {
		logging.Warn("[ENGINE] guild %s had detection disabled mid-attack, re-enabling", event.GuildID)
		e.profiles.SetEnabled(event.GuildID, true)
		if err := e.store.SetGuildEnabled(event.GuildID, true); err != nil {
			logging.Error("[ENGINE] persist of re-enable for guild %s failed: %v", event.GuildID, err)
		}
	}

	e.Respond(event.GuildID, event.ActorID, cls, e.clock.Now())
}

// HandlePatternFinding is the audit monitor's entry into the response path.
func (e *Engine) HandlePatternFinding(finding models.PatternFinding) {
	e.counters.PatternFindings.Add(1)

	if e.exempt(finding.GuildID, finding.ActorID) {
		return
	}

	switch {
	case finding.Confidence >= responseConfidence:
		logging.Warn("[ENGINE] audit pattern %s by %s in guild %s (confidence %d), responding",
			finding.Kind, finding.ActorID, finding.GuildID, finding.Confidence)
		cls := models.Classification{
			Detected: true,
			Type:     models.ThreatAuditPattern,
			Score:    finding.Confidence,
			Counts:   map[models.ActionType]int{},
		}
		e.Respond(finding.GuildID, finding.ActorID, cls, e.clock.Now())

	case finding.Confidence >= advisoryConfidence:
		alert := models.NewAlert(finding.GuildID, finding.ActorID, models.ThreatAuditPattern)
		alert.Confidence = finding.Confidence
		alert.Timestamp = e.clock.Now()
		e.alerter.Send(alert)
		e.counters.AlertsSent.Add(1)
	}
}

// Respond runs the mitigation sequence for a classified threat. The dedup
// gate guarantees at most one sequence per (guild, actor, threatType)
// within the dedup TTL.
func (e *Engine) Respond(guildID, actorID string, cls models.Classification, detectedAt time.Time) {
	if !e.dedup.TryAcquire(guildID, actorID, cls.Type) {
		logging.Debug("[ENGINE] duplicate %s burst by %s in guild %s suppressed",
			cls.Type, actorID, guildID)
		return
	}

	// Attacker roles are captured before deprivileging strips them; both the
	// admin-bit sweep and the hierarchy fix need the pre-strip set.
	attackerRoles, err := e.adapter.MemberRoles(guildID, actorID)
	if err != nil {
		logging.Warn("[ENGINE] attacker role lookup failed in guild %s: %v", guildID, err)
	}

	var missing []string
	e.deprivilege(guildID, actorID, attackerRoles, &missing)
	e.correctHierarchy(guildID, actorID, attackerRoles)

	// Containment before attribution: lockdown goes up even if removal
	// later fails.
	if e.locker.Lockdown(guildID, cls.Type, cls.Counts) {
		e.counters.LockdownsActivated.Add(1)
	}

	reason := "Threat detected: " + string(cls.Type)
	outcome := e.removeAttacker(guildID, actorID, reason)
	outcome.MissingPerms = append(missing, outcome.MissingPerms...)
	if outcome.Removed {
		e.counters.RemovalsExecuted.Add(1)
	} else {
		e.counters.RemovalsFailed.Add(1)
	}

	now := e.clock.Now()
	e.persist(guildID, actorID, cls, outcome, detectedAt, now)
	logging.Incident(guildID, actorID, string(cls.Type), cls.Score, outcome.Removed)

	alert := e.buildAlert(guildID, actorID, cls, outcome, now)
	e.alerter.Send(alert)
	e.counters.AlertsSent.Add(1)

	// Recovery only after the attacker is gone: restoring structure an
	// active attacker can immediately re-destroy is worse than waiting.
	if !outcome.Removed {
		return
	}
	result, err := e.recoverer.Recover(guildID, cls.Type)
	if err != nil {
		logging.Error("[ENGINE] recovery for guild %s failed: %v", guildID, err)
		return
	}
	if result == nil {
		return
	}
	e.counters.RecoveriesRun.Add(1)

	followUp := e.buildAlert(guildID, actorID, cls, outcome, e.clock.Now())
	followUp.SnapshotUsed = result.SnapshotID
	followUp.RestoredCount = result.RestoredCount
	e.alerter.Send(followUp)
	e.counters.AlertsSent.Add(1)
}

func (e *Engine) exempt(guildID, actorID string) bool {
	if actorID == "" || actorID == e.adapter.BotUserID() {
		return true
	}
	owner := e.profiles.GetOrCreate(guildID).Owner()
	if owner != "" && actorID == owner {
		return true
	}
	return e.profiles.IsWhitelisted(guildID, actorID)
}

// persist writes the forensic threat record and the latency row. Both are
// best-effort; a persistence failure never interrupts the sequence.
func (e *Engine) persist(guildID, actorID string, cls models.Classification, outcome RemovalOutcome, detectedAt, now time.Time) {
	record := &models.ThreatRecord{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		ActorID:     actorID,
		ThreatType:  cls.Type,
		Score:       cls.Score,
		ActionTaken: outcome.Removed,
		Timestamp:   now,
		Counts:      cls.Counts,
	}
	if err := e.store.LogThreat(record); err != nil {
		logging.Error("[ENGINE] threat record write failed for guild %s: %v", guildID, err)
	}

	actionTaken := outcome.Method
	if !outcome.Removed {
		actionTaken = "none"
	}
	row := &database.EventLogRow{
		GuildID:     guildID,
		ActorID:     actorID,
		ThreatType:  string(cls.Type),
		DetectionUS: now.Sub(detectedAt).Microseconds(),
		ActionTaken: actionTaken,
		Timestamp:   now.UnixMilli(),
	}
	if err := e.store.InsertEventLog(row); err != nil {
		logging.Error("[ENGINE] event log write failed for guild %s: %v", guildID, err)
	}
}

func (e *Engine) buildAlert(guildID, actorID string, cls models.Classification, outcome RemovalOutcome, at time.Time) *models.AlertPayload {
	return &models.AlertPayload{
		GuildID:       guildID,
		ActorID:       actorID,
		ThreatType:    cls.Type,
		Counts:        cls.Counts,
		ActionTaken:   outcome.Removed,
		RemovalMethod: outcome.Method,
		MissingPerms:  outcome.MissingPerms,
		Timestamp:     at,
	}
}
