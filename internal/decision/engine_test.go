package decision

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paprika2227/guildguard/internal/config"
	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/metrics"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/recovery"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/tracker"
)

type fakeLocker struct {
	mu    sync.Mutex
	calls []string
}

func (l *fakeLocker) Lockdown(guildID string, threatType models.ThreatType, counts map[models.ActionType]int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, guildID+":"+string(threatType))
	return true
}

type fakeRecoverer struct {
	mu     sync.Mutex
	calls  int
	result *recovery.Result
}

func (r *fakeRecoverer) Recover(guildID string, threatType models.ThreatType) (*recovery.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls += 1
	return r.result, nil
}

type fakeStore struct {
	mu      sync.Mutex
	threats []*models.ThreatRecord
	logs    []*database.EventLogRow
	enabled map[string]bool
}

func (s *fakeStore) LogThreat(record *models.ThreatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threats = append(s.threats, record)
	return nil
}

func (s *fakeStore) InsertEventLog(row *database.EventLogRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, row)
	return nil
}

func (s *fakeStore) SetGuildEnabled(guildID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled == nil {
		s.enabled = make(map[string]bool)
	}
	s.enabled[guildID] = enabled
	return nil
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []*models.AlertPayload
}

func (a *fakeAlerter) Send(payload *models.AlertPayload) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, payload)
}

type harness struct {
	engine    *Engine
	adapter   *platform.FakeAdapter
	clock     *sched.FakeClock
	locker    *fakeLocker
	recoverer *fakeRecoverer
	store     *fakeStore
	alerter   *fakeAlerter
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	config.InitProfileStore()
	metrics.InitGlobalRegistry()

	h := &harness{
		adapter:   platform.NewFakeAdapter(),
		clock:     sched.NewFakeClock(time.Unix(1700000000, 0)),
		locker:    &fakeLocker{},
		recoverer: &fakeRecoverer{},
		store:     &fakeStore{},
		alerter:   &fakeAlerter{},
	}
	histories := tracker.NewHistoryTracker(h.clock, 5*time.Second, time.Minute)
	h.engine = NewEngine(
		h.adapter, h.clock, config.GetProfileStore(), histories,
		h.locker, h.recoverer, h.store, h.alerter,
		metrics.Get(), 30*time.Second,
	)
	return h
}

func (h *harness) event(guildID, actorID string, actionType models.ActionType) models.ActionEvent {
	return models.ActionEvent{
		GuildID:    guildID,
		ActorID:    actorID,
		ActionType: actionType,
		Timestamp:  h.clock.Now(),
	}
}

func TestChannelDeleteBurstTriggersMitigation(t *testing.T) {
	h := newHarness(t)

	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionChannelDelete))
	h.clock.Advance(2 * time.Second)
	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionChannelDelete))

	require.NotEmpty(t, h.locker.calls)
	assert.Equal(t, "g1:"+string(models.ThreatChannelDeletion), h.locker.calls[0])
	assert.NotEmpty(t, h.adapter.CallsFor("ban"), "removal chain should attempt a ban")

	require.NotEmpty(t, h.store.threats)
	assert.Equal(t, models.ThreatChannelDeletion, h.store.threats[0].ThreatType)
	assert.True(t, h.store.threats[0].ActionTaken)
}

func TestMixedBurstClassifiedAsCombined(t *testing.T) {
	h := newHarness(t)

	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionChannelCreate))
	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionRoleCreate))
	h.clock.Advance(time.Second)
	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionMemberKick))
	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionWebhookCreate))

	require.NotEmpty(t, h.store.threats)
	assert.Equal(t, models.ThreatCombined, h.store.threats[0].ThreatType)
}

func TestWhitelistedActorBypassesEverything(t *testing.T) {
	h := newHarness(t)
	config.GetProfileStore().AddWhitelist("g1", "admin")

	for i := 0; i < 5; i++ {
		h.engine.HandleEvent(h.event("g1", "admin", models.ActionBanAdd))
	}

	assert.Empty(t, h.locker.calls)
	assert.Empty(t, h.adapter.Calls)
	assert.Empty(t, h.alerter.alerts)
	assert.Empty(t, h.store.threats)
}

func TestOwnerAndBotExempt(t *testing.T) {
	h := newHarness(t)
	config.GetProfileStore().SetOwner("g1", "owner")

	h.engine.HandleEvent(h.event("g1", "owner", models.ActionChannelDelete))
	h.engine.HandleEvent(h.event("g1", h.adapter.BotUserID(), models.ActionChannelDelete))

	assert.Empty(t, h.locker.calls)
	assert.Empty(t, h.store.threats)
}

func TestDedupSuppressesRepeatBurst(t *testing.T) {
	h := newHarness(t)

	cls := models.Classification{
		Detected: true,
		Type:     models.ThreatChannelDeletion,
		Score:    40,
		Counts:   map[models.ActionType]int{models.ActionChannelDelete: 2},
	}
	h.engine.Respond("g1", "attacker", cls, h.clock.Now())
	h.engine.Respond("g1", "attacker", cls, h.clock.Now())

	assert.Len(t, h.locker.calls, 1, "second identical burst must not rerun the sequence")
	assert.Len(t, h.store.threats, 1)

	// After the dedup TTL lapses the same triple may be handled again.
	h.clock.Advance(31 * time.Second)
	h.engine.Respond("g1", "attacker", cls, h.clock.Now())
	assert.Len(t, h.locker.calls, 2)
}

func TestRemovalFallsBackToKick(t *testing.T) {
	h := newHarness(t)
	h.adapter.Errs["ban"] = &platform.PermissionError{Op: "ban"}
	h.recoverer.result = &recovery.Result{SnapshotID: "snap-1", RestoredCount: 7}

	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionRoleDelete))

	require.NotEmpty(t, h.store.threats)
	assert.True(t, h.store.threats[0].ActionTaken, "kick fallback should count as removal")

	require.NotEmpty(t, h.adapter.CallsFor("kick"))
	assert.Equal(t, 1, h.recoverer.calls, "recovery runs when removal succeeded")

	require.Len(t, h.alerter.alerts, 2)
	assert.Equal(t, "kick", h.alerter.alerts[0].RemovalMethod)
	assert.Contains(t, h.alerter.alerts[0].MissingPerms, "ban")
	assert.Equal(t, "snap-1", h.alerter.alerts[1].SnapshotUsed)
	assert.Equal(t, 7, h.alerter.alerts[1].RestoredCount)
}

func TestRemovalFailureSkipsRecovery(t *testing.T) {
	h := newHarness(t)
	h.adapter.Errs["ban"] = &platform.PermissionError{Op: "ban"}
	h.adapter.Errs["kick"] = &platform.PermissionError{Op: "kick"}
	h.adapter.Errs["timeout"] = &platform.PermissionError{Op: "timeout"}

	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionRoleDelete))

	require.NotEmpty(t, h.locker.calls, "lockdown still applies when removal fails")
	assert.Equal(t, 0, h.recoverer.calls, "no recovery while the attacker remains")

	require.Len(t, h.alerter.alerts, 1)
	assert.False(t, h.alerter.alerts[0].ActionTaken)
	assert.ElementsMatch(t, []string{"ban", "kick", "timeout"}, h.alerter.alerts[0].MissingPerms)
}

func TestDisabledGuildReenabledMidAttack(t *testing.T) {
	h := newHarness(t)
	config.GetProfileStore().GetOrCreate("g1")
	config.GetProfileStore().SetEnabled("g1", false)

	h.engine.HandleEvent(h.event("g1", "attacker", models.ActionChannelDelete))

	assert.True(t, config.GetProfileStore().GetOrCreate("g1").IsEnabled())
	assert.True(t, h.store.enabled["g1"])
	assert.NotEmpty(t, h.locker.calls, "mitigation proceeds despite the disabled flag")
}

func TestPatternFindingConfidenceBands(t *testing.T) {
	h := newHarness(t)

	h.engine.HandlePatternFinding(models.PatternFinding{
		GuildID: "g1", ActorID: "scout", Kind: models.PatternPermissionTesting,
		Confidence: 65,
	})
	require.Len(t, h.alerter.alerts, 1, "60-79 produces an advisory alert only")
	assert.Empty(t, h.locker.calls)
	assert.True(t, h.alerter.alerts[0].IsAdvisory())

	h.engine.HandlePatternFinding(models.PatternFinding{
		GuildID: "g1", ActorID: "scout", Kind: models.PatternCoordinatedAttack,
		Confidence: 90,
	})
	assert.NotEmpty(t, h.locker.calls, "80+ runs the full sequence")
	require.NotEmpty(t, h.store.threats)
	assert.Equal(t, models.ThreatAuditPattern, h.store.threats[0].ThreatType)
}

func TestDedupEntryExpiresViaTimer(t *testing.T) {
	clock := sched.NewFakeClock(time.Unix(1700000000, 0))
	cache := NewDedupCache(clock, 30*time.Second)

	require.True(t, cache.TryAcquire("g1", "a1", models.ThreatMassBan))
	require.False(t, cache.TryAcquire("g1", "a1", models.ThreatMassBan))
	assert.True(t, cache.TryAcquire("g1", "a2", models.ThreatMassBan), "distinct actors never collide")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 0, cache.Len(), "expiry timers clear entries")
	assert.True(t, cache.TryAcquire("g1", "a1", models.ThreatMassBan))
}
