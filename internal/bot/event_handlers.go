package bot

import (
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/paprika2227/guildguard/internal/auditwatch"
	"github.com/paprika2227/guildguard/internal/config"
	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/decision"
	"github.com/paprika2227/guildguard/internal/guard"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/tracker"
)

// auditLogCache holds the most recent audit entry per (guild, action) so
// direct gateway events can be attributed to an actor without an extra API
// round trip when the audit event arrived first.
type auditLogCache struct {
	mu      sync.RWMutex
	entries map[string]*auditCacheEntry
}

type auditCacheEntry struct {
	actorID   string
	targetID  string
	timestamp time.Time
}

const cacheTTL = 5 * time.Second

var auditCache = &auditLogCache{entries: make(map[string]*auditCacheEntry)}

func (c *auditLogCache) Store(guildID string, action int, actorID, targetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := guildID + ":" + strconv.Itoa(action)
	c.entries[key] = &auditCacheEntry{
		actorID:   actorID,
		targetID:  targetID,
		timestamp: time.Now(),
	}

	for k, v := range c.entries {
		if time.Since(v.timestamp) > cacheTTL {
			delete(c.entries, k)
		}
	}
}

func (c *auditLogCache) Get(guildID string, action int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := guildID + ":" + strconv.Itoa(action)
	if entry, exists := c.entries[key]; exists && time.Since(entry.timestamp) < cacheTTL {
		return entry.actorID, true
	}
	return "", false
}

// fetchActor resolves who performed an action: cache first, then one audit
// log API call. Returns "" when attribution fails or the actor is a bot.
func fetchActor(sess *discordgo.Session, guildID string, actionType int) string {
	if actorID, found := auditCache.Get(guildID, actionType); found {
		return actorID
	}

	audit, err := sess.GuildAuditLog(guildID, "", "", actionType, 1)
	if err != nil {
		logging.Warn("Failed to fetch audit log for guild %s action %d: %v", guildID, actionType, err)
		return ""
	}
	if len(audit.AuditLogEntries) == 0 {
		return ""
	}

	entry := audit.AuditLogEntries[0]
	for _, user := range audit.Users {
		if user.ID == entry.UserID && user.Bot {
			logging.Debug("[AUDIT] Skipping action %d by bot user %s", actionType, user.Username)
			return ""
		}
	}

	auditCache.Store(guildID, actionType, entry.UserID, entry.TargetID)
	return entry.UserID
}

// SetupEventHandlers wires gateway events into the detection pipeline:
// normalized action events into the engine, message traffic into the
// spam-channel guard, and guild lifecycle into profiles and the audit
// monitor.
func (s *Session) SetupEventHandlers(
	engine *decision.Engine,
	channelGuard *guard.Guard,
	monitor *auditwatch.Monitor,
	histories *tracker.HistoryTracker,
	db *database.Database,
) {
	logging.Info("Setting up Discord event handlers...")

	emit := func(guildID, actorID, targetID string, actionType models.ActionType) {
		if actorID == "" {
			logging.Warn("[EVENT] %s in guild %s without actor attribution", actionType, guildID)
			return
		}
		engine.HandleEvent(models.ActionEvent{
			GuildID:    guildID,
			ActorID:    actorID,
			TargetID:   targetID,
			ActionType: actionType,
			Timestamp:  time.Now(),
		})
	}

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Bot ready! Connected as %s, %d guilds", r.User.Username, len(r.Guilds))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		logging.Info("Bot joined/loaded guild: %s (ID: %s)", g.Name, g.ID)

		config.GetProfileStore().SetOwner(g.ID, g.OwnerID)

		if db != nil {
			if err := db.EnsureGuildConfig(g.ID); err != nil {
				logging.Warn("Failed to ensure config for guild %s: %v", g.ID, err)
			}
		}
		monitor.Watch(g.ID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildDelete) {
		if g.ID == "" {
			return
		}
		monitor.Unwatch(g.ID)
		logging.Info("Left guild %s, audit monitoring stopped", g.ID)
	})

	// The audit stream delivers actor attribution ahead of most direct
	// events; cache every entry for correlation.
	s.discord.AddHandler(func(sess *discordgo.Session, audit *discordgo.GuildAuditLogEntryCreate) {
		if audit.GuildID == "" {
			return
		}
		actionType := 0
		if audit.ActionType != nil {
			actionType = int(*audit.ActionType)
		}
		auditCache.Store(audit.GuildID, actionType, audit.UserID, audit.TargetID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.ChannelCreate) {
		if c.GuildID == "" {
			return
		}
		actorID := fetchActor(sess, c.GuildID, platform.AuditChannelCreate)
		emit(c.GuildID, actorID, c.ID, models.ActionChannelCreate)
		if actorID != "" {
			channelGuard.TrackChannel(c.GuildID, c.ID, actorID)
		}
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.ChannelDelete) {
		if c.GuildID == "" {
			return
		}
		channelGuard.Forget(c.ID)
		emit(c.GuildID, fetchActor(sess, c.GuildID, platform.AuditChannelDelete), c.ID, models.ActionChannelDelete)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.GuildRoleCreate) {
		if r.GuildID == "" || r.Role.Managed {
			return
		}
		emit(r.GuildID, fetchActor(sess, r.GuildID, platform.AuditRoleCreate), r.Role.ID, models.ActionRoleCreate)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.GuildRoleDelete) {
		if r.GuildID == "" {
			return
		}
		emit(r.GuildID, fetchActor(sess, r.GuildID, platform.AuditRoleDelete), r.RoleID, models.ActionRoleDelete)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, b *discordgo.GuildBanAdd) {
		if b.GuildID == "" {
			return
		}
		emit(b.GuildID, fetchActor(sess, b.GuildID, platform.AuditMemberBanAdd), b.User.ID, models.ActionBanAdd)
	})

	// Member removal is ambiguous (leave vs kick); only the audit log
	// distinguishes them. No attribution means a voluntary leave.
	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.GuildID == "" {
			return
		}
		actorID := fetchActor(sess, m.GuildID, platform.AuditMemberKick)
		if actorID == "" {
			return
		}
		emit(m.GuildID, actorID, m.User.ID, models.ActionMemberKick)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, w *discordgo.WebhooksUpdate) {
		if w.GuildID == "" {
			return
		}
		actorID := fetchActor(sess, w.GuildID, platform.AuditWebhookCreate)
		if actorID == "" {
			return
		}
		emit(w.GuildID, actorID, w.ChannelID, models.ActionWebhookCreate)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, e *discordgo.GuildEmojisUpdate) {
		if e.GuildID == "" {
			return
		}
		actorID := fetchActor(sess, e.GuildID, platform.AuditEmojiDelete)
		if actorID == "" {
			return
		}
		emit(e.GuildID, actorID, "", models.ActionEmojiDelete)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" {
			return
		}
		channelGuard.RecordMessage(m.ChannelID)
	})

	// Unbans and rejoins reset the actor's window: a readmitted account
	// starts from a clean slate and is scored on new behavior only.
	s.discord.AddHandler(func(sess *discordgo.Session, b *discordgo.GuildBanRemove) {
		if b.GuildID == "" {
			return
		}
		histories.Forget(b.GuildID, b.User.ID)
		logging.Info("[STATE] Cleared action history for unbanned user %s in guild %s", b.User.ID, b.GuildID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.GuildID == "" {
			return
		}
		histories.Forget(m.GuildID, m.User.ID)
	})
}
