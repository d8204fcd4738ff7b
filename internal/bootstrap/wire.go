package bootstrap

import (
	"fmt"
	"time"

	"github.com/paprika2227/guildguard/internal/auditwatch"
	"github.com/paprika2227/guildguard/internal/bot"
	"github.com/paprika2227/guildguard/internal/config"
	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/decision"
	"github.com/paprika2227/guildguard/internal/dispatcher"
	"github.com/paprika2227/guildguard/internal/guard"
	"github.com/paprika2227/guildguard/internal/lockdown"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/metrics"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/notifier"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/recovery"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/tracker"
	"github.com/paprika2227/guildguard/internal/watchdog"
)

type Components struct {
	Session *bot.Session
	Adapter *platform.DiscordAdapter

	HTTPPool    *dispatcher.HTTPPool
	RateLimiter *dispatcher.RateLimitMonitor
	Executor    *dispatcher.RemovalExecutor

	Histories   *tracker.HistoryTracker
	Lockdown    *lockdown.Controller
	Snapshotter *recovery.Snapshotter
	Selector    *recovery.Selector
	Engine      *decision.Engine
	Guard       *guard.Guard
	Monitor     *auditwatch.Monitor
	Notifier    *notifier.Notifier
	Watchdog    *watchdog.Watchdog

	stopMetrics chan struct{}
}

// Wire builds the full component graph. Nothing is started here; StartAll
// brings the pieces up once the graph is complete.
func Wire(b *Bootstrap) error {
	cfg := b.Config
	clock := sched.System()

	if cfg.Bot.Token == "" {
		return fmt.Errorf("no bot token configured (config.json or DISCORD_TOKEN)")
	}
	if err := bot.Initialize(cfg.Bot.Token); err != nil {
		return err
	}
	session := bot.GetSession()

	// Removal calls bypass the SDK: the fasthttp path shaves the hot-path
	// latency between classification and ban.
	pool := dispatcher.NewHTTPPool(cfg.Network.HTTPPoolSize)
	rateLimiter := dispatcher.NewRateLimitMonitor()
	executor := dispatcher.NewRemovalExecutor(pool, rateLimiter, cfg.Bot.Token, cfg.Network.APIBaseURL)

	adapter := platform.NewDiscordAdapter(session.GetDiscord(), executor)
	db := database.GetDB()

	window := time.Duration(cfg.Detection.WindowMs) * time.Millisecond
	histories := tracker.NewHistoryTracker(clock, window,
		time.Duration(cfg.Detection.InactivityTTLSec)*time.Second)

	lockCtl := lockdown.NewController(adapter, clock,
		time.Duration(cfg.Detection.LockdownMinutes)*time.Minute)

	snapshotter := recovery.NewSnapshotter(adapter, db, clock)
	restorer := recovery.NewStructuralRestorer(adapter)
	selector := recovery.NewSelector(db, restorer, window, clock.Now)

	alerter := notifier.New(session.GetDiscord(), config.GetProfileStore())

	engine := decision.NewEngine(
		adapter, clock, config.GetProfileStore(), histories,
		lockCtl, selector, db, alerter, metrics.Get(),
		time.Duration(cfg.Detection.DedupTTLSec)*time.Second,
	)

	channelGuard := guard.NewGuard(adapter, clock, metrics.Get(),
		func(guildID, creatorID, channelID string, messageCount int) {
			engine.Respond(guildID, creatorID, models.Classification{
				Detected: true,
				Type:     models.ThreatSpamChannelFlood,
				Score:    models.ActionChannelCreate.Weight(),
				Counts:   map[models.ActionType]int{models.ActionChannelCreate: 1},
			}, clock.Now())
		})

	monitor := auditwatch.NewMonitor(adapter, clock, engine,
		time.Duration(cfg.Detection.AuditPollSec)*time.Second)

	wd := watchdog.New(clock, 30*time.Second)
	wd.Register("snapshotter", 3*time.Duration(cfg.Detection.SnapshotIntervalMin)*time.Minute)
	wd.Register("metrics", 3*time.Minute)

	session.SetupEventHandlers(engine, channelGuard, monitor, histories, db)

	b.Components = &Components{
		Session:     session,
		Adapter:     adapter,
		HTTPPool:    pool,
		RateLimiter: rateLimiter,
		Executor:    executor,
		Histories:   histories,
		Lockdown:    lockCtl,
		Snapshotter: snapshotter,
		Selector:    selector,
		Engine:      engine,
		Guard:       channelGuard,
		Monitor:     monitor,
		Notifier:    alerter,
		Watchdog:    wd,
		stopMetrics: make(chan struct{}),
	}
	return nil
}

// StartAll connects the gateway and brings up every background loop.
func StartAll(cfg *config.Config, c *Components) error {
	if err := c.Session.Connect(); err != nil {
		return err
	}

	c.HTTPPool.Warmup(cfg.Network.APIBaseURL)
	c.Histories.StartSweep(time.Minute)
	c.Watchdog.Start()

	c.Snapshotter.StartSchedule(
		time.Duration(cfg.Detection.SnapshotIntervalMin)*time.Minute,
		func() []string {
			c.Watchdog.Heartbeat("snapshotter")
			discord := c.Session.GetDiscord()
			guilds := make([]string, 0, len(discord.State.Guilds))
			for _, g := range discord.State.Guilds {
				guilds = append(guilds, g.ID)
			}
			return guilds
		})

	go metricsLoop(c)

	logging.Info("All components started")
	return nil
}

func metricsLoop(c *Components) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopMetrics:
			return
		case <-ticker.C:
			c.Watchdog.Heartbeat("metrics")
			logging.Debug("metrics:\n%s", metrics.Get().Export())
		}
	}
}
