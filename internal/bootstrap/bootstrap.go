package bootstrap

import (
	"fmt"
	"os"

	"github.com/paprika2227/guildguard/internal/config"
	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/metrics"
	"github.com/paprika2227/guildguard/internal/sys"
)

// Bootstrap owns process startup order: config, runtime tuning, logging,
// database, then component wiring. Components start only after every
// earlier phase succeeded.
type Bootstrap struct {
	Config      *config.Config
	Components  *Components
	initialized bool
}

func New() *Bootstrap {
	return &Bootstrap{}
}

func (b *Bootstrap) Initialize() error {
	b.loadConfig()

	if err := b.initializeRuntime(); err != nil {
		return fmt.Errorf("runtime init failed: %w", err)
	}
	if err := b.initializeLogging(); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}
	if err := b.initializeState(); err != nil {
		return fmt.Errorf("state init failed: %w", err)
	}
	if err := b.wireComponents(); err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	logging.Info("Bootstrap complete")
	return nil
}

func (b *Bootstrap) loadConfig() {
	b.Config = config.LoadOrDefault("config.json")
	if b.Config.Bot.Token == "" {
		b.Config.Bot.Token = os.Getenv("DISCORD_TOKEN")
	}
}

func (b *Bootstrap) initializeRuntime() error {
	if b.Config.Runtime.CPUIsolation {
		if err := sys.PinToCore(b.Config.Runtime.EngineCPU); err != nil {
			logging.Warn("CPU pinning failed: %v", err)
		} else {
			logging.Info("Engine pinned to CPU %d", b.Config.Runtime.EngineCPU)
		}
	}
	return nil
}

func (b *Bootstrap) initializeLogging() error {
	if err := ensureLogsDirectory(); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return logging.Init(b.Config.Logging.Level, b.Config.Logging.Path)
}

func ensureLogsDirectory() error {
	_, err := os.Stat("logs")
	if os.IsNotExist(err) {
		return os.Mkdir("logs", 0755)
	}
	return err
}

func (b *Bootstrap) initializeState() error {
	config.InitProfileStore()
	metrics.InitGlobalRegistry()

	if err := database.Initialize(b.Config.Database.Path); err != nil {
		return err
	}
	if err := database.GetDB().SyncProfiles(config.GetProfileStore()); err != nil {
		logging.Warn("Guild profile sync failed: %v", err)
	}

	logging.Info("State initialized")
	return nil
}

func (b *Bootstrap) wireComponents() error {
	return Wire(b)
}

func (b *Bootstrap) Start() error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}
	return StartAll(b.Config, b.Components)
}

func (b *Bootstrap) Shutdown() error {
	return Shutdown(b.Components)
}
