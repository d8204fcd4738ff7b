package bootstrap

import (
	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/logging"
)

// Shutdown stops intake first (gateway), then background loops, then the
// database. Lockdown timers are deliberately left to lapse: lockdown state
// fails open on restart.
func Shutdown(c *Components) error {
	logging.Info("Starting graceful shutdown...")

	if c.Session != nil {
		logging.Info("Closing gateway connection...")
		if err := c.Session.Close(); err != nil {
			logging.Warn("Gateway close failed: %v", err)
		}
	}

	if c.Watchdog != nil {
		c.Watchdog.Stop()
	}
	if c.Histories != nil {
		c.Histories.StopSweep()
	}
	if c.stopMetrics != nil {
		close(c.stopMetrics)
	}

	logging.Info("Closing database...")
	if err := database.Close(); err != nil {
		logging.Warn("Database close failed: %v", err)
	}

	logging.Info("Graceful shutdown complete")
	return nil
}
