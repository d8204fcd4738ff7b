package database

import (
	"github.com/paprika2227/guildguard/internal/config"
	"github.com/paprika2227/guildguard/internal/logging"
)

// SyncProfiles loads all persisted guild configs and whitelists into the
// in-memory profile store. Called once at startup and again when a guild's
// config changes externally.
func (d *Database) SyncProfiles(store *config.ProfileStore) error {
	rows, err := d.db.Query(`SELECT guild_id, enabled, alert_channel_id FROM guild_config`)
	if err != nil {
		return err
	}
	defer rows.Close()

	synced := 0
	for rows.Next() {
		var guildID, alertChannel string
		var enabled int
		if err := rows.Scan(&guildID, &enabled, &alertChannel); err != nil {
			return err
		}

		store.SetEnabled(guildID, enabled != 0)
		store.SetAlertChannel(guildID, alertChannel)

		targets, err := d.GetWhitelist(guildID)
		if err != nil {
			logging.Warn("[SYNC] whitelist load failed for guild %s: %v", guildID, err)
			continue
		}
		for _, target := range targets {
			store.AddWhitelist(guildID, target)
		}
		synced++
	}

	logging.Info("[SYNC] %d guild profiles loaded", synced)
	return rows.Err()
}
