package database

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/paprika2227/guildguard/internal/models"
)

func (d *Database) GetGuildConfig(guildID string) (*GuildConfig, error) {
	row := d.db.QueryRow(
		`SELECT guild_id, enabled, alert_channel_id, created_at, updated_at
		 FROM guild_config WHERE guild_id = ?`, guildID)

	var cfg GuildConfig
	var enabled int
	if err := row.Scan(&cfg.GuildID, &enabled, &cfg.AlertChannelID, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	cfg.Enabled = enabled != 0
	return &cfg, nil
}

func (d *Database) EnsureGuildConfig(guildID string) error {
	now := time.Now().Unix()
	_, err := d.db.Exec(
		`INSERT INTO guild_config (guild_id, enabled, created_at, updated_at)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(guild_id) DO NOTHING`, guildID, now, now)
	return err
}

func (d *Database) SetGuildEnabled(guildID string, enabled bool) error {
	val := 0
	if enabled {
		val = 1
	}
	_, err := d.db.Exec(
		`UPDATE guild_config SET enabled = ?, updated_at = ? WHERE guild_id = ?`,
		val, time.Now().Unix(), guildID)
	return err
}

func (d *Database) SetAlertChannel(guildID, channelID string) error {
	_, err := d.db.Exec(
		`UPDATE guild_config SET alert_channel_id = ?, updated_at = ? WHERE guild_id = ?`,
		channelID, time.Now().Unix(), guildID)
	return err
}

func (d *Database) AddWhitelist(guildID, targetID string) error {
	_, err := d.db.Exec(
		`INSERT INTO whitelist (guild_id, target_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(guild_id, target_id) DO NOTHING`,
		guildID, targetID, time.Now().Unix())
	return err
}

func (d *Database) RemoveWhitelist(guildID, targetID string) error {
	_, err := d.db.Exec(
		`DELETE FROM whitelist WHERE guild_id = ? AND target_id = ?`, guildID, targetID)
	return err
}

func (d *Database) GetWhitelist(guildID string) ([]string, error) {
	rows, err := d.db.Query(`SELECT target_id FROM whitelist WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

func (d *Database) IsWhitelisted(guildID, actorID string) (bool, error) {
	row := d.db.QueryRow(
		`SELECT 1 FROM whitelist WHERE guild_id = ? AND target_id = ?`, guildID, actorID)
	var one int
	if err := row.Scan(&one); err != nil {
		if err := scanErr(err); err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LogThreat persists a write-once threat record. Counts are serialized as a
// JSON object keyed by action-type name.
func (d *Database) LogThreat(record *models.ThreatRecord) error {
	counts := make(map[string]int, len(record.Counts))
	for actionType, n := range record.Counts {
		counts[actionType.String()] = n
	}
	countsJSON, _ := json.Marshal(counts)

	actionTaken := 0
	if record.ActionTaken {
		actionTaken = 1
	}

	_, err := d.db.Exec(
		`INSERT INTO threat_records (id, guild_id, actor_id, threat_type, score, action_taken, counts, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.GuildID, record.ActorID, string(record.ThreatType),
		record.Score, actionTaken, string(countsJSON), record.Timestamp.UnixMilli())
	return err
}

// LatestThreatTime returns the timestamp of the most recent threat record
// for the guild matching the given type. ErrNotFound when none exists.
func (d *Database) LatestThreatTime(guildID string, threatType models.ThreatType) (time.Time, error) {
	row := d.db.QueryRow(
		`SELECT timestamp FROM threat_records
		 WHERE guild_id = ? AND threat_type = ?
		 ORDER BY timestamp DESC LIMIT 1`, guildID, string(threatType))

	var ms int64
	if err := row.Scan(&ms); err != nil {
		return time.Time{}, scanErr(err)
	}
	return time.UnixMilli(ms), nil
}

func (d *Database) SaveSnapshot(row *SnapshotRow) error {
	_, err := d.db.Exec(
		`INSERT INTO snapshots (id, guild_id, snapshot_type, created_at, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.GuildID, row.Type, row.CreatedAt, string(row.Payload))
	return err
}

// FindSnapshot returns the newest snapshot for the guild created strictly
// before the cutoff, preferring preferType when any such snapshot exists.
func (d *Database) FindSnapshot(guildID string, before time.Time, preferType string) (*SnapshotRow, error) {
	cutoff := before.UnixMilli()

	if preferType != "" {
		snap, err := d.findSnapshot(guildID, cutoff, preferType)
		if err == nil {
			return snap, nil
		}
		if err != ErrNotFound {
			return nil, err
		}
	}
	return d.findSnapshot(guildID, cutoff, "")
}

func (d *Database) findSnapshot(guildID string, cutoffMs int64, snapType string) (*SnapshotRow, error) {
	query := `SELECT id, guild_id, snapshot_type, created_at, payload FROM snapshots
		  WHERE guild_id = ? AND created_at < ?`
	args := []interface{}{guildID, cutoffMs}
	if snapType != "" {
		query += ` AND snapshot_type = ?`
		args = append(args, snapType)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	row := d.db.QueryRow(query, args...)

	var snap SnapshotRow
	var payload string
	if err := row.Scan(&snap.ID, &snap.GuildID, &snap.Type, &snap.CreatedAt, &payload); err != nil {
		return nil, scanErr(err)
	}
	snap.Payload = []byte(payload)
	return &snap, nil
}

func (d *Database) PruneSnapshots(guildID string, keep int) error {
	_, err := d.db.Exec(
		`DELETE FROM snapshots WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE guild_id = ? ORDER BY created_at DESC LIMIT ?
		)`, guildID, guildID, keep)
	return err
}

func (d *Database) InsertEventLog(row *EventLogRow) error {
	_, err := d.db.Exec(
		`INSERT INTO event_logs (guild_id, actor_id, threat_type, detection_us, action_taken, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.GuildID, row.ActorID, row.ThreatType, row.DetectionUS, row.ActionTaken, row.Timestamp)
	return err
}
