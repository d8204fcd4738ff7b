package recovery

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/paprika2227/guildguard/internal/database"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/sched"
)

const SnapshotTypeFull = "full"

// snapshotsKept bounds how many snapshots are retained per guild.
const snapshotsKept = 48

// SnapshotPayload is the serialized structural state of a guild: enough to
// recreate deleted channels and roles after a nuke.
type SnapshotPayload struct {
	GuildID                string            `json:"guild_id"`
	Channels               []ChannelSnapshot `json:"channels"`
	Roles                  []RoleSnapshot    `json:"roles"`
	DefaultRolePermissions int64             `json:"default_role_permissions"`
}

type ChannelSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Position int    `json:"position"`
}

type RoleSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions int64  `json:"permissions"`
	Position    int    `json:"position"`
}

// Snapshotter periodically captures guild structure into the store so the
// selector has something pre-attack to choose from.
type Snapshotter struct {
	adapter platform.Adapter
	db      *database.Database
	clock   sched.Clock
}

func NewSnapshotter(adapter platform.Adapter, db *database.Database, clock sched.Clock) *Snapshotter {
	return &Snapshotter{adapter: adapter, db: db, clock: clock}
}

func (s *Snapshotter) Capture(guildID string) error {
	channels, err := s.adapter.GuildChannels(guildID)
	if err != nil {
		return err
	}
	roles, err := s.adapter.GuildRoles(guildID)
	if err != nil {
		return err
	}

	payload := SnapshotPayload{GuildID: guildID}
	for _, c := range channels {
		payload.Channels = append(payload.Channels, ChannelSnapshot{
			ID: c.ID, Name: c.Name, Type: c.Type, Position: c.Position,
		})
	}
	for _, r := range roles {
		if r.ID == guildID {
			payload.DefaultRolePermissions = r.Permissions
			continue
		}
		payload.Roles = append(payload.Roles, RoleSnapshot{
			ID: r.ID, Name: r.Name, Color: r.Color,
			Permissions: r.Permissions, Position: r.Position,
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	row := &database.SnapshotRow{
		ID:        uuid.New().String(),
		GuildID:   guildID,
		Type:      SnapshotTypeFull,
		CreatedAt: s.clock.Now().UnixMilli(),
		Payload:   data,
	}
	if err := s.db.SaveSnapshot(row); err != nil {
		return err
	}

	if err := s.db.PruneSnapshots(guildID, snapshotsKept); err != nil {
		logging.Warn("[SNAPSHOT] prune failed for guild %s: %v", guildID, err)
	}
	return nil
}

// StartSchedule captures every guild returned by listGuilds on a fixed
// interval.
func (s *Snapshotter) StartSchedule(interval time.Duration, listGuilds func() []string) {
	var run func()
	run = func() {
		for _, guildID := range listGuilds() {
			if err := s.Capture(guildID); err != nil {
				logging.Warn("[SNAPSHOT] capture failed for guild %s: %v", guildID, err)
			}
		}
		s.clock.AfterFunc(interval, run)
	}
	s.clock.AfterFunc(interval, run)
}
