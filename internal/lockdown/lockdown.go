package lockdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/models"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/sched"
	"github.com/paprika2227/guildguard/internal/state"
)

// Permissions denied on the default role's channel overwrites while locked.
const lockdownDenyMask = discordgo.PermissionSendMessages |
	discordgo.PermissionAddReactions |
	discordgo.PermissionCreatePublicThreads |
	discordgo.PermissionCreatePrivateThreads |
	discordgo.PermissionSendMessagesInThreads

// Permissions stripped from the default role itself while locked.
const defaultRoleStripMask = discordgo.PermissionManageChannels |
	discordgo.PermissionManageWebhooks

// Channels younger than this at lockdown time are presumed attacker-created
// and deleted.
const freshChannelAge = 60 * time.Second

// LockdownState marks an active guild-wide lockdown. Intentionally not
// persisted: if the process restarts mid-lockdown the guild fails open
// rather than staying bricked.
type LockdownState struct {
	Locked   bool
	LockedAt time.Time

	lockedChannels []string
}

// Controller applies and releases guild-wide defensive lockdowns. Entering
// lockdown for an already-locked guild is a no-op; the release timer is not
// extended by further attacks, guaranteeing bounded containment duration.
type Controller struct {
	adapter  platform.Adapter
	clock    sched.Clock
	duration time.Duration
	states   *state.Map[*LockdownState]
}

func NewController(adapter platform.Adapter, clock sched.Clock, duration time.Duration) *Controller {
	return &Controller{
		adapter:  adapter,
		clock:    clock,
		duration: duration,
		states:   state.NewMap[*LockdownState](),
	}
}

func (c *Controller) IsLocked(guildID string) bool {
	s, ok := c.states.Get(guildID)
	return ok && s.Locked
}

// Lockdown puts the guild into containment: deletes very recently created
// channels, denies send/react/thread on every channel for the default role,
// strips channel-management permissions from the default role, and schedules
// the unconditional release. Returns false when the guild was already locked.
func (c *Controller) Lockdown(guildID string, threatType models.ThreatType, counts map[models.ActionType]int) bool {
	lockState := &LockdownState{Locked: true, LockedAt: c.clock.Now()}
	if !c.states.SetIfAbsent(guildID, lockState) {
		logging.Info("[LOCKDOWN] guild %s already locked, skipping", guildID)
		return false
	}

	reason := fmt.Sprintf("Emergency lockdown: %s detected", threatType)
	logging.Warn("[LOCKDOWN] guild %s entering lockdown (%s)", guildID, threatType)

	c.deleteFreshChannels(guildID, reason)
	lockState.lockedChannels = c.denyChannelSends(guildID)
	c.stripDefaultRole(guildID)

	c.clock.AfterFunc(c.duration, func() { c.release(guildID) })
	return true
}

// deleteFreshChannels removes channels created within the last minute,
// in parallel and best-effort; individual failures are logged and ignored.
func (c *Controller) deleteFreshChannels(guildID, reason string) {
	channels, err := c.adapter.GuildChannels(guildID)
	if err != nil {
		logging.Error("[LOCKDOWN] channel list failed for guild %s: %v", guildID, err)
		return
	}

	cutoff := c.clock.Now().Add(-freshChannelAge)

	var wg sync.WaitGroup
	for _, channel := range channels {
		if channel.CreatedAt.IsZero() || channel.CreatedAt.Before(cutoff) {
			continue
		}
		wg.Add(1)
		go func(channelID string) {
			defer wg.Done()
			if err := c.adapter.DeleteChannel(channelID, reason); err != nil {
				logging.Warn("[LOCKDOWN] delete of fresh channel %s failed: %v", channelID, err)
			}
		}(channel.ID)
	}
	wg.Wait()
}

func (c *Controller) denyChannelSends(guildID string) []string {
	channels, err := c.adapter.GuildChannels(guildID)
	if err != nil {
		logging.Error("[LOCKDOWN] channel list failed for guild %s: %v", guildID, err)
		return nil
	}

	locked := make([]string, 0, len(channels))
	for _, channel := range channels {
		// Keep visibility; deny sending, reacting, and thread creation.
		err := c.adapter.EditChannelOverwrite(channel.ID, guildID, 0, lockdownDenyMask)
		if err != nil {
			logging.Warn("[LOCKDOWN] overwrite failed on channel %s: %v", channel.ID, err)
			continue
		}
		locked = append(locked, channel.ID)
	}
	return locked
}

func (c *Controller) stripDefaultRole(guildID string) {
	roles, err := c.adapter.GuildRoles(guildID)
	if err != nil {
		logging.Error("[LOCKDOWN] role list failed for guild %s: %v", guildID, err)
		return
	}

	for _, role := range roles {
		if role.ID != guildID {
			continue
		}
		stripped := role.Permissions &^ int64(defaultRoleStripMask)
		if stripped == role.Permissions {
			return
		}
		if err := c.adapter.EditDefaultRolePermissions(guildID, stripped); err != nil {
			logging.Warn("[LOCKDOWN] default role strip failed for guild %s: %v", guildID, err)
		}
		return
	}
}

// release clears the lockdown flag unconditionally and lifts the overwrites
// this controller applied. Failures lifting overwrites are logged only; the
// flag always clears.
func (c *Controller) release(guildID string) {
	lockState, ok := c.states.Get(guildID)
	c.states.Delete(guildID)
	if !ok {
		return
	}

	for _, channelID := range lockState.lockedChannels {
		if err := c.adapter.EditChannelOverwrite(channelID, guildID, 0, 0); err != nil {
			logging.Warn("[LOCKDOWN] overwrite release failed on channel %s: %v", channelID, err)
		}
	}

	logging.Info("[LOCKDOWN] guild %s lockdown released", guildID)
}
