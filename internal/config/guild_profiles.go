package config

import "sync"

// GuildProfile is the in-memory per-guild view of the persisted
// configuration: whether protection is on, where alerts go, and who may
// perform privileged bursts without being scored. Handlers and timer
// goroutines touch the same profile concurrently, so every field behind
// the mutex is reached through accessors only.
type GuildProfile struct {
	GuildID string

	mu             sync.RWMutex
	enabled        bool
	alertChannelID string
	ownerID        string
	whitelist      map[string]struct{}
}

func (p *GuildProfile) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

func (p *GuildProfile) Owner() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ownerID
}

func (p *GuildProfile) AlertChannel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.alertChannelID
}

type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*GuildProfile
}

var globalProfileStore *ProfileStore

func InitProfileStore() {
	globalProfileStore = &ProfileStore{
		profiles: make(map[string]*GuildProfile),
	}
}

func GetProfileStore() *ProfileStore {
	if globalProfileStore == nil {
		InitProfileStore()
	}
	return globalProfileStore
}

func (ps *ProfileStore) Get(guildID string) *GuildProfile {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.profiles[guildID]
}

func (ps *ProfileStore) GetOrCreate(guildID string) *GuildProfile {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if profile, ok := ps.profiles[guildID]; ok {
		return profile
	}

	profile := &GuildProfile{
		GuildID:   guildID,
		enabled:   true,
		whitelist: make(map[string]struct{}),
	}
	ps.profiles[guildID] = profile
	return profile
}

func (ps *ProfileStore) IsWhitelisted(guildID, actorID string) bool {
	profile := ps.Get(guildID)
	if profile == nil {
		return false
	}

	profile.mu.RLock()
	defer profile.mu.RUnlock()
	_, ok := profile.whitelist[actorID]
	return ok
}

func (ps *ProfileStore) AddWhitelist(guildID, actorID string) {
	profile := ps.GetOrCreate(guildID)
	profile.mu.Lock()
	profile.whitelist[actorID] = struct{}{}
	profile.mu.Unlock()
}

func (ps *ProfileStore) RemoveWhitelist(guildID, actorID string) {
	profile := ps.Get(guildID)
	if profile == nil {
		return
	}
	profile.mu.Lock()
	delete(profile.whitelist, actorID)
	profile.mu.Unlock()
}

// SetEnabled flips detection for a guild. The engine also calls this to
// force-re-enable a guild found disabled mid-attack.
func (ps *ProfileStore) SetEnabled(guildID string, enabled bool) {
	profile := ps.GetOrCreate(guildID)
	profile.mu.Lock()
	profile.enabled = enabled
	profile.mu.Unlock()
}

func (ps *ProfileStore) SetOwner(guildID, ownerID string) {
	profile := ps.GetOrCreate(guildID)
	profile.mu.Lock()
	profile.ownerID = ownerID
	profile.mu.Unlock()
}

func (ps *ProfileStore) SetAlertChannel(guildID, channelID string) {
	profile := ps.GetOrCreate(guildID)
	profile.mu.Lock()
	profile.alertChannelID = channelID
	profile.mu.Unlock()
}
