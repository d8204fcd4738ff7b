package config

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]*GuildProfile)}
}

func TestProfileDefaultsEnabled(t *testing.T) {
	store := newTestStore()
	profile := store.GetOrCreate("g1")

	assert.True(t, profile.IsEnabled())
	assert.Empty(t, profile.Owner())
	assert.Empty(t, profile.AlertChannel())
}

func TestScalarAccessors(t *testing.T) {
	store := newTestStore()

	store.SetEnabled("g1", false)
	store.SetOwner("g1", "owner")
	store.SetAlertChannel("g1", "chan-1")

	profile := store.Get("g1")
	assert.False(t, profile.IsEnabled())
	assert.Equal(t, "owner", profile.Owner())
	assert.Equal(t, "chan-1", profile.AlertChannel())
}

func TestWhitelistAddRemove(t *testing.T) {
	store := newTestStore()

	store.AddWhitelist("g1", "trusted")
	assert.True(t, store.IsWhitelisted("g1", "trusted"))
	assert.False(t, store.IsWhitelisted("g1", "other"))
	assert.False(t, store.IsWhitelisted("g2", "trusted"))

	store.RemoveWhitelist("g1", "trusted")
	assert.False(t, store.IsWhitelisted("g1", "trusted"))
}

// Gateway handlers write owner/enabled while timer goroutines read them;
// run both sides concurrently so the race detector covers every accessor.
func TestConcurrentScalarAccess(t *testing.T) {
	store := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				guildID := fmt.Sprintf("g%d", j%4)
				store.SetOwner(guildID, "owner")
				store.SetEnabled(guildID, j%2 == 0)
				store.SetAlertChannel(guildID, "chan")
				store.AddWhitelist(guildID, "trusted")
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				profile := store.GetOrCreate(fmt.Sprintf("g%d", j%4))
				_ = profile.IsEnabled()
				_ = profile.Owner()
				_ = profile.AlertChannel()
				_ = store.IsWhitelisted(profile.GuildID, "trusted")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "owner", store.Get("g0").Owner())
}
