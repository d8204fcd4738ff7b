package platform

import (
	"fmt"
	"sync"
	"time"
)

// FakeAdapter is an in-memory Adapter used by package tests. Mutations are
// recorded as "op:arg1:arg2" strings; per-operation errors are injected via
// Errs. Audit fetches consume AuditResponses in order, letting tests script
// transient-then-success sequences.
type FakeAdapter struct {
	mu sync.Mutex

	BotID        string
	Owners       map[string]string
	Roles        map[string][]Role
	Channels     map[string][]Channel
	MemberRoleID map[string][]string

	AuditResponses []AuditResponse
	auditCalls     int

	Errs  map[string]error
	Calls []string

	nextID int
}

type AuditResponse struct {
	Entries []AuditEntry
	Err     error
}

func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		BotID:        "bot",
		Owners:       make(map[string]string),
		Roles:        make(map[string][]Role),
		Channels:     make(map[string][]Channel),
		MemberRoleID: make(map[string][]string),
		Errs:         make(map[string]error),
	}
}

func (f *FakeAdapter) record(op string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := op
	for _, a := range args {
		call += ":" + a
	}
	f.Calls = append(f.Calls, call)
	return f.Errs[op]
}

// CallsFor returns recorded calls whose op matches.
func (f *FakeAdapter) CallsFor(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	prefix := op + ":"
	for _, c := range f.Calls {
		if c == op || len(c) > len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeAdapter) BotUserID() string { return f.BotID }

func (f *FakeAdapter) GuildOwnerID(guildID string) (string, error) {
	return f.Owners[guildID], nil
}

func (f *FakeAdapter) GuildRoles(guildID string) ([]Role, error) {
	if err := f.Errs["guild_roles"]; err != nil {
		return nil, err
	}
	return f.Roles[guildID], nil
}

func (f *FakeAdapter) GuildChannels(guildID string) ([]Channel, error) {
	if err := f.Errs["guild_channels"]; err != nil {
		return nil, err
	}
	return f.Channels[guildID], nil
}

func (f *FakeAdapter) MemberRoles(guildID, userID string) ([]string, error) {
	if err := f.Errs["member_roles"]; err != nil {
		return nil, err
	}
	return f.MemberRoleID[guildID+":"+userID], nil
}

func (f *FakeAdapter) FetchAuditLog(guildID string, limit int) ([]AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "audit_fetch:"+guildID)
	if f.auditCalls < len(f.AuditResponses) {
		resp := f.AuditResponses[f.auditCalls]
		f.auditCalls++
		return resp.Entries, resp.Err
	}
	return nil, nil
}

func (f *FakeAdapter) Ban(guildID, userID, reason string) error {
	return f.record("ban", guildID, userID)
}

func (f *FakeAdapter) Kick(guildID, userID, reason string) error {
	return f.record("kick", guildID, userID)
}

func (f *FakeAdapter) Timeout(guildID, userID string, until time.Time, reason string) error {
	return f.record("timeout", guildID, userID)
}

func (f *FakeAdapter) RemoveAllRoles(guildID, userID, reason string) error {
	return f.record("remove_all_roles", guildID, userID)
}

func (f *FakeAdapter) EditRolePermissions(guildID, roleID string, permissions int64) error {
	return f.record("edit_role_permissions", guildID, roleID)
}

func (f *FakeAdapter) SetRolePosition(guildID, roleID string, position int) error {
	return f.record("set_role_position", guildID, roleID, fmt.Sprintf("%d", position))
}

func (f *FakeAdapter) DeleteChannel(channelID, reason string) error {
	return f.record("delete_channel", channelID)
}

func (f *FakeAdapter) EditChannelOverwrite(channelID, roleID string, allow, deny int64) error {
	return f.record("edit_channel_overwrite", channelID, roleID, fmt.Sprintf("%d", deny))
}

func (f *FakeAdapter) EditDefaultRolePermissions(guildID string, permissions int64) error {
	return f.record("edit_default_role", guildID)
}

func (f *FakeAdapter) CreateChannel(guildID, name string, channelType, position int) (string, error) {
	if err := f.record("create_channel", guildID, name); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("created-%d", f.nextID), nil
}

func (f *FakeAdapter) CreateRole(guildID, name string, permissions int64, color, position int) (string, error) {
	if err := f.record("create_role", guildID, name); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("created-role-%d", f.nextID), nil
}
