package auditwatch

import (
	"time"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/platform"
	"github.com/paprika2227/guildguard/internal/sched"
)

const (
	fetchAttempts = 3
	fetchLimit    = 50
)

// Backoff schedule between failed fetch attempts.
var backoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// fetchWithRetry pulls the guild's recent audit entries, retrying transient
// failures on the backoff schedule. Permission errors are returned
// immediately without retry; the caller stops monitoring that guild. After
// the final attempt the last error is returned.
func fetchWithRetry(adapter platform.Adapter, clock sched.Clock, guildID string) ([]platform.AuditEntry, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			clock.Sleep(backoff[attempt-1])
		}

		entries, err := adapter.FetchAuditLog(guildID, fetchLimit)
		err = platform.ClassifyError("audit_fetch", err)
		if err == nil {
			return entries, nil
		}
		if platform.IsPermission(err) {
			return nil, err
		}

		lastErr = err
		logging.Warn("[AUDIT] fetch for guild %s failed (attempt %d/%d): %v",
			guildID, attempt+1, fetchAttempts, err)
	}
	return nil, lastErr
}
