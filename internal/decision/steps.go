package decision

import (
	"time"

	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/platform"
)

// Timeout removal falls back to the platform's maximum communication
// disable window.
const maxTimeoutDuration = 28 * 24 * time.Hour

// RemovalOutcome reports which step of the fallback chain removed the
// attacker, if any, and which permissions were found missing along the way.
type RemovalOutcome struct {
	Removed      bool
	Method       string
	MissingPerms []string
}

// removalStep is one entry of the ordered fallback chain. Steps run in
// sequence; the chain short-circuits on the first success.
type removalStep struct {
	name string
	run  func(guildID, actorID, reason string) error
}

func (e *Engine) removalChain() []removalStep {
	return []removalStep{
		{"ban", e.adapter.Ban},
		{"kick", e.adapter.Kick},
		{"timeout", func(guildID, actorID, reason string) error {
			until := e.clock.Now().Add(maxTimeoutDuration)
			return e.adapter.Timeout(guildID, actorID, until, reason)
		}},
	}
}

// removeAttacker walks the ban -> kick -> timeout chain. A vanished target
// counts as removed; a permission failure is recorded and the next step
// tried; a transient failure gets one immediate retry before falling
// through. The chain never returns an error: the worst outcome is
// Removed=false with the missing permissions listed for the alert.
func (e *Engine) removeAttacker(guildID, actorID, reason string) RemovalOutcome {
	var outcome RemovalOutcome

	for _, step := range e.removalChain() {
		err := platform.ClassifyError(step.name, step.run(guildID, actorID, reason))
		if platform.IsTransient(err) {
			logging.Warn("[RESPONSE] %s of %s in guild %s failed transiently, retrying: %v",
				step.name, actorID, guildID, err)
			err = platform.ClassifyError(step.name, step.run(guildID, actorID, reason))
		}

		switch {
		case err == nil:
			outcome.Removed = true
			outcome.Method = step.name
			return outcome
		case platform.IsNotFound(err):
			// Target already gone: nothing left to remove.
			outcome.Removed = true
			outcome.Method = step.name
			return outcome
		case platform.IsPermission(err):
			outcome.MissingPerms = append(outcome.MissingPerms, step.name)
			logging.Warn("[RESPONSE] %s of %s in guild %s denied, trying next step: %v",
				step.name, actorID, guildID, err)
		default:
			logging.Error("[RESPONSE] %s of %s in guild %s failed: %v",
				step.name, actorID, guildID, err)
		}
	}

	return outcome
}
