package metrics

import (
	"fmt"
	"sync/atomic"
)

// Registry holds the engine's operational counters. All counters are
// monotonic and lock-free; Export renders them in a flat text form.
type Registry struct {
	EventsIngested     atomic.Uint64
	ThreatsDetected    atomic.Uint64
	RemovalsExecuted   atomic.Uint64
	RemovalsFailed     atomic.Uint64
	LockdownsActivated atomic.Uint64
	RecoveriesRun      atomic.Uint64
	AlertsSent         atomic.Uint64
	PatternFindings    atomic.Uint64
	SpamChannelsKilled atomic.Uint64
}

var globalRegistry *Registry

func InitGlobalRegistry() {
	globalRegistry = &Registry{}
}

func Get() *Registry {
	if globalRegistry == nil {
		InitGlobalRegistry()
	}
	return globalRegistry
}

func (r *Registry) Export() string {
	host := SampleHost()
	return fmt.Sprintf(
		"events_ingested %d\nthreats_detected %d\nremovals_executed %d\nremovals_failed %d\nlockdowns_activated %d\nrecoveries_run %d\nalerts_sent %d\npattern_findings %d\nspam_channels_killed %d\ncpu_percent %.1f\nmem_used_percent %.1f\n",
		r.EventsIngested.Load(),
		r.ThreatsDetected.Load(),
		r.RemovalsExecuted.Load(),
		r.RemovalsFailed.Load(),
		r.LockdownsActivated.Load(),
		r.RecoveriesRun.Load(),
		r.AlertsSent.Load(),
		r.PatternFindings.Load(),
		r.SpamChannelsKilled.Load(),
		host.CPUPercent,
		host.MemPercent,
	)
}
