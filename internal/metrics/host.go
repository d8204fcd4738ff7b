package metrics

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSample is a point-in-time view of process-host resource usage,
// reported alongside the engine counters.
type HostSample struct {
	CPUPercent float64
	MemPercent float64
}

func SampleHost() HostSample {
	sample := HostSample{}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		sample.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		sample.MemPercent = vm.UsedPercent
	}

	return sample
}
