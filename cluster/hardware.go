package cluster

import (
	"context"
	"strings"
	"time"

	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// CurrentHardware probes the local host and returns the snapshot a
// Builder attaches to its coordinator announcements.
func CurrentHardware(ctx context.Context) (Hardware, error) {
	var hw Hardware
	hw.Arch = runtime.GOARCH

	cpuInfos, err := cpu.Info()
	if err != nil {
		return Hardware{}, err
	}
	if len(cpuInfos) > 0 {
		hw.CpuName = strings.TrimSpace(cpuInfos[0].ModelName)
	}

	cores, err := cpu.Counts(false)
	if err != nil {
		return Hardware{}, err
	}
	hw.Cores = int32(cores)

	threads, err := cpu.Counts(true)
	if err != nil {
		return Hardware{}, err
	}
	hw.Threads = int32(threads)

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Hardware{}, err
	}
	hw.VirtualMemory = vm.Total

	percents, err := cpu.PercentWithContext(ctx, 50*time.Millisecond, false)
	if err == nil && len(percents) > 0 {
		hw.CpuPercent = percents[0]
	}

	return hw, nil
}
