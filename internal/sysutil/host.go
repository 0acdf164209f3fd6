package sysutil

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostStats is a snapshot of process and host figures shown by the status
// and admin system views.
type HostStats struct {
	Goroutines    int
	HeapAllocMB   float64
	CPUPercent    float64
	MemoryPercent float64
	MemoryUsedMB  float64
	MemoryTotalMB float64
	GoVersion     string
}

// systemProvider abstracts gopsutil so tests can supply fixed figures.
type systemProvider interface {
	CPUPercent() (float64, error)
	Memory() (used, total uint64, percent float64, err error)
}

type gopsutilProvider struct {
	sample time.Duration
}

func (p gopsutilProvider) CPUPercent() (float64, error) {
	values, err := cpu.Percent(p.sample, false)
	if err != nil || len(values) == 0 {
		return 0, err
	}
	return values[0], nil
}

func (gopsutilProvider) Memory() (uint64, uint64, float64, error) {
	stat, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, 0, err
	}
	return stat.Used, stat.Total, stat.UsedPercent, nil
}

// HostCollector reads HostStats. The zero value is not usable; call
// NewHostCollector.
type HostCollector struct {
	provider systemProvider
}

// NewHostCollector samples CPU usage over a short window on each call.
func NewHostCollector() *HostCollector {
	return &HostCollector{provider: gopsutilProvider{sample: 200 * time.Millisecond}}
}

// Collect returns the current figures. Host figures that cannot be read are
// left zero; runtime figures are always present.
func (c *HostCollector) Collect() HostStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	out := HostStats{
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(ms.HeapAlloc) / (1 << 20),
		GoVersion:   runtime.Version(),
	}
	if c == nil || c.provider == nil {
		return out
	}
	if v, err := c.provider.CPUPercent(); err == nil {
		out.CPUPercent = v
	}
	if used, total, pct, err := c.provider.Memory(); err == nil {
		out.MemoryUsedMB = float64(used) / (1 << 20)
		out.MemoryTotalMB = float64(total) / (1 << 20)
		out.MemoryPercent = pct
	}
	return out
}
