package metrics

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

const gib = 1024 * 1024 * 1024

// Snapshot holds one reading of process and system resource usage
type Snapshot struct {
	ProcessRSS        uint64  // resident set of this process, bytes
	ProcessCPUPercent float64 // can exceed 100 on multi-core
	CPUPercent        float64 // system-wide
	MemoryUsed        uint64
	MemoryTotal       uint64
	MemoryPercent     float64
	Timestamp         time.Time
}

// Fields renders the snapshot as structured log fields
func (s *Snapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.String("rss", FormatBytes(s.ProcessRSS)),
		zap.Float64("proc_cpu", round1(s.ProcessCPUPercent)),
		zap.Float64("sys_cpu", round1(s.CPUPercent)),
		zap.Float64("mem_pct", round1(s.MemoryPercent)),
		zap.String("mem_used", FormatBytes(s.MemoryUsed)),
		zap.String("mem_total", FormatBytes(s.MemoryTotal)),
	}
}

// Collector reads resource usage, once on demand or periodically
type Collector struct {
	interval time.Duration
	logger   *zap.Logger
	proc     *process.Process

	mu   sync.RWMutex
	last *Snapshot
}

// NewCollector creates a collector. Intervals below one second default to
// 30 seconds for periodic collection.
func NewCollector(interval time.Duration, logger *zap.Logger) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}

	// nil when the process cannot be inspected; process fields stay zero
	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		interval: interval,
		logger:   logger,
		proc:     proc,
	}
}

// Start logs a snapshot every interval until ctx is cancelled
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Log("periodic")

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return
		case <-ticker.C:
			c.Log("periodic")
		}
	}
}

// Last returns the most recent snapshot, nil before the first one
func (c *Collector) Last() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Collect reads current usage. Calls are serialized: the process handle
// keeps CPU time state between readings.
func (c *Collector) Collect() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Snapshot{Timestamp: time.Now()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}

	if c.proc != nil {
		if pct, err := c.proc.Percent(0); err == nil {
			s.ProcessCPUPercent = pct
		}
		if info, err := c.proc.MemoryInfo(); err == nil {
			s.ProcessRSS = info.RSS
		}
	}

	if vmem, err := mem.VirtualMemory(); err == nil {
		s.MemoryUsed = vmem.Used
		s.MemoryTotal = vmem.Total
		s.MemoryPercent = vmem.UsedPercent
	}

	c.last = s
	return s
}

// Log collects a snapshot and logs it under stage
func (c *Collector) Log(stage string) *Snapshot {
	s := c.Collect()
	c.logger.Info("Resource usage", append([]zap.Field{zap.String("stage", stage)}, s.Fields()...)...)
	return s
}

// FormatBytes formats a byte count as GB or MB with one decimal place
func FormatBytes(b uint64) string {
	if b >= gib {
		return fmt.Sprintf("%.1f GB", float64(b)/gib)
	}
	return fmt.Sprintf("%.1f MB", float64(b)/(1024*1024))
}

func round1(f float64) float64 {
	return float64(int64(f*10+0.5)) / 10
}
