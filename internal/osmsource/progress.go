package osmsource

import (
	"context"
	"fmt"
	"time"
)

// ProgressTicker calls a function periodically for progress updates
type ProgressTicker struct {
	ctx      context.Context
	callback func()
	interval time.Duration
}

// NewProgressTicker creates a new progress ticker
func NewProgressTicker(ctx context.Context, interval time.Duration, callback func()) *ProgressTicker {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ProgressTicker{
		ctx:      ctx,
		callback: callback,
		interval: interval,
	}
}

// Run blocks until the context is cancelled
func (p *ProgressTicker) Run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.callback()
		}
	}
}

// ProgressTracker estimates pass progress from the number of nodes seen
type ProgressTracker struct {
	totalNodes  int64
	startTime   time.Time
	description string
}

// NewProgressTracker creates a tracker; totalNodes may be 0 when unknown
func NewProgressTracker(totalNodes int64, description string) *ProgressTracker {
	return &ProgressTracker{
		totalNodes:  totalNodes,
		startTime:   time.Now(),
		description: description,
	}
}

// Progress holds current progress information
type Progress struct {
	Current     int64
	Total       int64
	Percentage  float64
	Elapsed     time.Duration
	ETA         time.Duration
	Throughput  float64 // nodes per second
	Description string
}

// Calculate returns progress for the given node count
func (p *ProgressTracker) Calculate(current int64) Progress {
	return p.calculateAt(current, time.Since(p.startTime))
}

func (p *ProgressTracker) calculateAt(current int64, elapsed time.Duration) Progress {
	var percentage float64
	var eta time.Duration
	var throughput float64

	if elapsed.Seconds() > 0 {
		throughput = float64(current) / elapsed.Seconds()
	}

	if p.totalNodes > 0 && current > 0 {
		percentage = float64(current) / float64(p.totalNodes) * 100
		if percentage < 100 && throughput > 0 {
			remaining := float64(p.totalNodes - current)
			eta = time.Duration(remaining / throughput * float64(time.Second))
		}
	}

	return Progress{
		Current:     current,
		Total:       p.totalNodes,
		Percentage:  percentage,
		Elapsed:     elapsed.Round(time.Second),
		ETA:         eta.Round(time.Second),
		Throughput:  throughput,
		Description: p.description,
	}
}

// FormatETA formats the ETA duration in a human-readable format
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatThroughput formats throughput as human-readable items per second
func FormatThroughput(itemsPerSec float64) string {
	if itemsPerSec >= 1_000_000 {
		return fmt.Sprintf("%.1fM/s", itemsPerSec/1_000_000)
	}
	if itemsPerSec >= 1_000 {
		return fmt.Sprintf("%.1fK/s", itemsPerSec/1_000)
	}
	return fmt.Sprintf("%.0f/s", itemsPerSec)
}

// FormatPercent formats a percentage, or "?" when the total is unknown
func FormatPercent(pct float64) string {
	if pct <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.1f%%", pct)
}
