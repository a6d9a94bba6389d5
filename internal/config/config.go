package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/wegman-software/geoplaces/internal/geo"
)

// BBox represents a geographic bounding box
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
	IsSet                          bool
}

// Contains checks if a point is within the bounding box. An unset box
// contains everything.
func (b *BBox) Contains(p geo.Point) bool {
	if b == nil || !b.IsSet {
		return true
	}
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// ParseBBox parses a bbox string in format "minlon,minlat,maxlon,maxlat"
func ParseBBox(s string) (*BBox, error) {
	if s == "" {
		return &BBox{IsSet: false}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values: minlon,minlat,maxlon,maxlat")
	}

	var coords [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox coordinate %q: %w", p, err)
		}
		coords[i] = v
	}

	bbox := &BBox{
		MinLon: coords[0],
		MinLat: coords[1],
		MaxLon: coords[2],
		MaxLat: coords[3],
		IsSet:  true,
	}

	if bbox.MinLon > bbox.MaxLon {
		return nil, fmt.Errorf("minlon (%f) must be <= maxlon (%f)", bbox.MinLon, bbox.MaxLon)
	}
	if bbox.MinLat > bbox.MaxLat {
		return nil, fmt.Errorf("minlat (%f) must be <= maxlat (%f)", bbox.MinLat, bbox.MaxLat)
	}

	return bbox, nil
}

// Config holds the global configuration for a generation run
type Config struct {
	// Input settings
	InputFile     string
	ExpectedNodes int64 // Node count of the input, used for progress ETA only
	BBox          *BBox // Restricts every exported point when set

	// Output settings
	OutputDir string
	JobFile   string // YAML job description; empty uses DefaultJob
	DebugText bool   // Also write "lat,lon" text files next to each output

	// Processing settings
	Workers          int // PBF decoder goroutines
	Seed             int64
	ProgressInterval time.Duration

	// Logging and metrics
	Verbose         bool
	LogFile         string        // Path to log file (empty = no file logging)
	MetricsInterval time.Duration // Interval for system metrics logging (0 = off)

	Job *Job
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputDir:        ".",
		ExpectedNodes:    0,
		Workers:          runtime.NumCPU(),
		Seed:             0, // 0 = seeded from the clock
		ProgressInterval: 10 * time.Second,
		MetricsInterval:  0,
		Job:              DefaultJob(),
	}
}

// OutputPath resolves an output file name against OutputDir
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.ExpectedNodes < 0 {
		return fmt.Errorf("expected node count must not be negative")
	}
	if c.Job == nil {
		return fmt.Errorf("no job configured")
	}
	if err := c.Job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}
	return nil
}
