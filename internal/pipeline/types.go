package pipeline

import (
	"time"

	"github.com/wegman-software/geoplaces/internal/osmsource"
	"github.com/wegman-software/geoplaces/internal/sink"
)

// pass is one scan over the source with the handler that consumes it
type pass struct {
	opts   osmsource.PassOptions
	handle osmsource.Handler
}

// output is one exported file and the point stream feeding it
type output struct {
	name   string
	file   string
	format string

	// gated outputs only receive points inside at least one filter
	gated   bool
	filters []sink.Containment

	write func(s sink.Sink) error
}

// PassStats holds statistics of one pass over the input
type PassStats struct {
	Name      string
	Nodes     int64
	Ways      int64
	Relations int64
	Duration  time.Duration
}

// OutputStats holds statistics of one written file
type OutputStats struct {
	Name    string
	Path    string
	Points  int64 // records written
	Dropped int64 // rejected by boundary or bbox filters
}

// RoadStats summarizes the road sampler
type RoadStats struct {
	HighwaysSeen int
	RoadsKept    int
	TotalKm      uint64
	Points       int
	Dropped      int
}

// RunStats holds combined statistics of a generation run
type RunStats struct {
	Passes  []PassStats
	Roads   RoadStats
	Outputs []OutputStats
}

// TotalPoints returns the number of records written over all outputs
func (s *RunStats) TotalPoints() int64 {
	var n int64
	for _, o := range s.Outputs {
		n += o.Points
	}
	return n
}
