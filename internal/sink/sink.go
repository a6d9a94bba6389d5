// Package sink writes point datasets. Sinks compose by wrapping: a Tee
// mirrors points to a text stream, BoundaryGated drops points outside its
// filters, Counter counts what reaches the wrapped sink.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wegman-software/geoplaces/internal/geo"
)

// Sink accepts points
type Sink interface {
	Write(p geo.Point) error
}

// WriteCloser is a sink that owns an output stream
type WriteCloser interface {
	Sink
	io.Closer
}

// Containment is a region predicate, satisfied by boundary filters and boxes
type Containment interface {
	Contains(p geo.Point) bool
}

// Func adapts a function to the Sink interface
type Func func(p geo.Point) error

func (f Func) Write(p geo.Point) error {
	return f(p)
}

// Slice collects points in memory
type Slice struct {
	Points []geo.Point
}

func (s *Slice) Write(p geo.Point) error {
	s.Points = append(s.Points, p)
	return nil
}

// Tee forwards every point to Next and also writes a "lat,lon" line to Text
type Tee struct {
	Next Sink
	Text io.Writer
	buf  []byte
}

// NewTee wraps next, mirroring points to text
func NewTee(next Sink, text io.Writer) *Tee {
	return &Tee{Next: next, Text: text}
}

func (t *Tee) Write(p geo.Point) error {
	t.buf = strconv.AppendFloat(t.buf[:0], p.Lat, 'f', -1, 32)
	t.buf = append(t.buf, ',')
	t.buf = strconv.AppendFloat(t.buf, p.Lon, 'f', -1, 32)
	t.buf = append(t.buf, '\n')
	if _, err := t.Text.Write(t.buf); err != nil {
		return fmt.Errorf("tee: %w", err)
	}
	return t.Next.Write(p)
}

// BoundaryGated forwards points contained by at least one filter
type BoundaryGated struct {
	Next    Sink
	Filters []Containment
	dropped int64
}

// NewBoundaryGated wraps next with a union of filters. With no filters
// every point is dropped.
func NewBoundaryGated(next Sink, filters ...Containment) *BoundaryGated {
	return &BoundaryGated{Next: next, Filters: filters}
}

func (g *BoundaryGated) Write(p geo.Point) error {
	for _, f := range g.Filters {
		if f.Contains(p) {
			return g.Next.Write(p)
		}
	}
	g.dropped++
	return nil
}

// Dropped returns the number of points rejected by the filters
func (g *BoundaryGated) Dropped() int64 {
	return g.dropped
}

// Counter counts points passed to Next
type Counter struct {
	Next Sink
	N    int64
}

func (c *Counter) Write(p geo.Point) error {
	if err := c.Next.Write(p); err != nil {
		return err
	}
	c.N++
	return nil
}

// Create opens a file sink for path in the given format ("binary" when
// empty). With debugText a Tee also writes path + ".txt".
func Create(path, format string, debugText bool) (WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var out WriteCloser
	var err error
	switch strings.ToLower(format) {
	case "", "binary":
		out, err = CreateBinary(path)
	case "parquet":
		out, err = CreateParquet(path, defaultParquetBatch)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return nil, err
	}

	if !debugText {
		return out, nil
	}

	txt, err := os.Create(path + ".txt")
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to create debug text output: %w", err)
	}
	text := bufio.NewWriter(txt)
	return &teeCloser{
		Tee:     NewTee(out, text),
		closers: []io.Closer{out, &flushCloser{w: text, c: txt}},
	}, nil
}

type flushCloser struct {
	w *bufio.Writer
	c io.Closer
}

func (f *flushCloser) Close() error {
	if err := f.w.Flush(); err != nil {
		f.c.Close()
		return err
	}
	return f.c.Close()
}

type teeCloser struct {
	*Tee
	closers []io.Closer
}

func (t *teeCloser) Close() error {
	var first error
	for _, c := range t.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
