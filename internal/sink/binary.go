package sink

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/wegman-software/geoplaces/internal/geo"
)

// RecordSize is the size of one point record: float32 lat, float32 lon, little endian
const RecordSize = 8

// ErrPartialRecord is returned when the input length is not a multiple of RecordSize
var ErrPartialRecord = errors.New("truncated point record")

// BinaryWriter appends fixed-size point records. There is no header; the
// file length alone gives the record count.
type BinaryWriter struct {
	w      *bufio.Writer
	closer io.Closer
	buf    [RecordSize]byte
	count  int64
}

// NewBinaryWriter writes records to w. Close flushes but does not close w.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: bufio.NewWriterSize(w, 1<<20)}
}

// CreateBinary creates (truncating) a binary point file
func CreateBinary(path string) (*BinaryWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	bw := NewBinaryWriter(f)
	bw.closer = f
	return bw, nil
}

// Write appends one record
func (b *BinaryWriter) Write(p geo.Point) error {
	EncodePoint(b.buf[:], p)
	if _, err := b.w.Write(b.buf[:]); err != nil {
		return err
	}
	b.count++
	return nil
}

// Count returns the number of records written
func (b *BinaryWriter) Count() int64 {
	return b.count
}

// Close flushes buffered records and closes the file if the writer owns it
func (b *BinaryWriter) Close() error {
	if err := b.w.Flush(); err != nil {
		if b.closer != nil {
			b.closer.Close()
		}
		return err
	}
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// EncodePoint writes p into dst, which must hold RecordSize bytes
func EncodePoint(dst []byte, p geo.Point) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(float32(p.Lat)))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(float32(p.Lon)))
}

// DecodePoint reads one record from src
func DecodePoint(src []byte) geo.Point {
	lat := math.Float32frombits(binary.LittleEndian.Uint32(src[0:4]))
	lon := math.Float32frombits(binary.LittleEndian.Uint32(src[4:8]))
	return geo.Point{Lat: float64(lat), Lon: float64(lon)}
}

// DecodePoints decodes a whole point file held in memory
func DecodePoints(data []byte) ([]geo.Point, error) {
	if len(data)%RecordSize != 0 {
		return nil, fmt.Errorf("%d bytes: %w", len(data), ErrPartialRecord)
	}
	points := make([]geo.Point, 0, len(data)/RecordSize)
	for off := 0; off < len(data); off += RecordSize {
		points = append(points, DecodePoint(data[off:off+RecordSize]))
	}
	return points, nil
}

// ReadPoints reads records until EOF
func ReadPoints(r io.Reader) ([]geo.Point, error) {
	br := bufio.NewReader(r)
	var points []geo.Point
	var buf [RecordSize]byte
	for {
		_, err := io.ReadFull(br, buf[:])
		if err == io.EOF {
			return points, nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("after %d records: %w", len(points), ErrPartialRecord)
		}
		if err != nil {
			return nil, err
		}
		points = append(points, DecodePoint(buf[:]))
	}
}
