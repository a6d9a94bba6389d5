package sink

import (
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/wegman-software/geoplaces/internal/geo"
)

const defaultParquetBatch = 100_000

var pointSchema = arrow.NewSchema([]arrow.Field{
	{Name: "lat", Type: arrow.PrimitiveTypes.Float32, Nullable: false},
	{Name: "lon", Type: arrow.PrimitiveTypes.Float32, Nullable: false},
}, nil)

// ParquetWriter writes points as a two-column (lat, lon) Parquet file.
// Values are float32, matching the binary format's precision.
type ParquetWriter struct {
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	batchSize int
	count     int
	total     int64
}

// CreateParquet creates a Parquet point file, flushing a row group every batchSize points
func CreateParquet(path string, batchSize int) (*ParquetWriter, error) {
	if batchSize <= 0 {
		batchSize = defaultParquetBatch
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(false),
	)

	writer, err := pqarrow.NewFileWriter(pointSchema, f, writerProps, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return nil, err
	}

	return &ParquetWriter{
		file:      f,
		writer:    writer,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, pointSchema),
		batchSize: batchSize,
	}, nil
}

// Write appends one point
func (w *ParquetWriter) Write(p geo.Point) error {
	w.builder.Field(0).(*array.Float32Builder).Append(float32(p.Lat))
	w.builder.Field(1).(*array.Float32Builder).Append(float32(p.Lon))

	w.count++
	w.total++
	if w.count >= w.batchSize {
		return w.flush()
	}
	return nil
}

// Count returns the number of points written
func (w *ParquetWriter) Count() int64 {
	return w.total
}

func (w *ParquetWriter) flush() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

// Close flushes the last row group and closes the file
func (w *ParquetWriter) Close() error {
	defer w.builder.Release()
	if err := w.flush(); err != nil {
		w.writer.Close()
		return err
	}
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return err
	}
	// the parquet writer may already have closed the file
	if err := w.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
