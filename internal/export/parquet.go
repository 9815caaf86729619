package export

import (
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"survey-recon-go/internal/types"
)

const ParquetFile = "clean.parquet"

// arrowType is the column type of each field. Identifier fields may mix
// numbers and text across files, so they are stored as strings.
func arrowType(f types.Field) arrow.DataType {
	switch f {
	case types.FieldStartTime, types.FieldEndTime:
		return &arrow.TimestampType{Unit: arrow.Microsecond}
	case types.FieldDurationSec:
		return arrow.PrimitiveTypes.Float64
	case types.FieldIsComplete, types.FieldStartHour:
		return arrow.PrimitiveTypes.Int64
	case types.FieldStartDate:
		return arrow.FixedWidthTypes.Date32
	}
	return arrow.BinaryTypes.String
}

// ArrowSchema maps a record schema to an Arrow schema in the same order.
func ArrowSchema(schema types.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema))
	for i, f := range schema {
		fields[i] = arrow.Field{Name: string(f), Type: arrowType(f), Nullable: f != types.FieldIsComplete}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteParquet writes records as a single snappy-compressed row group.
func WriteParquet(path string, schema types.Schema, records []types.Record) error {
	return writeFile(path, func(w io.Writer) error {
		return EncodeParquet(w, schema, records)
	})
}

func EncodeParquet(w io.Writer, schema types.Schema, records []types.Record) error {
	sc := ArrowSchema(schema)
	b := array.NewRecordBuilder(memory.DefaultAllocator, sc)
	defer b.Release()

	for i, f := range schema {
		if err := appendColumn(b.Field(i), f, records); err != nil {
			return err
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(sc, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	return fw.Close()
}

func appendColumn(col array.Builder, f types.Field, records []types.Record) error {
	switch b := col.(type) {
	case *array.StringBuilder:
		for _, r := range records {
			if v := r.Get(f); v.IsNull() {
				b.AppendNull()
			} else {
				b.Append(v.String())
			}
		}
	case *array.TimestampBuilder:
		for _, r := range records {
			t := timeField(r, f)
			if t == nil {
				b.AppendNull()
				continue
			}
			b.Append(arrow.Timestamp(t.UnixMicro()))
		}
	case *array.Float64Builder:
		for _, r := range records {
			if r.DurationSec == nil {
				b.AppendNull()
				continue
			}
			b.Append(*r.DurationSec)
		}
	case *array.Int64Builder:
		for _, r := range records {
			switch {
			case f == types.FieldIsComplete:
				b.Append(int64(r.IsComplete))
			case r.StartHour != nil:
				b.Append(int64(*r.StartHour))
			default:
				b.AppendNull()
			}
		}
	case *array.Date32Builder:
		for _, r := range records {
			if r.StartDate == nil {
				b.AppendNull()
				continue
			}
			d, err := time.Parse(types.DateLayout, *r.StartDate)
			if err != nil {
				return fmt.Errorf("start_date %q: %w", *r.StartDate, err)
			}
			b.Append(arrow.Date32FromTime(d))
		}
	default:
		return fmt.Errorf("no parquet encoding for %s", f)
	}
	return nil
}

func timeField(r types.Record, f types.Field) *time.Time {
	if f == types.FieldEndTime {
		return r.EndTime
	}
	return r.StartTime
}
