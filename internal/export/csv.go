package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"survey-recon-go/internal/types"
)

const (
	CleanCSVFile = "clean.csv"
	DailyFile    = "daily_summary.csv"
)

// WriteClean writes records as CSV with one column per schema field, in
// schema order. Null cells are empty.
func WriteClean(path string, schema types.Schema, records []types.Record) error {
	return writeFile(path, func(w io.Writer) error {
		return EncodeClean(w, schema, records)
	})
}

func EncodeClean(w io.Writer, schema types.Schema, records []types.Record) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(schema))
	for i, f := range schema {
		header[i] = string(f)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(schema))
	for _, r := range records {
		for i, f := range schema {
			row[i] = r.Get(f).String()
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDaily writes the per-file daily rollups.
func WriteDaily(path string, buckets []types.DailyBucket) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"start_date", "total", "completed", "source_file"}); err != nil {
			return err
		}
		for _, b := range buckets {
			rec := []string{b.Date, strconv.Itoa(b.Total), strconv.Itoa(b.Completed), b.SourceFile}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
