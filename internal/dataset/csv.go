package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"survey-recon-go/internal/types"
)

// Markers that spreadsheet tools write for a missing value.
var missingMarkers = map[string]bool{
	"na": true, "n/a": true, "nan": true, "null": true, "none": true, "#n/a": true,
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// ReadCSV reads a delimited export. The first row is the header and rows may
// be ragged.
func ReadCSV(path string) (types.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.RawTable{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) (types.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.RawTable{}, nil
	}
	if err != nil {
		return types.RawTable{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := types.RawTable{Headers: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.RawTable{}, fmt.Errorf("read csv: %w", err)
		}
		row := make([]types.Value, len(rec))
		blank := true
		for i, cell := range rec {
			row[i] = csvCell(cell)
			if !row[i].IsNull() {
				blank = false
			}
		}
		if blank {
			continue
		}
		for len(table.Headers) < len(row) {
			table.Headers = append(table.Headers, "")
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func csvCell(cell string) types.Value {
	s := strings.TrimSpace(cell)
	if s == "" || missingMarkers[strings.ToLower(s)] {
		return types.Null()
	}
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		sec := 0
		if m[3] != "" {
			sec, _ = strconv.Atoi(m[3])
		}
		if h < 24 && mi < 60 && sec < 60 {
			return types.TimeOfDay(h, mi, sec)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.Number(f)
	}
	return types.Text(cell)
}
