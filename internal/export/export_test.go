package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-recon-go/internal/types"
)

func sample() (types.Schema, []types.Record) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	dur := 900.0
	status := "completed"
	date := "2024-03-10"
	hour := 9
	schema := types.Schema{
		types.FieldRespondentID,
		types.FieldStartTime,
		types.FieldStatus,
		types.FieldDurationSec,
		types.FieldIsComplete,
		types.FieldStartDate,
		types.FieldStartHour,
		types.FieldSourceFile,
	}
	records := []types.Record{
		{
			RespondentID: types.Number(101),
			StartTime:    &start,
			Status:       &status,
			DurationSec:  &dur,
			IsComplete:   1,
			StartDate:    &date,
			StartHour:    &hour,
			SourceFile:   "wave1.xlsx",
		},
		{RespondentID: types.Text("R-2"), SourceFile: "wave2.csv"},
	}
	return schema, records
}

func TestEncodeClean(t *testing.T) {
	schema, records := sample()
	var buf bytes.Buffer
	require.NoError(t, EncodeClean(&buf, schema, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"respondent_id", "start_time", "status", "duration_sec", "is_complete", "start_date", "start_hour", "source_file"},
		{"101", "2024-03-10 09:00:00", "completed", "900", "1", "2024-03-10", "9", "wave1.xlsx"},
		{"R-2", "", "", "", "0", "", "", "wave2.csv"},
	}, rows)
}

func TestWriteDaily(t *testing.T) {
	path := filepath.Join(t.TempDir(), DailyFile)
	require.NoError(t, WriteDaily(path, []types.DailyBucket{
		{Date: "2024-03-10", Total: 2, Completed: 1, SourceFile: "a.csv"},
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "start_date,total,completed,source_file\n2024-03-10,2,1,a.csv\n", string(data))
}

func TestEncodeMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeMetrics(&buf, map[string]int{"rows_total": 3}))
	assert.Equal(t, "{\n  \"rows_total\": 3\n}\n", buf.String())
}

func TestEncodeParquet(t *testing.T) {
	schema, records := sample()
	var buf bytes.Buffer
	require.NoError(t, EncodeParquet(&buf, schema, records))

	data := buf.Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestArrowSchema(t *testing.T) {
	schema, _ := sample()
	sc := ArrowSchema(schema)
	require.Equal(t, len(schema), sc.NumFields())
	assert.Equal(t, "timestamp[us]", sc.Field(1).Type.String())
	assert.Equal(t, "float64", sc.Field(3).Type.String())
	assert.Equal(t, "int64", sc.Field(4).Type.String())
	assert.False(t, sc.Field(4).Nullable)
	assert.Equal(t, "date32", sc.Field(5).Type.String())
	assert.Equal(t, "utf8", sc.Field(7).Type.String())
}

func TestAuditLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), AuditFile)
	log := NewAuditLog(path)
	at := time.Date(2024, 3, 12, 8, 30, 0, 0, time.UTC)

	require.NoError(t, log.Append(context.Background(), []AuditEntry{
		{Timestamp: at, File: "a.xlsx", Sheet: "Data", Rows: 10, RunID: "run-1"},
	}))
	require.NoError(t, log.Append(context.Background(), []AuditEntry{
		{Timestamp: at, File: "b.csv", Sheet: "b.csv", Rows: 3, RunID: "run-2"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"timestamp,action,file,sheet,rows,run_id",
		"2024-03-12T08:30:00Z,transform_v1,a.xlsx,Data,10,run-1",
		"2024-03-12T08:30:00Z,transform_v1,b.csv,b.csv,3,run-2",
	}, lines)
}

func TestAuditLogGivesUp(t *testing.T) {
	dir := t.TempDir()
	log := NewAuditLog(dir)
	log.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}

	err := log.Append(context.Background(), []AuditEntry{{File: "a.csv"}})
	assert.Error(t, err, "a directory cannot be opened for append")
}
