package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	AuditFile   = "audit_log.csv"
	AuditAction = "transform_v1"
)

var auditHeader = []string{"timestamp", "action", "file", "sheet", "rows", "run_id"}

// AuditEntry is one processed file.
type AuditEntry struct {
	Timestamp time.Time
	File      string
	Sheet     string
	Rows      int
	RunID     string
}

// AuditLog appends entries to a CSV that is never rewritten. The header is
// written only when the file is empty.
type AuditLog struct {
	path       string
	newBackOff func() backoff.BackOff
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{
		path: path,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = 5 * time.Second
			return bo
		},
	}
}

// Append writes entries in one batch, retrying transient I/O errors.
func (a *AuditLog) Append(ctx context.Context, entries []AuditEntry) error {
	var lastErr error
	op := func() error {
		if err := a.append(entries); err != nil {
			lastErr = err
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(a.newBackOff(), ctx)); err != nil {
		if lastErr != nil {
			return fmt.Errorf("append audit log: %w", lastErr)
		}
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (a *AuditLog) append(entries []AuditEntry) error {
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		cw.Write(auditHeader)
	}
	for _, e := range entries {
		cw.Write([]string{
			e.Timestamp.UTC().Format(time.RFC3339),
			AuditAction,
			e.File,
			e.Sheet,
			strconv.Itoa(e.Rows),
			e.RunID,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
