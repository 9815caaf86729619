// Package normalize turns tagged raw cells into canonical values: timestamps,
// durations in seconds and status classifications.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"survey-recon-go/internal/types"
)

// DefaultMinutesThreshold: bare numeric durations at or below it are minutes,
// above it seconds.
const DefaultMinutesThreshold = 300.0

// DefaultMaxDurationSec is the outlier bound for duration_sec (8 hours).
const DefaultMaxDurationSec = 28800.0

const (
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
)

var (
	completedTokens  = map[string]bool{"true": true, "1": true, "yes": true, "y": true}
	incompleteTokens = map[string]bool{"false": true, "0": true, "no": true, "n": true}
)

// Datetime parses a cell into a UTC timestamp, preferring day-first for
// ambiguous dates. It returns nil for anything it cannot read.
func Datetime(v types.Value) *time.Time {
	switch v.Kind {
	case types.KindTimestamp:
		t := v.Time
		return &t
	case types.KindText:
		return parseText(v.Text)
	}
	return nil
}

// dd.mm.yyyy and dd-mm-yyyy with an optional time part. dateparse reads
// dotted dates month-first and rejects dashed ones, so both are rewritten
// to the slash form it parses day-first.
var dottedDate = regexp.MustCompile(`^(\d{1,2})([.-])(\d{1,2})([.-])(\d{4}|\d{2})((?:[ T].*)?)$`)

func parseText(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || isShortNumber(s) {
		return nil
	}
	if m := dottedDate.FindStringSubmatch(s); m != nil && m[2] == m[4] {
		s = m[1] + "/" + m[3] + "/" + m[5] + m[6]
	}
	t, err := dateparse.ParseIn(s, time.UTC,
		dateparse.PreferMonthFirst(false),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// dateparse reads short digit strings as years or epochs; a survey cell
// holding "45" is not a date.
func isShortNumber(s string) bool {
	if len(s) >= 8 {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Duration converts one duration cell to seconds. Clock values are
// h*3600+m*60+s; numbers at or below minutesThreshold are minutes, larger
// numbers are already seconds.
func Duration(v types.Value, minutesThreshold float64) *float64 {
	var f float64
	switch v.Kind {
	case types.KindTimeOfDay:
		h, m, s := v.HMS()
		secs := float64(h*3600 + m*60 + s)
		return &secs
	case types.KindNumber:
		f = v.Number
	case types.KindText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f <= minutesThreshold {
		f *= 60
	}
	return &f
}

// DurationInputs carries the resolved columns used for durations. A nil
// slice means the column was not resolved.
type DurationInputs struct {
	Duration []types.Value
	Start    []types.Value
	End      []types.Value
}

// Durations computes duration_sec for n rows. The duration column is used
// first; rows it leaves null fall back to end-start when both are resolved.
// The fallback may be negative and never overrides a direct value.
func Durations(n int, in DurationInputs, minutesThreshold float64) []*float64 {
	out := make([]*float64, n)
	if in.Duration != nil {
		for i := 0; i < n && i < len(in.Duration); i++ {
			out[i] = Duration(in.Duration[i], minutesThreshold)
		}
	}
	if in.Start == nil || in.End == nil {
		return out
	}
	for i := 0; i < n; i++ {
		if out[i] != nil || i >= len(in.Start) || i >= len(in.End) {
			continue
		}
		start, end := Datetime(in.Start[i]), Datetime(in.End[i])
		if start == nil || end == nil {
			continue
		}
		secs := end.Sub(*start).Seconds()
		out[i] = &secs
	}
	return out
}

// Status maps yes/no style tokens to completed/incomplete and passes any
// other non-null value through as text.
func Status(v types.Value) *string {
	if v.IsNull() {
		return nil
	}
	raw := v.String()
	tok := strings.ToLower(strings.TrimSpace(raw))
	var out string
	switch {
	case completedTokens[tok]:
		out = StatusCompleted
	case incompleteTokens[tok]:
		out = StatusIncomplete
	default:
		out = raw
	}
	return &out
}
