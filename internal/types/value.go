package types

import (
	"fmt"
	"strconv"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05.999999999"
)

// Kind tags what a source reader found in a cell.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindTimeOfDay
	KindTimestamp
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindTimeOfDay:
		return "time_of_day"
	case KindTimestamp:
		return "timestamp"
	case KindText:
		return "text"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a single raw cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Number float64
	Clock  time.Duration // offset since midnight, KindTimeOfDay
	Time   time.Time
	Text   string
}

func Null() Value { return Value{} }

func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

func TimeOfDay(h, m, s int) Value {
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	return Value{Kind: KindTimeOfDay, Clock: d}
}

func Timestamp(t time.Time) Value { return Value{Kind: KindTimestamp, Time: t} }

// Text returns a text cell; an empty string is a blank cell and yields Null.
func Text(s string) Value {
	if s == "" {
		return Null()
	}
	return Value{Kind: KindText, Text: s}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// HMS splits a time-of-day value into clock components.
func (v Value) HMS() (h, m, s int) {
	total := int(v.Clock / time.Second)
	return total / 3600, (total % 3600) / 60, total % 60
}

// String renders the cell the way it is written to CSV output.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindTimeOfDay:
		h, m, s := v.HMS()
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	case KindTimestamp:
		return v.Time.Format(TimestampLayout)
	case KindText:
		return v.Text
	}
	return ""
}

// Key is a kind-qualified rendering used for equality checks, so that the
// number 1 and the text "1" stay distinct.
func (v Value) Key() string {
	return strconv.Itoa(int(v.Kind)) + ":" + v.String()
}
