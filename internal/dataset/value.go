package dataset

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the type stored in a cell value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindTime
	KindText
)

// Value is a single table cell. It is a small tagged value type so rows can
// be copied without sharing backing storage between snapshots.
type Value struct {
	kind Kind
	num  float64
	ts   time.Time
	str  string
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Timestamp returns a time value.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTime, ts: t}
}

// Text returns a textual value.
func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Float returns the numeric content. The second return is false for
// non-numeric values.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Time returns the timestamp content. The second return is false for
// non-time values.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// String returns the display form of the value. Null renders as the empty
// string so exported cells stay blank.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.ts.Format("2006-01-02 15:04:05")
	case KindText:
		return v.str
	default:
		return fmt.Sprintf("unknown(%d)", v.kind)
	}
}

// Format renders the value using the given time layout for time values and
// the default form for everything else.
func (v Value) Format(timeLayout string) string {
	if v.kind == KindTime {
		return v.ts.Format(timeLayout)
	}
	return v.String()
}
