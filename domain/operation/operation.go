// Package operation provides validated operation record types.
// All functions are pure - no side effects.
package operation

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the type of a storage operation.
type Kind string

const (
	KindUpload Kind = "UPLOAD"
	KindDelete Kind = "DELETE"
	KindUpdate Kind = "UPDATE"
	KindCalc   Kind = "CALC"
)

// Kinds lists every operation kind the engine dispatches on.
var Kinds = []Kind{KindUpload, KindDelete, KindUpdate, KindCalc}

// Known reports whether k is a member of the closed kind set.
func (k Kind) Known() bool {
	switch k {
	case KindUpload, KindDelete, KindUpdate, KindCalc:
		return true
	}
	return false
}

// Record represents a single time-stamped instruction (immutable value type).
// Records are produced by the input parser or the HTTP layer and consumed
// immediately by the billing engine; they are not retained.
type Record struct {
	Timestamp time.Time
	Kind      Kind
	UnitID    string
	FileID    string // empty for CALC
	SizeMB    int64  // meaningful for UPLOAD and UPDATE only
}

// ErrMalformedRecord is the base error for structurally invalid records.
var ErrMalformedRecord = errors.New("malformed operation record")

// Validate checks structural well-formedness: kind membership and
// per-kind field presence. Semantic checks (duplicate files, ordering)
// belong to the storage unit.
func (r Record) Validate() error {
	if !r.Kind.Known() {
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedRecord, string(r.Kind))
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrMalformedRecord)
	}
	if r.UnitID == "" {
		return fmt.Errorf("%w: missing unit id", ErrMalformedRecord)
	}

	switch r.Kind {
	case KindUpload, KindUpdate:
		if r.FileID == "" {
			return fmt.Errorf("%w: %s requires a file id", ErrMalformedRecord, r.Kind)
		}
		if r.SizeMB < 0 {
			return fmt.Errorf("%w: %s size must be non-negative, got %d", ErrMalformedRecord, r.Kind, r.SizeMB)
		}
	case KindDelete:
		if r.FileID == "" {
			return fmt.Errorf("%w: DELETE requires a file id", ErrMalformedRecord)
		}
	case KindCalc:
		if r.FileID != "" {
			return fmt.Errorf("%w: CALC takes no file id", ErrMalformedRecord)
		}
	}
	return nil
}

// Month identifies a calendar month (value type).
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
// This is a PURE function.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Previous returns the calendar month before m.
func (m Month) Previous() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Bounds returns the inclusive start and exclusive end of the month in UTC.
// This is a PURE function.
func (m Month) Bounds() (start, end time.Time) {
	start = time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ParseMonth parses a YYYY-MM month key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}
