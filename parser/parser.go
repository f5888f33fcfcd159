// Package parser tokenizes raw input lines into operation records.
// It owns syntax validation only; semantic validation (inventory state,
// ordering) happens inside the billing engine.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/storagemeter/domain/operation"
)

// ErrSyntax is the base error for lines the tokenizer cannot accept.
var ErrSyntax = errors.New("invalid line syntax")

// timestampLayouts lists the accepted ISO-8601 shapes, most specific first.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseLine parses one input line:
//
//	<timestamp> <KIND> <unitId> [<fileId>] [<sizeMB>]
//
// UPLOAD and UPDATE carry file id and size, DELETE carries file id only,
// CALC carries neither.
func ParseLine(line string) (operation.Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return operation.Record{}, fmt.Errorf("%w: empty line", ErrSyntax)
	}
	if len(fields) < 3 {
		return operation.Record{}, fmt.Errorf("%w: want at least 3 fields, got %d", ErrSyntax, len(fields))
	}

	ts, err := parseTimestamp(fields[0])
	if err != nil {
		return operation.Record{}, err
	}

	rec := operation.Record{
		Timestamp: ts,
		Kind:      operation.Kind(strings.ToUpper(fields[1])),
		UnitID:    fields[2],
	}
	if !rec.Kind.Known() {
		return operation.Record{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, fields[1])
	}

	switch rec.Kind {
	case operation.KindUpload, operation.KindUpdate:
		if len(fields) != 5 {
			return operation.Record{}, fmt.Errorf("%w: %s wants 5 fields, got %d", ErrSyntax, rec.Kind, len(fields))
		}
		rec.FileID = fields[3]
		size, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return operation.Record{}, fmt.Errorf("%w: size %q: %v", ErrSyntax, fields[4], err)
		}
		rec.SizeMB = size
	case operation.KindDelete:
		if len(fields) != 4 {
			return operation.Record{}, fmt.Errorf("%w: DELETE wants 4 fields, got %d", ErrSyntax, len(fields))
		}
		rec.FileID = fields[3]
	case operation.KindCalc:
		if len(fields) != 3 {
			return operation.Record{}, fmt.Errorf("%w: CALC wants 3 fields, got %d", ErrSyntax, len(fields))
		}
	}

	if err := rec.Validate(); err != nil {
		return operation.Record{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return rec, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrSyntax, s)
}
