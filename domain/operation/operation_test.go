package operation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/storagemeter/domain/operation"
)

var at = time.Date(2060, time.April, 1, 0, 0, 0, 0, time.UTC)

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     operation.Record
		wantErr bool
	}{
		{
			"valid upload",
			operation.Record{Timestamp: at, Kind: operation.KindUpload, UnitID: "storage_A1", FileID: "file123", SizeMB: 5000},
			false,
		},
		{
			"valid delete",
			operation.Record{Timestamp: at, Kind: operation.KindDelete, UnitID: "storage_A1", FileID: "file123"},
			false,
		},
		{
			"valid calc",
			operation.Record{Timestamp: at, Kind: operation.KindCalc, UnitID: "storage_A1"},
			false,
		},
		{
			"unknown kind",
			operation.Record{Timestamp: at, Kind: "MOVE", UnitID: "storage_A1", FileID: "f"},
			true,
		},
		{
			"zero timestamp",
			operation.Record{Kind: operation.KindCalc, UnitID: "storage_A1"},
			true,
		},
		{
			"missing unit",
			operation.Record{Timestamp: at, Kind: operation.KindUpload, FileID: "f", SizeMB: 1},
			true,
		},
		{
			"upload without file",
			operation.Record{Timestamp: at, Kind: operation.KindUpload, UnitID: "u", SizeMB: 1},
			true,
		},
		{
			"upload negative size",
			operation.Record{Timestamp: at, Kind: operation.KindUpload, UnitID: "u", FileID: "f", SizeMB: -1},
			true,
		},
		{
			"update negative size",
			operation.Record{Timestamp: at, Kind: operation.KindUpdate, UnitID: "u", FileID: "f", SizeMB: -5},
			true,
		},
		{
			"delete without file",
			operation.Record{Timestamp: at, Kind: operation.KindDelete, UnitID: "u"},
			true,
		},
		{
			"calc with file",
			operation.Record{Timestamp: at, Kind: operation.KindCalc, UnitID: "u", FileID: "f"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, operation.ErrMalformedRecord) {
				t.Errorf("error %v should wrap ErrMalformedRecord", err)
			}
		})
	}
}

func TestKind_Known(t *testing.T) {
	for _, k := range operation.Kinds {
		if !k.Known() {
			t.Errorf("Kind(%q).Known() = false, want true", k)
		}
	}
	for _, k := range []operation.Kind{"", "upload", "MOVE"} {
		if k.Known() {
			t.Errorf("Kind(%q).Known() = true, want false", k)
		}
	}
}

func TestMonthOf(t *testing.T) {
	m := operation.MonthOf(time.Date(2060, time.April, 10, 23, 59, 0, 0, time.UTC))
	if m.Year != 2060 || m.Month != time.April {
		t.Errorf("got %v, want 2060-04", m)
	}
}

func TestMonth_String(t *testing.T) {
	m := operation.Month{Year: 2060, Month: time.April}
	if got := m.String(); got != "2060-04" {
		t.Errorf("got %q, want %q", got, "2060-04")
	}
}

func TestMonth_Previous(t *testing.T) {
	tests := []struct {
		in   operation.Month
		want operation.Month
	}{
		{operation.Month{2060, time.April}, operation.Month{2060, time.March}},
		{operation.Month{2060, time.January}, operation.Month{2059, time.December}},
	}
	for _, tt := range tests {
		if got := tt.in.Previous(); got != tt.want {
			t.Errorf("%v.Previous() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMonth_Bounds(t *testing.T) {
	start, end := operation.Month{Year: 2060, Month: time.December}.Bounds()
	if start != time.Date(2060, time.December, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected start %v", start)
	}
	if end != time.Date(2061, time.January, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected end %v", end)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := operation.ParseMonth("2060-04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != (operation.Month{Year: 2060, Month: time.April}) {
		t.Errorf("got %v", m)
	}

	if _, err := operation.ParseMonth("April 2060"); err == nil {
		t.Error("expected error for bad month key")
	}
}
