package parser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/storagemeter/domain/operation"
	"github.com/artpar/storagemeter/parser"
)

func TestParseLine_Upload(t *testing.T) {
	rec, err := parser.ParseLine("2060-04-01T00:00 UPLOAD storage_A1 file123 5000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := operation.Record{
		Timestamp: time.Date(2060, time.April, 1, 0, 0, 0, 0, time.UTC),
		Kind:      operation.KindUpload,
		UnitID:    "storage_A1",
		FileID:    "file123",
		SizeMB:    5000,
	}
	if rec != want {
		t.Errorf("got %+v, want %+v", rec, want)
	}
}

func TestParseLine_Delete(t *testing.T) {
	rec, err := parser.ParseLine("2060-04-10T00:00 DELETE storage_A1 file123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Kind != operation.KindDelete || rec.FileID != "file123" {
		t.Errorf("got %+v", rec)
	}
}

func TestParseLine_Calc(t *testing.T) {
	rec, err := parser.ParseLine("2060-05-01T00:00 CALC storage_A1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Kind != operation.KindCalc || rec.FileID != "" || rec.SizeMB != 0 {
		t.Errorf("got %+v", rec)
	}
}

func TestParseLine_TimestampLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2060-04-01", time.Date(2060, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{"2060-04-01T12:30", time.Date(2060, time.April, 1, 12, 30, 0, 0, time.UTC)},
		{"2060-04-01T12:30:45", time.Date(2060, time.April, 1, 12, 30, 45, 0, time.UTC)},
		{"2060-04-01T12:30:45Z", time.Date(2060, time.April, 1, 12, 30, 45, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rec, err := parser.ParseLine(tt.in + " CALC storage_A1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !rec.Timestamp.Equal(tt.want) {
				t.Errorf("timestamp = %v, want %v", rec.Timestamp, tt.want)
			}
		})
	}
}

func TestParseLine_LowercaseKind(t *testing.T) {
	rec, err := parser.ParseLine("2060-04-01 upload storage_A1 f 10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Kind != operation.KindUpload {
		t.Errorf("kind = %q", rec.Kind)
	}
}

func TestParseLine_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", "   "},
		{"too few fields", "2060-04-01T00:00 UPLOAD"},
		{"bad timestamp", "yesterday UPLOAD storage_A1 f 10"},
		{"unknown kind", "2060-04-01T00:00 MOVE storage_A1 f 10"},
		{"upload missing size", "2060-04-01T00:00 UPLOAD storage_A1 f"},
		{"upload bad size", "2060-04-01T00:00 UPLOAD storage_A1 f ten"},
		{"upload negative size", "2060-04-01T00:00 UPLOAD storage_A1 f -10"},
		{"delete extra field", "2060-04-01T00:00 DELETE storage_A1 f 10"},
		{"calc with file", "2060-04-01T00:00 CALC storage_A1 f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseLine(tt.line)
			if !errors.Is(err, parser.ErrSyntax) {
				t.Errorf("got %v, want ErrSyntax", err)
			}
		})
	}
}
