package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/storagemeter/adapters/sqlite"
	"github.com/artpar/storagemeter/ports"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestReportStore_SaveAndList(t *testing.T) {
	db := openTestDB(t)
	s := sqlite.NewReportStore(db)
	ctx := context.Background()

	base := ports.ReportRecord{
		RunID:          "run-1",
		UnitID:         "storage_A1",
		Month:          "2060-04",
		MaxUsageMB:     7000,
		UpdateVolumeMB: 2000,
		StorageFee:     "70",
		UpdateFee:      "1",
		UsageFee:       "71",
		CreatedAt:      time.Date(2060, time.April, 30, 12, 0, 0, 0, time.UTC),
	}

	first := base
	first.ID = "rep-1"
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := base
	second.ID = "rep-2"
	second.UnitID = "storage_B1"
	second.CreatedAt = base.CreatedAt.Add(time.Minute)
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	other := base
	other.ID = "rep-3"
	other.RunID = "run-2"
	if err := s.Save(ctx, other); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.ListByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reports, want 2", len(got))
	}
	if got[0].ID != "rep-1" || got[1].ID != "rep-2" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].UsageFee != "71" {
		t.Errorf("usage fee = %s, want 71", got[0].UsageFee)
	}
	if got[0].MaxUsageMB != 7000 || got[0].UpdateVolumeMB != 2000 {
		t.Errorf("usage columns = %d/%d", got[0].MaxUsageMB, got[0].UpdateVolumeMB)
	}
}

func TestReportStore_DuplicateID(t *testing.T) {
	db := openTestDB(t)
	s := sqlite.NewReportStore(db)
	ctx := context.Background()

	rec := ports.ReportRecord{ID: "rep-1", RunID: "r", UnitID: "u", Month: "2060-04", CreatedAt: time.Now()}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, rec); err == nil {
		t.Error("expected primary key violation")
	}
}
