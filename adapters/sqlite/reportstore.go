package sqlite

import (
	"context"

	"github.com/artpar/storagemeter/ports"
)

// ReportStore implements ports.ReportStore using SQLite.
type ReportStore struct {
	db *DB
}

// NewReportStore creates a new SQLite report store.
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

// Save stores a fee report.
func (s *ReportStore) Save(ctx context.Context, rec ports.ReportRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fee_reports (
			id, run_id, unit_id, month, max_usage_mb, update_volume_mb,
			storage_fee, update_fee, usage_fee, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.RunID, rec.UnitID, rec.Month, rec.MaxUsageMB, rec.UpdateVolumeMB,
		rec.StorageFee, rec.UpdateFee, rec.UsageFee, rec.CreatedAt.UTC(),
	)
	return err
}

// ListByRun returns all reports recorded for a run, oldest first.
func (s *ReportStore) ListByRun(ctx context.Context, runID string) ([]ports.ReportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, unit_id, month, max_usage_mb, update_volume_mb,
		       storage_fee, update_fee, usage_fee, created_at
		FROM fee_reports
		WHERE run_id = ?
		ORDER BY created_at, id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.ReportRecord
	for rows.Next() {
		var rec ports.ReportRecord
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.UnitID, &rec.Month,
			&rec.MaxUsageMB, &rec.UpdateVolumeMB,
			&rec.StorageFee, &rec.UpdateFee, &rec.UsageFee, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Ensure interface compliance.
var _ ports.ReportStore = (*ReportStore)(nil)
