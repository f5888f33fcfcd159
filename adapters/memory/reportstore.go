// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"sync"

	"github.com/artpar/storagemeter/ports"
)

// ReportStore is an in-memory implementation of ports.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	reports []ports.ReportRecord
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make([]ports.ReportRecord, 0),
	}
}

// Save stores a fee report.
func (s *ReportStore) Save(ctx context.Context, rec ports.ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, rec)
	return nil
}

// ListByRun returns all reports recorded for a run, in insertion order.
func (s *ReportStore) ListByRun(ctx context.Context, runID string) ([]ports.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.ReportRecord
	for _, r := range s.reports {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Ensure interface compliance.
var _ ports.ReportStore = (*ReportStore)(nil)
