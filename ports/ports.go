// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher hashes and verifies secrets (the HTTP API key).
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// ReportRecord is a computed fee report flattened for export.
// Fees are carried as decimal strings to keep exact values across stores.
type ReportRecord struct {
	ID             string
	RunID          string
	UnitID         string
	Month          string // YYYY-MM
	MaxUsageMB     int64
	UpdateVolumeMB int64
	StorageFee     string
	UpdateFee      string
	UsageFee       string
	CreatedAt      time.Time
}

// ReportStore persists fee reports produced during a replay run.
// Reports are a run artifact: a fresh run never reads them back into
// billing state.
type ReportStore interface {
	Save(ctx context.Context, rec ReportRecord) error
	ListByRun(ctx context.Context, runID string) ([]ReportRecord, error)
}
