// Package app contains the billing use cases: the engine that owns the
// storage units and the replay loop that feeds it an operation stream.
package app

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/artpar/storagemeter/adapters/metrics"
	"github.com/artpar/storagemeter/domain/fee"
	"github.com/artpar/storagemeter/domain/operation"
	"github.com/artpar/storagemeter/domain/plan"
	"github.com/artpar/storagemeter/domain/unit"
	"github.com/rs/zerolog"
)

// Engine-level validation failures. Per-unit failures are the sentinel
// errors in domain/unit.
var (
	ErrDuplicateUnit = errors.New("unit already registered")
	ErrUnitNotFound  = errors.New("unit not registered")
)

// Result is the outcome of one applied operation. Report is set for CALC
// only; every other kind acknowledges by returning with a nil error.
type Result struct {
	Kind   operation.Kind
	UnitID string
	FileID string
	Report *fee.Report
}

// UnitInfo is a read-only snapshot of one unit for diagnostics.
type UnitInfo struct {
	ID          string
	PlanID      string
	FileCount   int
	TotalSizeMB int64
	Files       []unit.File
	Months      []operation.Month
}

// Engine owns the collection of storage units and routes operations to
// them. The core state machine is single-threaded; Engine serializes all
// access behind one mutex so the HTTP layer can share it safely.
type Engine struct {
	mu            sync.Mutex
	units         map[string]*unit.StorageUnit
	order         []string
	calcPrevMonth bool
	logger        zerolog.Logger
	metrics       *metrics.Collector // optional
}

// NewEngine creates an empty billing engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		units:  make(map[string]*unit.StorageUnit),
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// SetMetrics attaches a metrics collector. Nil disables recording.
func (e *Engine) SetMetrics(m *metrics.Collector) {
	e.metrics = m
}

// UsePreviousMonthCalc makes CALC report the month before its timestamp,
// matching streams written against the legacy CLI convention.
func (e *Engine) UsePreviousMonthCalc(enabled bool) {
	e.calcPrevMonth = enabled
}

// RegisterUnit provisions a storage unit under a pricing plan.
func (e *Engine) RegisterUnit(unitID string, p plan.Plan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if unitID == "" {
		return errors.New("unit id must not be empty")
	}
	if _, ok := e.units[unitID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateUnit, unitID)
	}

	e.units[unitID] = unit.New(unitID, p)
	e.order = append(e.order, unitID)
	if e.metrics != nil {
		e.metrics.UnitsRegistered.Set(float64(len(e.units)))
	}
	e.logger.Debug().Str("unit", unitID).Str("plan", p.ID).Msg("unit registered")
	return nil
}

// Apply dispatches one validated record to its unit. It either fully
// succeeds or returns with engine state unchanged.
func (e *Engine) Apply(rec operation.Record) (Result, error) {
	start := time.Now()
	res, err := e.apply(rec)
	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordOperation(string(rec.Kind), status, time.Since(start).Seconds())
		if err == nil && rec.Kind == operation.KindCalc {
			e.metrics.ReportsGenerated.Inc()
		}
	}
	return res, err
}

func (e *Engine) apply(rec operation.Record) (Result, error) {
	if err := rec.Validate(); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.units[rec.UnitID]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnitNotFound, rec.UnitID)
	}

	res := Result{Kind: rec.Kind, UnitID: rec.UnitID, FileID: rec.FileID}

	switch rec.Kind {
	case operation.KindUpload:
		if err := u.Upload(rec.FileID, rec.SizeMB, rec.Timestamp); err != nil {
			return Result{}, err
		}
	case operation.KindDelete:
		if err := u.Delete(rec.FileID, rec.Timestamp); err != nil {
			return Result{}, err
		}
	case operation.KindUpdate:
		if err := u.Update(rec.FileID, rec.SizeMB, rec.Timestamp); err != nil {
			return Result{}, err
		}
	case operation.KindCalc:
		m := operation.MonthOf(rec.Timestamp)
		if e.calcPrevMonth {
			m = m.Previous()
		}
		report, err := u.Calculate(m)
		if err != nil {
			return Result{}, err
		}
		res.Report = &report
	default:
		return Result{}, fmt.Errorf("%w: kind %q", operation.ErrMalformedRecord, rec.Kind)
	}

	e.logger.Debug().
		Str("kind", string(rec.Kind)).
		Str("unit", rec.UnitID).
		Str("file", rec.FileID).
		Time("at", rec.Timestamp).
		Msg("operation applied")
	return res, nil
}

// Report computes the fee report for one unit-month without going through
// an operation record. Used by the HTTP layer.
func (e *Engine) Report(unitID string, m operation.Month) (fee.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.units[unitID]
	if !ok {
		return fee.Report{}, fmt.Errorf("%w: %s", ErrUnitNotFound, unitID)
	}
	return u.Calculate(m)
}

// UnitIDs returns registered unit ids in registration order.
func (e *Engine) UnitIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// UnitInfo returns a diagnostic snapshot of one unit.
func (e *Engine) UnitInfo(unitID string) (UnitInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.units[unitID]
	if !ok {
		return UnitInfo{}, fmt.Errorf("%w: %s", ErrUnitNotFound, unitID)
	}

	files := u.Files()
	return UnitInfo{
		ID:          u.ID(),
		PlanID:      u.Plan().ID,
		FileCount:   len(files),
		TotalSizeMB: u.TotalSizeMB(),
		Files:       files,
		Months:      u.Months(),
	}, nil
}

// Units returns diagnostic snapshots for every unit, sorted by id.
func (e *Engine) Units() []UnitInfo {
	ids := e.UnitIDs()
	sort.Strings(ids)

	out := make([]UnitInfo, 0, len(ids))
	for _, id := range ids {
		info, err := e.UnitInfo(id)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out
}
