// Package unit implements the per-unit billing state machine: file
// inventory, per-month usage statistics, and plan-based fee reports.
//
// A StorageUnit is single-threaded by design; callers that share one across
// goroutines must serialize access themselves.
package unit

import (
	"fmt"
	"sort"
	"time"

	"github.com/artpar/storagemeter/domain/fee"
	"github.com/artpar/storagemeter/domain/operation"
	"github.com/artpar/storagemeter/domain/plan"
)

// File represents a stored file (value type).
type File struct {
	ID             string
	SizeMB         int64
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// monthStat accumulates one calendar month of activity.
type monthStat struct {
	maxUsageMB     int64
	updateVolumeMB int64
	report         *fee.Report // cached by Calculate, dropped on mutation
}

// StorageUnit owns a plan, a file inventory, and monthly statistics.
type StorageUnit struct {
	id      string
	plan    plan.Plan
	files   map[string]File
	months  map[operation.Month]*monthStat
	totalMB int64
	lastAt  time.Time
	hasSeen bool
}

// New creates an empty storage unit governed by p.
func New(id string, p plan.Plan) *StorageUnit {
	return &StorageUnit{
		id:     id,
		plan:   p,
		files:  make(map[string]File),
		months: make(map[operation.Month]*monthStat),
	}
}

// ID returns the unit identifier.
func (u *StorageUnit) ID() string { return u.id }

// Plan returns the unit's pricing plan.
func (u *StorageUnit) Plan() plan.Plan { return u.plan }

// Upload inserts a new file. The file id must not be present; a previously
// deleted id may be reused.
func (u *StorageUnit) Upload(fileID string, sizeMB int64, at time.Time) error {
	if err := u.checkOrder(at); err != nil {
		return err
	}
	if sizeMB < 0 {
		return fmt.Errorf("%w: upload size %d", ErrInvalidSize, sizeMB)
	}
	if _, ok := u.files[fileID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFile, fileID)
	}

	stat := u.touchMonth(at)
	u.files[fileID] = File{ID: fileID, SizeMB: sizeMB, CreatedAt: at, LastModifiedAt: at}
	u.totalMB += sizeMB
	if u.totalMB > stat.maxUsageMB {
		stat.maxUsageMB = u.totalMB
	}
	stat.report = nil
	u.markSeen(at)
	return nil
}

// Delete removes a file. The month's peak usage is retained; a delete only
// lowers the current total it is computed from.
func (u *StorageUnit) Delete(fileID string, at time.Time) error {
	if err := u.checkOrder(at); err != nil {
		return err
	}
	f, ok := u.files[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}

	stat := u.touchMonth(at)
	u.totalMB -= f.SizeMB
	delete(u.files, fileID)
	stat.report = nil
	u.markSeen(at)
	return nil
}

// Update resizes a file and adds the absolute size delta to the month's
// update volume.
func (u *StorageUnit) Update(fileID string, newSizeMB int64, at time.Time) error {
	if err := u.checkOrder(at); err != nil {
		return err
	}
	if newSizeMB < 0 {
		return fmt.Errorf("%w: update size %d", ErrInvalidSize, newSizeMB)
	}
	f, ok := u.files[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}

	stat := u.touchMonth(at)
	delta := newSizeMB - f.SizeMB
	u.totalMB += delta
	if delta < 0 {
		delta = -delta
	}
	stat.updateVolumeMB += delta
	if u.totalMB > stat.maxUsageMB {
		stat.maxUsageMB = u.totalMB
	}
	f.SizeMB = newSizeMB
	f.LastModifiedAt = at
	u.files[fileID] = f
	stat.report = nil
	u.markSeen(at)
	return nil
}

// Calculate returns the fee report for a month. The report is cached until
// a later mutation touches the month, so repeated calls are idempotent.
func (u *StorageUnit) Calculate(m operation.Month) (fee.Report, error) {
	stat, ok := u.months[m]
	if !ok {
		return fee.Report{}, fmt.Errorf("%w: %s %s", ErrNoDataForMonth, u.id, m)
	}
	if stat.report == nil {
		r := fee.Compute(u.id, m, u.plan, stat.maxUsageMB, stat.updateVolumeMB)
		stat.report = &r
	}
	return *stat.report, nil
}

// TotalSizeMB returns the current inventory size.
func (u *StorageUnit) TotalSizeMB() int64 { return u.totalMB }

// File returns a file by id.
func (u *StorageUnit) File(fileID string) (File, bool) {
	f, ok := u.files[fileID]
	return f, ok
}

// Files returns the current inventory sorted by file id.
func (u *StorageUnit) Files() []File {
	out := make([]File, 0, len(u.files))
	for _, f := range u.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Months returns every month with recorded activity, in chronological order.
func (u *StorageUnit) Months() []operation.Month {
	out := make([]operation.Month, 0, len(u.months))
	for m := range u.months {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// MonthUsage returns the recorded peak usage and update volume for a month.
func (u *StorageUnit) MonthUsage(m operation.Month) (maxUsageMB, updateVolumeMB int64, ok bool) {
	stat, ok := u.months[m]
	if !ok {
		return 0, 0, false
	}
	return stat.maxUsageMB, stat.updateVolumeMB, true
}

// LastSeen returns the timestamp of the most recent mutation.
func (u *StorageUnit) LastSeen() (time.Time, bool) {
	return u.lastAt, u.hasSeen
}

// checkOrder enforces non-decreasing timestamps across mutations.
func (u *StorageUnit) checkOrder(at time.Time) error {
	if u.hasSeen && at.Before(u.lastAt) {
		return fmt.Errorf("%w: %s before last seen %s",
			ErrOutOfOrderOperation, at.Format(time.RFC3339), u.lastAt.Format(time.RFC3339))
	}
	return nil
}

// touchMonth lazily creates a month's stats. A new month inherits the
// current inventory total as its starting peak, so files held across a
// month boundary still bill in the new month.
func (u *StorageUnit) touchMonth(at time.Time) *monthStat {
	m := operation.MonthOf(at)
	stat, ok := u.months[m]
	if !ok {
		stat = &monthStat{maxUsageMB: u.totalMB}
		u.months[m] = stat
	}
	return stat
}

func (u *StorageUnit) markSeen(at time.Time) {
	u.lastAt = at
	u.hasSeen = true
}
