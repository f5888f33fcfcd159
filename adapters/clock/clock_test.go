package clock_test

import (
	"testing"
	"time"

	"github.com/artpar/storagemeter/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := clock.Real{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() = %v outside [%v, %v]", got, before, after)
	}
}

func TestFake_SetAndAdvance(t *testing.T) {
	start := time.Date(2060, time.April, 1, 0, 0, 0, 0, time.UTC)
	f := clock.NewFake(start)

	if got := f.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	f.Advance(48 * time.Hour)
	if got := f.Now(); !got.Equal(start.Add(48*time.Hour)) {
		t.Errorf("Now() after Advance = %v", got)
	}

	later := start.AddDate(0, 1, 0)
	f.Set(later)
	if got := f.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}
