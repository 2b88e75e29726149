package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/vestige/internal/clock"
)

func TestSystemClock_Now(t *testing.T) {
	var c clock.SystemClock
	before := time.Now()
	now := c.Now()
	after := time.Now()
	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestVirtualClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	vc := clock.NewVirtualClock(start)
	assert.Equal(t, start, vc.Now())

	vc.Advance(60 * 24 * time.Hour)
	assert.Equal(t, start.AddDate(0, 0, 60), vc.Now())

	later := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	vc.AdvanceTo(later)
	assert.Equal(t, later, vc.Now())
}

func TestVirtualClock_History(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	vc := clock.NewVirtualClock(start)
	vc.Advance(time.Hour)
	vc.Set(start.Add(48 * time.Hour))

	h := vc.History()
	assert.Len(t, h, 2)
	assert.Equal(t, time.Hour, h[0].Duration)
	assert.Equal(t, start.Add(48*time.Hour), h[1].To)
}
