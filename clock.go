package sortid

import (
	"sync/atomic"
	"time"
)

// Clock is the time source of a generator.
type Clock interface {
	Now() time.Time
}

// systemClock reads wall time through the monotonic reading captured at creation,
// so NTP steps after start-up do not move the clock backwards.
type systemClock struct {
	start time.Time
}

func (c systemClock) Now() time.Time {
	return c.start.Add(time.Since(c.start))
}

// SystemClock returns a monotonic-safe wall clock.
func SystemClock() Clock {
	return systemClock{start: time.Now()}
}

// ClockFunc adapts an ordinary function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f().
func (f ClockFunc) Now() time.Time {
	return f()
}

// ManualClock is a clock that only moves when told to. It is safe for
// concurrent use and intended for tests.
type ManualClock struct {
	nanos atomic.Int64
}

// NewManualClock returns a clock frozen at t.
func NewManualClock(t time.Time) *ManualClock {
	c := &ManualClock{}
	c.Set(t)
	return c
}

// Now returns the current frozen time.
func (c *ManualClock) Now() time.Time {
	return time.Unix(0, c.nanos.Load()).UTC()
}

// Set moves the clock to t, forwards or backwards.
func (c *ManualClock) Set(t time.Time) {
	c.nanos.Store(t.UnixNano())
}

// Advance moves the clock by d (which may be negative).
func (c *ManualClock) Advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

// Units returns the number of whole units elapsed between epoch and t.
// Times before epoch return false.
func Units(t, epoch time.Time, unit time.Duration) (uint64, bool) {
	if t.Before(epoch) {
		return 0, false
	}
	switch unit {
	case time.Millisecond:
		return uint64(t.UnixMilli() - epoch.UnixMilli()), true
	case time.Second:
		return uint64(t.Unix() - epoch.Unix()), true
	}
	return uint64(t.Sub(epoch) / unit), true
}

// FromUnits is the inverse of Units.
func FromUnits(units uint64, epoch time.Time, unit time.Duration) time.Time {
	switch unit {
	case time.Millisecond:
		return time.UnixMilli(epoch.UnixMilli() + int64(units)).UTC()
	case time.Second:
		return time.Unix(epoch.Unix()+int64(units), 0).UTC()
	}
	return epoch.Add(time.Duration(units) * unit).UTC()
}
