// Package clock provides the process-wide monotonic time source used by
// recorders to timestamp events.
//
// The reference instant is sampled once from CLOCK_MONOTONIC, the same call
// the teacher binary uses to convert kernel timestamps into wall-clock time
// (see cmd/tracker/main.go's bootTime computation in the source this package
// was adapted from). Re-sampling CLOCK_MONOTONIC on every call, rather than
// relying on time.Now, keeps the clock immune to NTP steps and DST changes.
package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

// Clock is a monotonic time source relative to the instant it was created.
type Clock struct {
	startNS   int64
	wallStart time.Time
}

// New returns a Clock whose zero point is the current CLOCK_MONOTONIC value.
func New() *Clock {
	return &Clock{startNS: monotonicNS(), wallStart: time.Now()}
}

// Timebase returns the wall-clock instant corresponding to NowUS()==0, as
// Unix seconds with fractional precision -- the same bootTime-by-subtraction
// idiom the teacher uses to translate a monotonic reading into wall-clock
// time, in the opposite direction.
func (c *Clock) Timebase() float64 {
	return float64(c.wallStart.UnixNano()) / float64(time.Second)
}

// NowUS returns microseconds elapsed since the clock's construction, as an
// unsigned 32-bit integer. It wraps after roughly 71 minutes; callers that
// run longer than that and need an unambiguous ordering should use NowNS.
func (c *Clock) NowUS() uint32 {
	return uint32(uint64(c.NowNS()) / uint64(time.Microsecond))
}

// NowNS returns nanoseconds elapsed since the clock's construction.
func (c *Clock) NowNS() uint64 {
	delta := monotonicNS() - c.startNS
	if delta < 0 {
		// CLOCK_MONOTONIC never goes backwards on a single process; a
		// negative delta would mean the clock wrapped through int64, which
		// requires centuries of uptime. Clamp defensively rather than
		// return a nonsensical negative duration.
		return 0
	}
	return uint64(delta)
}

func monotonicNS() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// CLOCK_MONOTONIC is always available on Linux; a failure here
		// indicates a broken environment. Fall back to the wall clock
		// (time.Now().UnixNano()) rather than panic, so a degraded clock never
		// takes down the process it's profiling.
		return time.Now().UnixNano()
	}
	return ts.Sec*int64(time.Second) + ts.Nsec
}
