// Package wait implements the two precise-wait primitives the worker loop
// and the clock-calibration utility both depend on: an OS-suspending sleep
// and a non-yielding busy spin, each reporting elapsed ticks.
package wait

import (
	"errors"
	"time"

	"code.hybscloud.com/spin"

	"github.com/renatolabs/reqfifo/internal/clock"
)

// ErrNegativeDuration is the panic value Sleep and Busy raise when given a
// negative duration: a negative wait is a caller programming error, not a
// runtime condition worth a returned error.
var ErrNegativeDuration = errors.New("wait: negative duration")

// now samples CLOCK_MONOTONIC via internal/clock, so that the delta
// matches exactly what the rest of the server (which also samples
// CLOCK_MONOTONIC for receipt/start/completion stamps) observes.
func now() time.Duration {
	return clock.NowDuration()
}

// ticks approximates the hardware cycle counter as a monotonic nanosecond
// delta. There is no portable, allocation-free way to read a CPU's cycle
// counter from pure Go across architectures; nanosecond deltas are
// monotonic and proportional to elapsed time, which is all the caller
// that reads them (cmd/clockbench's cycles/second estimate) needs.
func ticks(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d)
}

// Sleep blocks the caller for at least d using the OS timer facility and
// returns the elapsed ticks. Panics if d < 0.
func Sleep(d time.Duration) uint64 {
	if d < 0 {
		panic(ErrNegativeDuration)
	}
	start := now()
	time.Sleep(d)
	return ticks(now() - start)
}

// Busy blocks the caller for at least d by spinning on CLOCK_MONOTONIC
// without ever yielding the processor, and returns the elapsed ticks.
// Panics if d < 0.
func Busy(d time.Duration) uint64 {
	if d < 0 {
		panic(ErrNegativeDuration)
	}
	start := now()
	if d == 0 {
		return 0
	}
	deadline := start + d
	sw := spin.Wait{}
	for now() < deadline {
		sw.Once()
	}
	return ticks(now() - start)
}
